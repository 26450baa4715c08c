package errs

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestErr(t *testing.T) {
	err := InvalidSize.Printf("size=%d", -1)
	if err.Error() != "INVALID_SIZE,size=-1" {
		t.Fatalf("desc = %q", err.Error())
	}
	if !errors.Is(err, InvalidSize) || errors.Is(err, NoMemory) {
		t.Fatal("errors.Is by code")
	}
	wrapped := fmt.Errorf("load: %w", QueueExists.Print("main"))
	if CodeOf(wrapped) != ErrCode_QueueExists {
		t.Fatalf("CodeOf = %d", CodeOf(wrapped))
	}
	if CodeOf(errors.New("x")) != ErrCode_Unknown || CodeOf(nil) != ErrCode_OK {
		t.Fatal("CodeOf fallback")
	}
}

func TestWrap(t *testing.T) {
	err := InvalidConfig.Print("equeue.yaml").Wrap(fs.ErrNotExist)
	if err.Error() != "INVALID_CONFIG,equeue.yaml: file does not exist" {
		t.Fatalf("desc = %q", err.Error())
	}
	if !errors.Is(err, InvalidConfig) || !errors.Is(err, fs.ErrNotExist) {
		t.Fatal("errors.Is through code and cause")
	}
	if InvalidConfig.Wrap(nil) != InvalidConfig {
		t.Fatal("Wrap(nil) keeps the error")
	}
	plain := errors.New("dial tcp: refused")
	if w := WrapError(plain); w.Code() != ErrCode_Unknown || !errors.Is(w, plain) {
		t.Fatalf("WrapError = %v", w)
	}
}
