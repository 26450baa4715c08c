package mlog

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLevelFilter(t *testing.T) {
	defer SetLogger(nil)
	if IsLevelEnabled(ErrorLevel) {
		t.Fatal("nil logger enables nothing")
	}
	UseStdLogger(InfoLevel)
	if !IsLevelEnabled(WarnLevel) || IsLevelEnabled(DebugLevel) {
		t.Fatal("std logger level filter")
	}
	Infof("std logger %d", 1)
}

func TestZapLogger(t *testing.T) {
	defer SetLogger(nil)
	dir := t.TempDir()
	sync, err := UseZapLogger(&ZapConfig{Path: dir, Name: "equeue", Level: DebugLevel})
	if err != nil {
		t.Fatal(err)
	}
	Debugf("queue %s pending=%d", "main", 3)
	Trace("dropped")
	_ = sync()

	data, err := os.ReadFile(filepath.Join(dir, "equeue.log"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "queue main pending=3") {
		t.Fatalf("log file content: %q", data)
	}
	if strings.Contains(string(data), "dropped") {
		t.Fatal("trace should be filtered at debug level")
	}
}

func TestWriterLogger(t *testing.T) {
	var buf bytes.Buffer
	code := 0
	l := newWriterLogger(&buf, NoticeLevel)
	l.exit = func(c int) { code = c }
	SetLogger(l)
	defer SetLogger(nil)

	Infof("filtered %d", 1)
	Warnf("queue %s full", "main")
	Fatal("stop")
	out := buf.String()
	if strings.Contains(out, "filtered") {
		t.Fatalf("info should be filtered: %q", out)
	}
	if !strings.Contains(out, "[warn] queue main full") || !strings.Contains(out, "[fatal] stop") {
		t.Fatalf("output: %q", out)
	}
	if code != 1 {
		t.Fatalf("exit code = %d", code)
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{"debug": DebugLevel, " WARN ": WarnLevel, "0": FatalLevel, "6": TraceLevel} {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	for _, in := range []string{"verbose", "7", "-1"} {
		if _, err := ParseLevel(in); err == nil {
			t.Fatalf("ParseLevel(%q) should fail", in)
		}
	}
	if InfoLevel.String() != "info" || Level(9).String() != "level(9)" {
		t.Fatal("Level.String")
	}
}
