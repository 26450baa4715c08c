package errs

const (
	ErrCode_OK            = 0
	ErrCode_Unknown       = 1
	ErrCode_InvalidSize   = 2
	ErrCode_NoMemory      = 3
	ErrCode_QueueClosed   = 4
	ErrCode_EventPosted   = 5
	ErrCode_ChainSelf     = 6
	ErrCode_InvalidConfig = 7
	ErrCode_QueueExists   = 8
	ErrCode_QueueNotFound = 9
)

var (
	Unknown       = CreateCodeError(ErrCode_Unknown, "UNKNOWN")
	InvalidSize   = CreateCodeError(ErrCode_InvalidSize, "INVALID_SIZE")
	NoMemory      = CreateCodeError(ErrCode_NoMemory, "NO_MEMORY")
	QueueClosed   = CreateCodeError(ErrCode_QueueClosed, "QUEUE_CLOSED")
	EventPosted   = CreateCodeError(ErrCode_EventPosted, "EVENT_POSTED")
	ChainSelf     = CreateCodeError(ErrCode_ChainSelf, "CHAIN_SELF")
	InvalidConfig = CreateCodeError(ErrCode_InvalidConfig, "INVALID_CONFIG")
	QueueExists   = CreateCodeError(ErrCode_QueueExists, "QUEUE_EXISTS")
	QueueNotFound = CreateCodeError(ErrCode_QueueNotFound, "QUEUE_NOT_FOUND")
)
