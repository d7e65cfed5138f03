package error

// Code represents a structured error code for categorizing errors
type Code string

// Generic codes
const (
	CodeUnknown      Code = "UNKNOWN"
	CodeInternal     Code = "INTERNAL"
	CodeNotFound     Code = "NOT_FOUND"
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeTimeout      Code = "TIMEOUT"
	CodeConfigError  Code = "CONFIG_ERROR"
	CodeStorageError Code = "STORAGE_ERROR"
)

// Pipeline codes
const (
	CodeCaptureFailed      Code = "CAPTURE_FAILED"
	CodeNoTextFound        Code = "NO_TEXT_FOUND"
	CodeInvalidPageIndex   Code = "INVALID_PAGE_INDEX"
	CodeServiceUnreachable Code = "SERVICE_UNREACHABLE"
	CodeEmptyTranslation   Code = "EMPTY_TRANSLATION"
	CodeNotRecognized      Code = "NOT_RECOGNIZED"
	CodeAudioServiceFailed Code = "AUDIO_SERVICE_FAILED"
	CodeInvalidState       Code = "INVALID_STATE"
	CodeStaleResult        Code = "STALE_RESULT"
)

// String returns the code as string
func (c Code) String() string {
	return string(c)
}

// IsUserFacing reports whether the code ends in a spoken notice rather than a hard failure
func (c Code) IsUserFacing() bool {
	switch c {
	case CodeCaptureFailed, CodeNoTextFound, CodeServiceUnreachable,
		CodeEmptyTranslation, CodeNotRecognized:
		return true
	default:
		return false
	}
}
