package error

// Severity represents the severity level of an error
type Severity int

const (
	// SeverityLow is an expected, recoverable condition (bad scan, unknown phrase)
	SeverityLow Severity = iota
	// SeverityMedium degrades the result but the flow continues
	SeverityMedium
	// SeverityHigh breaks a component
	SeverityHigh
	// SeverityCritical leaves the process unusable
	SeverityCritical
)

// String returns the string representation of the severity level
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// SeverityFromCode returns the default severity for a code
func SeverityFromCode(code Code) Severity {
	switch code {
	case CodeNoTextFound, CodeNotRecognized, CodeInvalidPageIndex, CodeInvalidState, CodeInvalidInput, CodeStaleResult:
		return SeverityLow
	case CodeCaptureFailed, CodeServiceUnreachable, CodeEmptyTranslation, CodeAudioServiceFailed, CodeTimeout:
		return SeverityMedium
	case CodeConfigError, CodeStorageError, CodeInternal:
		return SeverityHigh
	default:
		return SeverityMedium
	}
}
