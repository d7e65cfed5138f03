package error

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New("scan failed")

	if err.Error() != "scan failed" {
		t.Errorf("Error() = %q, want %q", err.Error(), "scan failed")
	}
	if err.Code() != CodeUnknown {
		t.Errorf("Code() = %v, want %v", err.Code(), CodeUnknown)
	}
	if err.Severity() != SeverityMedium {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityMedium)
	}
	if err.Timestamp().IsZero() {
		t.Error("Timestamp() should not be zero")
	}
}

func TestWrap(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		message  string
		wantNil  bool
		wantMsg  string
		wantCode Code
	}{
		{
			name:    "wrap nil error",
			err:     nil,
			message: "context",
			wantNil: true,
		},
		{
			name:     "wrap standard error",
			err:      errors.New("connection refused"),
			message:  "translate",
			wantMsg:  "translate: connection refused",
			wantCode: CodeUnknown,
		},
		{
			name:     "wrap coded error inherits code",
			err:      New("empty body").WithCode(CodeEmptyTranslation),
			message:  "translate",
			wantMsg:  "translate: empty body",
			wantCode: CodeEmptyTranslation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Wrap(tt.err, tt.message)
			if tt.wantNil {
				if got != nil {
					t.Errorf("Wrap() = %v, want nil", got)
				}
				return
			}
			if got.Error() != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got.Error(), tt.wantMsg)
			}
			if got.Code() != tt.wantCode {
				t.Errorf("Code() = %v, want %v", got.Code(), tt.wantCode)
			}
			if !errors.Is(got, tt.err) {
				t.Error("wrapped error should match its cause")
			}
		})
	}
}

func TestWrap_TruncatesDeepChains(t *testing.T) {
	var err error = errors.New("root")
	for i := 0; i < MaxErrorChainDepth+2; i++ {
		err = Wrap(err, fmt.Sprintf("level %d", i))
	}

	e := err.(*Error)
	if e.Severity() != SeverityHigh {
		t.Errorf("Severity() = %v, want %v", e.Severity(), SeverityHigh)
	}
	if e.Details()["truncated"] != true {
		t.Error("truncated detail should be set")
	}
}

func TestIs_MatchesSentinelByCode(t *testing.T) {
	sentinel := New("no text found").WithCode(CodeNoTextFound)
	other := New("not recognized").WithCode(CodeNotRecognized)

	err := fmt.Errorf("ocr: %w", Wrap(New("short").WithCode(CodeNoTextFound), "capture"))

	if !errors.Is(err, sentinel) {
		t.Error("errors.Is should match by code")
	}
	if errors.Is(err, other) {
		t.Error("errors.Is should not match a different code")
	}

	plain := New("plain")
	if errors.Is(New("plain"), plain) {
		t.Error("unknown-code errors should only match themselves")
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", New("inner").WithCode(CodeCaptureFailed))

	if !HasCode(err, CodeCaptureFailed) {
		t.Error("HasCode() should find the inner code")
	}
	if HasCode(err, CodeTimeout) {
		t.Error("HasCode() should not find an absent code")
	}
	if HasCode(nil, CodeCaptureFailed) {
		t.Error("HasCode(nil) should be false")
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(errors.New("x")); got != CodeUnknown {
		t.Errorf("GetCode() = %v, want %v", got, CodeUnknown)
	}
	if got := GetCode(New("x").WithCode(CodeInvalidState)); got != CodeInvalidState {
		t.Errorf("GetCode() = %v, want %v", got, CodeInvalidState)
	}
}

func TestWithCode_SetsDefaultSeverity(t *testing.T) {
	tests := []struct {
		code Code
		want Severity
	}{
		{CodeNoTextFound, SeverityLow},
		{CodeServiceUnreachable, SeverityMedium},
		{CodeStorageError, SeverityHigh},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := New("x").WithCode(tt.code).Severity(); got != tt.want {
				t.Errorf("Severity() = %v, want %v", got, tt.want)
			}
		})
	}

	explicit := New("x").WithSeverity(SeverityCritical).WithCode(CodeNoTextFound)
	if explicit.Severity() != SeverityCritical {
		t.Error("explicit severity should not be overridden by WithCode")
	}
}

func TestMarshalJSON(t *testing.T) {
	err := Wrap(errors.New("timeout"), "speak").
		WithCode(CodeAudioServiceFailed).
		WithOperation("speech.remote").
		WithDetail("lang", "te-IN")

	data, jerr := json.Marshal(err)
	if jerr != nil {
		t.Fatalf("Marshal() error = %v", jerr)
	}

	var got map[string]interface{}
	if jerr := json.Unmarshal(data, &got); jerr != nil {
		t.Fatalf("Unmarshal() error = %v", jerr)
	}
	if got["code"] != string(CodeAudioServiceFailed) {
		t.Errorf("code = %v, want %v", got["code"], CodeAudioServiceFailed)
	}
	if got["operation"] != "speech.remote" {
		t.Errorf("operation = %v, want speech.remote", got["operation"])
	}
	if got["cause"] != "timeout" {
		t.Errorf("cause = %v, want timeout", got["cause"])
	}
}

func TestCode_IsUserFacing(t *testing.T) {
	if !CodeNoTextFound.IsUserFacing() {
		t.Error("NO_TEXT_FOUND should be user facing")
	}
	if CodeInvalidState.IsUserFacing() {
		t.Error("INVALID_STATE should not be user facing")
	}
}
