package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/kbukum/voicegate/errors"
)

type sample struct {
	SampleRate int           `mapstructure:"sample_rate" validate:"gt=0"`
	Threshold  float64       `mapstructure:"energy_threshold" validate:"gte=0,lte=1"`
	Silence    time.Duration `mapstructure:"silence_duration" validate:"gt=0"`
	Task       string        `json:"task" validate:"oneof=transcribe translate"`
	Nested     nested        `mapstructure:"nested"`
}

type nested struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

func valid() sample {
	return sample{
		SampleRate: 16000,
		Threshold:  0.01,
		Silence:    time.Second,
		Task:       "transcribe",
		Nested:     nested{URL: "http://localhost:8387"},
	}
}

func TestValidate_OK(t *testing.T) {
	s := valid()
	if err := Validate(&s); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidate_ReportsConfigKeys(t *testing.T) {
	s := valid()
	s.SampleRate = 0
	s.Threshold = 2
	s.Task = "summarize"
	s.Nested.URL = ""

	err := Validate(&s)
	if err == nil {
		t.Fatal("expected validation error")
	}
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Code != errors.ErrCodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %s", appErr.Code)
	}

	fields, ok := appErr.Details["fields"].([]FieldError)
	if !ok {
		t.Fatalf("expected []FieldError details, got %T", appErr.Details["fields"])
	}
	if len(fields) != 4 {
		t.Fatalf("expected 4 field errors, got %d: %v", len(fields), fields)
	}

	for _, want := range []string{"sample_rate", "energy_threshold", "task", "nested.url"} {
		if !strings.Contains(appErr.Message, want) {
			t.Errorf("expected message to mention %q, got %q", want, appErr.Message)
		}
	}
}

func TestDescribeMessages(t *testing.T) {
	s := valid()
	s.Silence = 0
	err := Validate(&s)
	if err == nil || !strings.Contains(err.Error(), "silence_duration: must be greater than 0") {
		t.Errorf("expected greater-than message, got %v", err)
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"SampleRate": "sample_rate",
		"URL":        "u_r_l",
		"beam":       "beam",
	}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q): expected %q, got %q", in, want, got)
		}
	}
}
