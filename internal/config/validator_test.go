package config

import (
	"strings"
	"testing"
)

// TestValidationError_Error tests the ValidationError.Error() method
func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      ValidationError
		expected string
	}{
		{
			name:     "standard error",
			err:      ValidationError{Path: "model", Message: "model is required"},
			expected: "model: model is required",
		},
		{
			name:     "empty path",
			err:      ValidationError{Path: "", Message: "some error"},
			expected: ": some error",
		},
		{
			name:     "empty message",
			err:      ValidationError{Path: "some.path", Message: ""},
			expected: "some.path: ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.err.Error()
			if result != tt.expected {
				t.Errorf("Expected '%s' but got '%s'", tt.expected, result)
			}
		})
	}
}

// TestValidationError_AsError tests that ValidationError implements the error interface
func TestValidationError_AsError(t *testing.T) {
	var err error = ValidationError{Path: "test.path", Message: "test message"}

	errorStr := err.Error()
	if !strings.Contains(errorStr, "test.path") {
		t.Errorf("Expected error string to contain 'test.path', got '%s'", errorStr)
	}
	if !strings.Contains(errorStr, "test message") {
		t.Errorf("Expected error string to contain 'test message', got '%s'", errorStr)
	}
}

func validClosedFile() *File {
	return &File{
		Name:        "checkout-load",
		Duration:    Duration(30_000_000_000), // 30s
		Model:       "closed",
		Concurrency: 5,
		Scenarios: []ScenarioConfig{
			{Name: "get-home", URL: "http://localhost:8080/"},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(f *File)
		errorCount int
	}{
		{
			name:       "valid closed config",
			mutate:     func(f *File) {},
			errorCount: 0,
		},
		{
			name:       "missing name",
			mutate:     func(f *File) { f.Name = "" },
			errorCount: 1,
		},
		{
			name:       "zero duration",
			mutate:     func(f *File) { f.Duration = 0 },
			errorCount: 1,
		},
		{
			name:       "unknown model",
			mutate:     func(f *File) { f.Model = "sideways" },
			errorCount: 1,
		},
		{
			name: "closed model missing concurrency",
			mutate: func(f *File) {
				f.Model = "closed"
				f.Concurrency = 0
			},
			errorCount: 1,
		},
		{
			name: "open model missing arrival rate and maxVUs",
			mutate: func(f *File) {
				f.Model = "open"
				f.Concurrency = 0
			},
			errorCount: 2,
		},
		{
			name: "ramping-open missing stages",
			mutate: func(f *File) {
				f.Model = "ramping-open"
				f.Concurrency = 0
				f.MaxVUs = 10
			},
			errorCount: 1,
		},
		{
			name: "ramping-open stage with zero duration",
			mutate: func(f *File) {
				f.Model = "ramping-open"
				f.Concurrency = 0
				f.MaxVUs = 10
				f.Stages = []StageConfig{{Duration: 0, Target: 10}}
			},
			errorCount: 1,
		},
		{
			name: "burst model missing fields",
			mutate: func(f *File) {
				f.Model = "burst"
				f.Concurrency = 0
			},
			errorCount: 3,
		},
		{
			name:       "no scenarios",
			mutate:     func(f *File) { f.Scenarios = nil },
			errorCount: 1,
		},
		{
			name: "scenario missing name and url",
			mutate: func(f *File) {
				f.Scenarios = []ScenarioConfig{{}}
			},
			errorCount: 2,
		},
		{
			name: "extract with unknown source",
			mutate: func(f *File) {
				f.Scenarios[0].Extract = []ExtractConfig{{Name: "token", Source: "cookie"}}
			},
			errorCount: 1,
		},
		{
			name: "check with unknown kind",
			mutate: func(f *File) {
				f.Scenarios[0].Checks = []CheckConfig{{Name: "ok", Kind: "regex"}}
			},
			errorCount: 1,
		},
		{
			name: "threshold with unknown metric and operator",
			mutate: func(f *File) {
				f.Thresholds = []ThresholdConfig{{Metric: "latency", Operator: "below", Value: 1}}
			},
			errorCount: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validClosedFile()
			tt.mutate(f)
			errs := Validate(f)
			if len(errs) != tt.errorCount {
				t.Errorf("Validate() returned %d errors, want %d: %+v", len(errs), tt.errorCount, errs)
			}
		})
	}
}
