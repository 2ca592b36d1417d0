package config

import (
	"fmt"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Path    string
	Message string
}

// Error returns the error message
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

var validModels = map[string]bool{
	"closed":       true,
	"open":         true,
	"ramping-open": true,
	"burst":        true,
}

var validThresholdMetrics = map[string]bool{
	"p50_latency_ms": true, "p75_latency_ms": true, "p90_latency_ms": true,
	"p95_latency_ms": true, "p99_latency_ms": true, "p999_latency_ms": true,
	"mean_latency_ms": true, "max_latency_ms": true,
	"error_rate": true, "rps": true, "check_pass_rate": true,
}

var validThresholdOperators = map[string]bool{
	"lt": true, "le": true, "gt": true, "ge": true, "eq": true, "ne": true,
}

var validExtractSources = map[string]bool{"body": true, "header": true, "status": true}
var validCheckKinds = map[string]bool{"status": true, "header": true, "body": true, "schema": true}

// Validate checks a File for structural and cross-referential errors,
// accumulating every problem it finds rather than stopping at the first.
func Validate(f *File) []ValidationError {
	var errors []ValidationError

	if f.Name == "" {
		errors = append(errors, ValidationError{Path: "name", Message: "name is required"})
	}

	if f.Duration <= 0 {
		errors = append(errors, ValidationError{Path: "duration", Message: "duration must be greater than zero"})
	}

	if f.Model == "" {
		errors = append(errors, ValidationError{Path: "model", Message: "model is required"})
	} else if !validModels[f.Model] {
		errors = append(errors, ValidationError{
			Path:    "model",
			Message: fmt.Sprintf("unknown model: %s (want closed, open, ramping-open, or burst)", f.Model),
		})
	}

	switch f.Model {
	case "closed":
		if f.Concurrency <= 0 {
			errors = append(errors, ValidationError{Path: "concurrency", Message: "concurrency must be greater than zero for the closed model"})
		}
	case "open":
		if f.ArrivalRate <= 0 {
			errors = append(errors, ValidationError{Path: "arrivalRate", Message: "arrivalRate must be greater than zero for the open model"})
		}
		if f.MaxVUs <= 0 {
			errors = append(errors, ValidationError{Path: "maxVUs", Message: "maxVUs must be greater than zero for the open model"})
		}
	case "ramping-open":
		if len(f.Stages) == 0 {
			errors = append(errors, ValidationError{Path: "stages", Message: "at least one stage is required for the ramping-open model"})
		}
		if f.MaxVUs <= 0 {
			errors = append(errors, ValidationError{Path: "maxVUs", Message: "maxVUs must be greater than zero for the ramping-open model"})
		}
		for i, stage := range f.Stages {
			if stage.Duration <= 0 {
				errors = append(errors, ValidationError{
					Path:    fmt.Sprintf("stages[%d].duration", i),
					Message: "stage duration must be greater than zero",
				})
			}
			if stage.Target < 0 {
				errors = append(errors, ValidationError{
					Path:    fmt.Sprintf("stages[%d].target", i),
					Message: "stage target cannot be negative",
				})
			}
		}
	case "burst":
		if f.BurstRate <= 0 {
			errors = append(errors, ValidationError{Path: "burstRate", Message: "burstRate must be greater than zero for the burst model"})
		}
		if f.BurstDelay <= 0 {
			errors = append(errors, ValidationError{Path: "burstDelay", Message: "burstDelay must be greater than zero for the burst model"})
		}
		if f.MaxVUs <= 0 {
			errors = append(errors, ValidationError{Path: "maxVUs", Message: "maxVUs must be greater than zero for the burst model"})
		}
	}

	if len(f.Scenarios) == 0 {
		errors = append(errors, ValidationError{Path: "scenarios", Message: "at least one scenario is required"})
	}

	for i, s := range f.Scenarios {
		path := fmt.Sprintf("scenarios[%d]", i)
		if s.Name == "" {
			errors = append(errors, ValidationError{Path: path + ".name", Message: "name is required"})
		}
		if s.URL == "" {
			errors = append(errors, ValidationError{Path: path + ".url", Message: "url is required"})
		}
		for j, ex := range s.Extract {
			exPath := fmt.Sprintf("%s.extract[%d]", path, j)
			if ex.Name == "" {
				errors = append(errors, ValidationError{Path: exPath + ".name", Message: "name is required"})
			}
			if !validExtractSources[ex.Source] {
				errors = append(errors, ValidationError{
					Path:    exPath + ".source",
					Message: fmt.Sprintf("unknown source: %s (want body, header, or status)", ex.Source),
				})
			}
		}
		for j, c := range s.Checks {
			cPath := fmt.Sprintf("%s.checks[%d]", path, j)
			if c.Name == "" {
				errors = append(errors, ValidationError{Path: cPath + ".name", Message: "name is required"})
			}
			if !validCheckKinds[c.Kind] {
				errors = append(errors, ValidationError{
					Path:    cPath + ".kind",
					Message: fmt.Sprintf("unknown kind: %s (want status, header, body, or schema)", c.Kind),
				})
			}
		}
	}

	for i, th := range f.Thresholds {
		path := fmt.Sprintf("thresholds[%d]", i)
		if !validThresholdMetrics[th.Metric] {
			errors = append(errors, ValidationError{
				Path:    path + ".metric",
				Message: fmt.Sprintf("unknown metric: %s", th.Metric),
			})
		}
		if !validThresholdOperators[th.Operator] {
			errors = append(errors, ValidationError{
				Path:    path + ".operator",
				Message: fmt.Sprintf("unknown operator: %s (want lt, le, gt, ge, eq, or ne)", th.Operator),
			})
		}
	}

	return errors
}
