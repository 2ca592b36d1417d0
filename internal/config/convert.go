package config

import (
	"fmt"
	"strings"

	"github.com/arkhound/ballast/internal/engine"
)

// ToLoadConfig bridges a parsed File to the engine's LoadConfig, the
// single input the Engine Facade accepts.
func ToLoadConfig(f *File) (engine.LoadConfig, error) {
	scenarios := make([]engine.Scenario, len(f.Scenarios))
	for i, s := range f.Scenarios {
		method := s.Method
		if method == "" {
			method = "GET"
		}
		weight := s.Weight
		if weight == 0 {
			weight = 1
		}

		extracts := make([]engine.Extraction, len(s.Extract))
		for j, ex := range s.Extract {
			extracts[j] = engine.Extraction{Name: ex.Name, Source: ex.Source, Path: ex.Path}
		}

		checks := make([]engine.Check, len(s.Checks))
		for j, c := range s.Checks {
			checks[j] = engine.Check{
				Name:  c.Name,
				Kind:  engine.CheckKind(c.Kind),
				Path:  c.Path,
				Value: c.Value,
			}
		}

		scenarios[i] = engine.Scenario{
			Name:    s.Name,
			URL:     s.URL,
			Method:  strings.ToUpper(method),
			Headers: s.Headers,
			Body:    s.Body,
			Weight:  weight,
			Extract: extracts,
			Checks:  checks,
		}
	}

	model, err := toModelKind(f.Model)
	if err != nil {
		return engine.LoadConfig{}, err
	}

	stages := make([]engine.RampStage, len(f.Stages))
	for i, s := range f.Stages {
		stages[i] = engine.RampStage{Duration: s.Duration.Duration(), Target: s.Target}
	}

	httpCfg := engine.DefaultHTTPExecutorConfig()
	if f.HTTP.Timeout > 0 {
		httpCfg.Timeout = f.HTTP.Timeout.Duration()
	}
	if f.HTTP.ConnectTimeout > 0 {
		httpCfg.ConnectTimeout = f.HTTP.ConnectTimeout.Duration()
	}
	if f.HTTP.MaxConnsPerHost > 0 {
		httpCfg.MaxConnsPerHost = f.HTTP.MaxConnsPerHost
	}
	if f.HTTP.MaxIdleConnsPerHost > 0 {
		httpCfg.MaxIdleConnsPerHost = f.HTTP.MaxIdleConnsPerHost
	}
	httpCfg.InsecureSkipVerify = f.HTTP.InsecureSkipVerify

	return engine.LoadConfig{
		Scenarios:          scenarios,
		Duration:           f.Duration.Duration(),
		Warmup:             f.Warmup.Duration(),
		RampUp:             f.RampUp.Duration(),
		MaxRequests:        f.MaxRequests,
		ThinkTime:          f.ThinkTime.Duration(),
		Model:              model,
		Concurrency:        f.Concurrency,
		ArrivalRate:        f.ArrivalRate,
		MaxVUs:             f.MaxVUs,
		PreAllocatedVUs:    f.PreAllocatedVUs,
		StrictPool:         f.StrictPool,
		Stages:             stages,
		BurstRate:          f.BurstRate,
		BurstDelay:         f.BurstDelay.Duration(),
		LatencyCorrection:  f.LatencyCorrection,
		HTTPExecutorConfig: httpCfg,
	}, nil
}

func toModelKind(model string) (engine.LoadModelKind, error) {
	switch model {
	case "closed":
		return engine.ModelClosed, nil
	case "open":
		return engine.ModelOpen, nil
	case "ramping-open":
		return engine.ModelRampingOpen, nil
	case "burst":
		return engine.ModelBurst, nil
	default:
		return "", fmt.Errorf("config: unknown model %q", model)
	}
}

// ToThresholds bridges the File's declarative thresholds to the engine's
// Threshold slice the evaluator consumes.
func ToThresholds(f *File) []engine.Threshold {
	out := make([]engine.Threshold, len(f.Thresholds))
	for i, t := range f.Thresholds {
		out[i] = engine.Threshold{
			Metric:   engine.ThresholdMetric(t.Metric),
			Operator: engine.ThresholdOperator(t.Operator),
			Value:    t.Value,
		}
	}
	return out
}
