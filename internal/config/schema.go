// Package config loads and validates the YAML document that drives a run:
// scenarios, the load model, thresholds, and HTTP client settings.
package config

import "time"

// File is the root of a load test definition.
//
// Example:
//
//	name: checkout-load
//	model: open
//	duration: 2m
//	arrivalRate: 100
//	maxVUs: 50
//	scenarios:
//	  - name: get-home
//	    url: "${BASE_URL:-http://localhost:8080}/"
//	    weight: 1
type File struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description,omitempty"`
	Variables   map[string]string `yaml:"variables,omitempty"`

	Duration Duration `yaml:"duration"`
	Warmup   Duration `yaml:"warmup,omitempty"`
	RampUp   Duration `yaml:"rampUp,omitempty"`

	MaxRequests int64    `yaml:"maxRequests,omitempty"`
	ThinkTime   Duration `yaml:"thinkTime,omitempty"`

	// Model selects the load model: "closed", "open", "ramping-open", "burst".
	Model string `yaml:"model"`

	// Closed model
	Concurrency int `yaml:"concurrency,omitempty"`

	// Open / Ramping Open / Burst models
	ArrivalRate     float64       `yaml:"arrivalRate,omitempty"`
	MaxVUs          int           `yaml:"maxVUs,omitempty"`
	PreAllocatedVUs int           `yaml:"preAllocatedVUs,omitempty"`
	StrictPool      bool          `yaml:"strictPool,omitempty"`
	Stages          []StageConfig `yaml:"stages,omitempty"`
	BurstRate       int           `yaml:"burstRate,omitempty"`
	BurstDelay      Duration      `yaml:"burstDelay,omitempty"`

	LatencyCorrection bool `yaml:"latencyCorrection,omitempty"`

	HTTP HTTPConfig `yaml:"http,omitempty"`

	Scenarios  []ScenarioConfig  `yaml:"scenarios"`
	Thresholds []ThresholdConfig `yaml:"thresholds,omitempty"`
}

// StageConfig is one leg of a ramping-open load's piecewise-linear rate
// schedule.
type StageConfig struct {
	Duration Duration `yaml:"duration"`
	Target   float64  `yaml:"target"`
}

// HTTPConfig controls the shared HTTP client/transport.
type HTTPConfig struct {
	Timeout             Duration `yaml:"timeout,omitempty"`
	ConnectTimeout      Duration `yaml:"connectTimeout,omitempty"`
	MaxConnsPerHost     int      `yaml:"maxConnsPerHost,omitempty"`
	MaxIdleConnsPerHost int      `yaml:"maxIdleConnsPerHost,omitempty"`
	InsecureSkipVerify  bool     `yaml:"insecureSkipVerify,omitempty"`
}

// ScenarioConfig is one weighted request template.
type ScenarioConfig struct {
	Name    string            `yaml:"name"`
	URL     string            `yaml:"url"`
	Method  string            `yaml:"method,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Body    string            `yaml:"body,omitempty"`
	Weight  uint32            `yaml:"weight,omitempty"`

	Extract []ExtractConfig `yaml:"extract,omitempty"`
	Checks  []CheckConfig   `yaml:"checks,omitempty"`
}

// ExtractConfig pulls a variable out of a response for later interpolation.
type ExtractConfig struct {
	Name   string `yaml:"name"`
	Source string `yaml:"source"` // "body", "header", "status"
	Path   string `yaml:"path,omitempty"`
}

// CheckConfig is a named response assertion.
type CheckConfig struct {
	Name  string `yaml:"name"`
	Kind  string `yaml:"kind"` // "status", "header", "body", "schema"
	Path  string `yaml:"path,omitempty"`
	Value string `yaml:"value,omitempty"`
}

// ThresholdConfig is a declarative pass/fail predicate given as three
// fields, e.g. metric: p95_latency_ms, operator: lt, value: 200.
type ThresholdConfig struct {
	Metric   string  `yaml:"metric"`
	Operator string  `yaml:"operator"`
	Value    float64 `yaml:"value"`
}

// Duration is a time.Duration that unmarshals from Go duration strings
// ("30s", "2m") since YAML has no native duration type.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d Duration) Duration() time.Duration { return time.Duration(d) }
