package engine

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/arkhound/ballast/pkg/jsonpath"
)

// RequestExecutor issues a single request and reports its outcome and
// timing. Implementations never retry internally; retries are out of
// scope for the core.
type RequestExecutor interface {
	// Execute sends one request built from the given scenario, optionally
	// stamping ScheduledAtUs when scheduledAtUs >= 0 (latency correction
	// enabled). captureBody requests that the response body be retained
	// on the result for downstream checks.
	Execute(ctx context.Context, scenario *Scenario, scheduledAtUs int64, captureBody bool) RequestResult
}

// HTTPExecutorConfig configures the shared HTTP/1.1+HTTP/2 executor.
type HTTPExecutorConfig struct {
	Timeout               time.Duration
	ConnectTimeout        time.Duration
	MaxConnsPerHost       int
	MaxIdleConnsPerHost   int
	InsecureSkipVerify    bool
}

// DefaultHTTPExecutorConfig returns sane defaults, mirroring the teacher's
// DefaultHTTPClientConfig.
func DefaultHTTPExecutorConfig() HTTPExecutorConfig {
	return HTTPExecutorConfig{
		Timeout:             30 * time.Second,
		ConnectTimeout:      10 * time.Second,
		MaxConnsPerHost:     0, // unlimited, matches http.Transport zero value
		MaxIdleConnsPerHost: 100,
	}
}

// HTTPExecutor is the shipped RequestExecutor variant: plain HTTP/1.1 and
// HTTP/2 over a single shared *http.Client, sized for concurrency by the
// transport's own connection pool rather than per-worker clients.
type HTTPExecutor struct {
	client *http.Client
}

// NewHTTPExecutor builds an HTTPExecutor from config. The returned
// *http.Client is safe for concurrent use by every worker the engine
// spawns; no per-request locking is needed on top of it.
func NewHTTPExecutor(cfg HTTPExecutorConfig) *HTTPExecutor {
	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout}
	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		MaxConnsPerHost:     cfg.MaxConnsPerHost,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify},
	}
	return &HTTPExecutor{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
	}
}

// Execute implements RequestExecutor.
func (e *HTTPExecutor) Execute(ctx context.Context, scenario *Scenario, scheduledAtUs int64, captureBody bool) RequestResult {
	var result RequestResult
	if scheduledAtUs >= 0 {
		result.ScheduledAtUs = scheduledAtUs
		result.HasScheduled = true
	}

	req, err := buildHTTPRequest(ctx, scenario)
	if err != nil {
		result.HasError = true
		result.Error = ErrorOther
		return result
	}

	startedAt := time.Now()
	result.StartedAtUs = startedAt.UnixMicro()
	if result.HasScheduled {
		queue := result.StartedAtUs - result.ScheduledAtUs
		if queue < 0 {
			queue = 0
		}
		result.QueueTimeUs = queue
		result.HasQueueTime = true
	}

	resp, err := e.client.Do(req)
	result.LatencyUs = time.Since(startedAt).Microseconds()
	if err != nil {
		result.HasError = true
		result.Error = classifyError(err)
		return result
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	result.LatencyUs = time.Since(startedAt).Microseconds()
	if readErr != nil {
		result.HasError = true
		result.Error = ErrorBody
		return result
	}

	result.BytesReceived = int64(len(body))
	result.HasStatus = true
	result.Status = uint16(resp.StatusCode)
	if captureBody {
		result.Body = body
	}
	if len(scenario.Checks) > 0 {
		result.Checks = runChecks(scenario.Checks, resp, body)
	}
	return result
}

func buildHTTPRequest(ctx context.Context, scenario *Scenario) (*http.Request, error) {
	var body io.Reader
	if scenario.Body != "" {
		body = strings.NewReader(scenario.Body)
	}
	method := scenario.Method
	if method == "" {
		method = http.MethodGet
	}
	req, err := http.NewRequestWithContext(ctx, method, scenario.URL, body)
	if err != nil {
		return nil, err
	}
	for k, v := range scenario.Headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

// classifyError maps a transport-level error to an ErrorKind. This is the
// core's one admission point for external failures turning into metrics
// instead of propagated errors.
func classifyError(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ErrorDNS
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Op == "dial" {
			return ErrorConnect
		}
		msg := opErr.Error()
		if strings.Contains(msg, "connection refused") {
			return ErrorRefused
		}
		if strings.Contains(msg, "connection reset") {
			return ErrorReset
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		msg := urlErr.Error()
		switch {
		case strings.Contains(msg, "tls"), strings.Contains(msg, "x509"), strings.Contains(msg, "certificate"):
			return ErrorTLS
		case strings.Contains(msg, "connection refused"):
			return ErrorRefused
		case strings.Contains(msg, "connection reset"):
			return ErrorReset
		case strings.Contains(msg, "no such host"):
			return ErrorDNS
		}
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "tls"), strings.Contains(msg, "x509"), strings.Contains(msg, "certificate"):
		return ErrorTLS
	case strings.Contains(msg, "connection refused"):
		return ErrorRefused
	case strings.Contains(msg, "connection reset"):
		return ErrorReset
	}

	return ErrorOther
}

// runChecks evaluates a scenario's response checks. Failures never fail
// the request; they only accumulate into the result's Checks list.
func runChecks(checks []Check, resp *http.Response, body []byte) []CheckResult {
	results := make([]CheckResult, 0, len(checks))
	for _, c := range checks {
		results = append(results, evalCheck(c, resp, body))
	}
	return results
}

func evalCheck(c Check, resp *http.Response, body []byte) CheckResult {
	switch c.Kind {
	case CheckStatus:
		return CheckResult{Name: c.Name, Passed: resp.Status != "" && statusMatches(resp.StatusCode, c.Value)}
	case CheckHeader:
		return CheckResult{Name: c.Name, Passed: resp.Header.Get(c.Path) == c.Value}
	case CheckBody:
		value, err := jsonpath.Extract(string(body), c.Path)
		return CheckResult{Name: c.Name, Passed: err == nil && value == c.Value}
	case CheckSchema:
		return CheckResult{Name: c.Name, Passed: validateSchema(body, c.Value)}
	default:
		return CheckResult{Name: c.Name, Passed: false}
	}
}
