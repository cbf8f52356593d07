package health

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/magsasa-card/opsctl/internal/observability"
)

var (
	ErrInvalidTarget = errors.New("health: invalid target url")
	ErrNeverHealthy  = errors.New("health: target never reported healthy")
)

// maxBodyBytes caps how much of a probe response is read. Health payloads
// are small; anything larger is not the endpoint we are looking for.
const maxBodyBytes = 1 << 20

// CheckerConfig tunes probe behavior. Zero values fall back to the
// deployment contract defaults: 30s request timeout, 3 attempts, 5s retry
// delay.
type CheckerConfig struct {
	Timeout    time.Duration
	Attempts   int
	RetryDelay time.Duration
	Client     *http.Client
}

// Checker probes one deployment target and produces a classified report.
type Checker struct {
	timeout    time.Duration
	attempts   int
	retryDelay time.Duration
	client     *http.Client
	lookupHost func(ctx context.Context, host string) ([]string, error)
}

// NewChecker builds a checker with contract defaults applied.
func NewChecker(cfg CheckerConfig) *Checker {
	c := &Checker{
		timeout:    cfg.Timeout,
		attempts:   cfg.Attempts,
		retryDelay: cfg.RetryDelay,
		client:     cfg.Client,
	}
	if c.timeout <= 0 {
		c.timeout = 30 * time.Second
	}
	if c.attempts < 1 {
		c.attempts = 3
	}
	if c.retryDelay <= 0 {
		c.retryDelay = 5 * time.Second
	}
	if c.client == nil {
		c.client = &http.Client{}
	}
	c.lookupHost = func(ctx context.Context, host string) ([]string, error) {
		return net.DefaultResolver.LookupHost(ctx, host)
	}
	return c
}

// healthBody is the JSON shape the health convention promises: a status
// field always, service/version when the full endpoint responds.
type healthBody struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// Check runs all probes against target and classifies the combined result.
// A target that cannot be parsed or resolved is unknown before any probe
// runs; everything else gets the full three-probe treatment.
func (c *Checker) Check(ctx context.Context, target string) Report {
	report := Report{
		TargetURL: target,
		CheckedAt: time.Now().UTC(),
		Class:     ClassUnknown,
	}

	base, err := c.normalizeTarget(ctx, target)
	if err != nil {
		log.Warn().Str("target", target).Err(err).Msg("health check target unresolvable")
		report.Probes = []ProbeResult{{
			Name:  ProbeHealthEndpoint,
			Error: err.Error(),
		}}
		return report
	}

	healthRes := c.probeHealth(ctx, base, &report)
	rootRes := c.probeRoot(ctx, base)
	certRes := c.probeCertificate(ctx, base)

	report.Probes = []ProbeResult{healthRes, rootRes, certRes}
	report.Class = Classify(healthRes, rootRes, certRes)
	return report
}

// WaitHealthy re-runs Check until the target classifies healthy or the
// attempt budget is exhausted. The last report is always returned.
func (c *Checker) WaitHealthy(ctx context.Context, target string, attempts int, delay time.Duration) (Report, error) {
	if attempts < 1 {
		attempts = 1
	}
	var report Report
	for attempt := 1; attempt <= attempts; attempt++ {
		report = c.Check(ctx, target)
		if report.Class == ClassHealthy {
			return report, nil
		}
		log.Warn().
			Str("target", target).
			Str("classification", string(report.Class)).
			Int("attempt", attempt).
			Int("attempts", attempts).
			Msg("target not healthy yet")
		if attempt < attempts {
			if err := c.wait(ctx, delay); err != nil {
				return report, err
			}
		}
	}
	return report, fmt.Errorf("%w: %s after %d attempts", ErrNeverHealthy, report.Class, attempts)
}

func (c *Checker) normalizeTarget(ctx context.Context, target string) (*url.URL, error) {
	raw := strings.TrimSpace(target)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidTarget)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTarget, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidTarget, u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidTarget)
	}
	if net.ParseIP(host) == nil {
		if _, err := c.lookupHost(ctx, host); err != nil {
			return nil, fmt.Errorf("%w: resolve host %q: %v", ErrInvalidTarget, host, err)
		}
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

// probeHealth tries /api/health first and falls back to /health, retrying
// the pair up to the attempt budget. Service identity from the response
// body is copied onto the report.
func (c *Checker) probeHealth(ctx context.Context, base *url.URL, report *Report) ProbeResult {
	result := ProbeResult{Name: ProbeHealthEndpoint}
	paths := []string{"/api/health", "/health"}

	var lastErr string
	for attempt := 1; attempt <= c.attempts; attempt++ {
		result.Attempts = attempt
		for _, path := range paths {
			status, body, latency, err := c.get(ctx, base.JoinPath(path).String())
			result.LatencyMS = latency.Milliseconds()
			if err != nil {
				lastErr = err.Error()
				continue
			}
			result.StatusCode = status
			if status == http.StatusNotFound {
				lastErr = fmt.Sprintf("%s returned 404", path)
				continue
			}
			if status != http.StatusOK {
				lastErr = fmt.Sprintf("%s returned %d", path, status)
				continue
			}
			var payload healthBody
			if err := json.Unmarshal(body, &payload); err != nil {
				lastErr = fmt.Sprintf("%s returned non-JSON body", path)
				continue
			}
			if strings.TrimSpace(payload.Status) == "" {
				lastErr = fmt.Sprintf("%s response missing status field", path)
				continue
			}
			result.OK = true
			result.Detail = fmt.Sprintf("%s status=%s", path, payload.Status)
			report.Service = payload.Service
			report.Version = payload.Version
			observability.RecordProbe(result.Name, true, latency)
			return result
		}
		if attempt < c.attempts {
			delay := NextRetryDelay(BackoffConfig{InitialDelay: c.retryDelay, Multiplier: 1.0}, attempt+1, nil)
			if err := c.wait(ctx, delay); err != nil {
				lastErr = err.Error()
				break
			}
		}
	}
	result.Error = lastErr
	observability.RecordProbe(result.Name, false, 0)
	return result
}

// probeRoot verifies the site root answers without a server error.
func (c *Checker) probeRoot(ctx context.Context, base *url.URL) ProbeResult {
	result := ProbeResult{Name: ProbeRootEndpoint}

	var lastErr string
	for attempt := 1; attempt <= c.attempts; attempt++ {
		result.Attempts = attempt
		status, _, latency, err := c.get(ctx, base.JoinPath("/").String())
		result.LatencyMS = latency.Milliseconds()
		if err == nil {
			result.StatusCode = status
			if status >= 200 && status < 400 {
				result.OK = true
				result.Detail = fmt.Sprintf("root returned %d", status)
				observability.RecordProbe(result.Name, true, latency)
				return result
			}
			lastErr = fmt.Sprintf("root returned %d", status)
		} else {
			lastErr = err.Error()
		}
		if attempt < c.attempts {
			delay := NextRetryDelay(BackoffConfig{InitialDelay: c.retryDelay, Multiplier: 1.0}, attempt+1, nil)
			if err := c.wait(ctx, delay); err != nil {
				lastErr = err.Error()
				break
			}
		}
	}
	result.Error = lastErr
	observability.RecordProbe(result.Name, false, 0)
	return result
}

// probeCertificate confirms the target serves HTTPS with a certificate
// valid right now. Plain-http targets fail this probe without retries.
func (c *Checker) probeCertificate(ctx context.Context, base *url.URL) ProbeResult {
	result := ProbeResult{Name: ProbeTLSCertificate, Attempts: 1}
	if base.Scheme != "https" {
		result.Error = "target is not served over https"
		observability.RecordProbe(result.Name, false, 0)
		return result
	}

	var lastErr string
	for attempt := 1; attempt <= c.attempts; attempt++ {
		result.Attempts = attempt
		state, latency, err := c.tlsState(ctx, base.JoinPath("/").String())
		result.LatencyMS = latency.Milliseconds()
		if err == nil {
			if len(state.PeerCertificates) == 0 {
				lastErr = "no peer certificates presented"
			} else {
				leaf := state.PeerCertificates[0]
				now := time.Now()
				if now.Before(leaf.NotBefore) || now.After(leaf.NotAfter) {
					lastErr = fmt.Sprintf("certificate outside validity window, expires %s", leaf.NotAfter.Format(time.RFC3339))
				} else {
					result.OK = true
					result.Detail = fmt.Sprintf("certificate valid until %s", leaf.NotAfter.Format(time.RFC3339))
					observability.RecordProbe(result.Name, true, latency)
					return result
				}
			}
		} else {
			lastErr = err.Error()
		}
		if attempt < c.attempts {
			delay := NextRetryDelay(BackoffConfig{InitialDelay: c.retryDelay, Multiplier: 1.0}, attempt+1, nil)
			if err := c.wait(ctx, delay); err != nil {
				lastErr = err.Error()
				break
			}
		}
	}
	result.Error = lastErr
	observability.RecordProbe(result.Name, false, 0)
	return result
}

func (c *Checker) get(ctx context.Context, rawURL string) (int, []byte, time.Duration, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, nil, 0, err
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return 0, nil, latency, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, latency, err
	}
	return resp.StatusCode, body, latency, nil
}

func (c *Checker) tlsState(ctx context.Context, rawURL string) (*tls.ConnectionState, time.Duration, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, err
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return nil, latency, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))

	if resp.TLS == nil {
		return nil, latency, errors.New("connection did not negotiate TLS")
	}
	return resp.TLS, latency, nil
}

func (c *Checker) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
