// Package transport issues JSON requests to the backend services and turns failures into tagged errors.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/movie-mate/internal/errs"
	"github.com/and161185/movie-mate/internal/logger"
	"github.com/and161185/movie-mate/internal/metrics"
)

// Request is a fully prepared call; Body is already serialised so it can be resent.
type Request struct {
	Service string // metrics/log label, e.g. "movies"
	Method  string
	URL     string
	Header  http.Header
	Body    []byte
}

// Caller performs one logical call and decodes a success body into out.
type Caller interface {
	Do(ctx context.Context, req Request, out any) error
}

// Doer is the subset of *http.Client used by Executor.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Executor sends a single request with no retries.
type Executor struct {
	client    Doer
	log       *zap.Logger
	metrics   *metrics.Metrics
	userAgent string
}

var _ Caller = (*Executor)(nil)

// NewHTTPClient returns a client bounded by timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// NewExecutor constructs an Executor. log and m may be nil.
func NewExecutor(client Doer, log *zap.Logger, m *metrics.Metrics, userAgent string) *Executor {
	return &Executor{client: client, log: logger.OrNop(log), metrics: m, userAgent: userAgent}
}

// Do sends req and decodes the JSON response into out (out may be nil).
func (e *Executor) Do(ctx context.Context, req Request, out any) error {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	hreq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return errs.NewNetwork(0, "build request", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			hreq.Header.Add(k, v)
		}
	}
	hreq.Header.Set("Accept", "application/json")
	if req.Body != nil && hreq.Header.Get("Content-Type") == "" {
		hreq.Header.Set("Content-Type", "application/json")
	}
	if e.userAgent != "" {
		hreq.Header.Set("User-Agent", e.userAgent)
	}
	if hreq.Header.Get("X-Request-Id") == "" {
		hreq.Header.Set("X-Request-Id", uuid.Must(uuid.NewV4()).String())
	}

	start := time.Now()
	resp, err := e.client.Do(hreq)
	if err != nil {
		e.metrics.ObserveRequest(req.Service, req.Method, 0, start)
		e.log.Debug("api call failed",
			zap.String("service", req.Service),
			zap.String("method", req.Method),
			zap.String("path", pathOf(req.URL)),
			zap.Duration("dur", time.Since(start)),
			zap.Error(err),
		)
		return errs.NewNetwork(0, "", err)
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(resp.Body)
	e.metrics.ObserveRequest(req.Service, req.Method, resp.StatusCode, start)
	// metadata only, never bodies or headers
	e.log.Debug("api call",
		zap.String("service", req.Service),
		zap.String("method", req.Method),
		zap.String("path", pathOf(req.URL)),
		zap.Int("status", resp.StatusCode),
		zap.Duration("dur", time.Since(start)),
	)

	return decode(resp, raw, readErr, out)
}

func decode(resp *http.Response, raw []byte, readErr error, out any) error {
	success := resp.StatusCode >= 200 && resp.StatusCode < 300
	text := statusText(resp)

	var parsed any
	parseErr := readErr
	if parseErr == nil {
		parseErr = json.Unmarshal(raw, &parsed)
	}
	if parseErr != nil {
		if !success {
			return errs.NewNetwork(resp.StatusCode, text, readErr)
		}
		// void endpoints answer with no body
		return nil
	}

	if !success {
		obj, _ := parsed.(map[string]any)
		_, hasUser := obj["userMessage"]
		_, hasMsg := obj["message"]
		switch {
		case hasUser && hasMsg:
			return errs.NewAPI(resp.StatusCode, apiDetails(obj))
		case hasMsg:
			if msg, _ := obj["message"].(string); msg != "" {
				return errs.NewGeneric(resp.StatusCode, msg)
			}
		}
		return errs.NewGeneric(resp.StatusCode, text)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errs.NewNetwork(resp.StatusCode, "unexpected response shape", err)
	}
	return nil
}

func apiDetails(obj map[string]any) errs.APIDetails {
	str := func(k string) string {
		s, _ := obj[k].(string)
		return s
	}
	code := 0
	for _, k := range []string{"errorCode", "code"} {
		switch v := obj[k].(type) {
		case float64:
			code = int(v)
		case string:
			code, _ = strconv.Atoi(v)
		}
		if code != 0 {
			break
		}
	}
	var suggestions []string
	if list, ok := obj["suggestions"].([]any); ok {
		for _, s := range list {
			if v, ok := s.(string); ok {
				suggestions = append(suggestions, v)
			}
		}
	}
	return errs.APIDetails{
		Code:        code,
		Name:        str("errorName"),
		Message:     str("message"),
		UserMessage: str("userMessage"),
		Timestamp:   str("timestamp"),
		Path:        str("path"),
		Method:      str("method"),
		CausedBy:    str("causedBy"),
		Suggestions: suggestions,
	}
}

func statusText(resp *http.Response) string {
	if t := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode))); t != "" {
		return t
	}
	if t := http.StatusText(resp.StatusCode); t != "" {
		return t
	}
	return "Unknown error"
}

func pathOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Path
}
