package scm

import (
	"net/http"
	"time"
)

// DebugTransport logs every request with its status and duration.
type DebugTransport struct {
	Base http.RoundTripper
	Logf func(format string, args ...interface{})
}

func (t *DebugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	start := time.Now()
	resp, err := base.RoundTrip(req)
	if err != nil {
		t.Logf("%s %s failed after %s: %v", req.Method, req.URL.Redacted(), time.Since(start).Round(time.Millisecond), err)
		return nil, err
	}
	t.Logf("%s %s -> %d (%s)", req.Method, req.URL.Redacted(), resp.StatusCode, time.Since(start).Round(time.Millisecond))
	return resp, nil
}
