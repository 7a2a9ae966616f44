// Package netx probes external endpoints on behalf of users checking whether
// their sources are reachable.
package netx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds every outbound probe.
const DefaultTimeout = 10 * time.Second

// maxResponseBody caps how much of a forwarded response is read back.
const maxResponseBody = 1 << 20

// Prober performs outbound HTTP checks.
type Prober struct {
	client *http.Client
}

// NewProber returns a Prober using client, or a client with DefaultTimeout
// when client is nil.
func NewProber(client *http.Client) *Prober {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &Prober{client: client}
}

// Probe issues a GET to rawURL and returns the response status code. Any
// transport failure or malformed URL is returned as an error.
func (p *Prober) Probe(ctx context.Context, rawURL string) (int, error) {
	u, err := parseHTTPURL(rawURL)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBody))
	return resp.StatusCode, nil
}

// Active reports whether rawURL answers with a non-error status.
func (p *Prober) Active(ctx context.Context, rawURL string) bool {
	code, err := p.Probe(ctx, rawURL)
	return err == nil && code < http.StatusBadRequest
}

// ForwardRequest describes a request relayed by Forward.
type ForwardRequest struct {
	URL    string
	Method string
	Body   any
	Params map[string]string
}

// ForwardResult is the relayed response; Response holds decoded JSON when the
// body is JSON and the raw text otherwise.
type ForwardResult struct {
	Status   int
	Response any
}

// Forward sends fr and returns the upstream status and body. Only GET and
// POST are supported.
func (p *Prober) Forward(ctx context.Context, fr ForwardRequest) (*ForwardResult, error) {
	u, err := parseHTTPURL(fr.URL)
	if err != nil {
		return nil, err
	}
	if len(fr.Params) > 0 {
		q := u.Query()
		for k, v := range fr.Params {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}

	method := strings.ToUpper(strings.TrimSpace(fr.Method))
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	switch method {
	case http.MethodGet:
	case http.MethodPost:
		if fr.Body != nil {
			b, err := json.Marshal(fr.Body)
			if err != nil {
				return nil, fmt.Errorf("encode body: %w", err)
			}
			body = bytes.NewReader(b)
		}
	default:
		return nil, fmt.Errorf("unsupported method %q", fr.Method)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, err
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		decoded = string(raw)
	}
	return &ForwardResult{Status: resp.StatusCode, Response: decoded}, nil
}

func parseHTTPURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("missing host in %q", rawURL)
	}
	return u, nil
}
