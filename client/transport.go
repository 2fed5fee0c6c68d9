package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// transport performs the JSON exchanges with the service. It makes exactly
// one attempt per call.
type transport struct {
	client      *http.Client
	userAgent   string
	maxBodySize int64
}

func newTransport(cfg config) *transport {
	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	} else if cfg.timeoutSet {
		cp := *hc
		cp.Timeout = cfg.Timeout
		hc = &cp
	}

	return &transport{
		client:      hc,
		userAgent:   cfg.UserAgent,
		maxBodySize: cfg.MaxResponseSize,
	}
}

// reply is a raw service response.
type reply struct {
	status int
	body   []byte
}

func (r reply) ok() bool {
	return r.status >= 200 && r.status < 300
}

// do sends in (if non-nil) as a JSON body and reads the response.
// Failures to exchange are returned as *TransportError.
func (t *transport) do(ctx context.Context, op, method, rawURL string, in any) (reply, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return reply{}, &TransportError{Op: op, URL: rawURL, Err: fmt.Errorf("encode request: %w", err)}
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return reply{}, &TransportError{Op: op, URL: rawURL, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", t.userAgent)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return reply{}, &TransportError{Op: op, URL: rawURL, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, t.maxBodySize+1))
	if err != nil {
		return reply{}, &TransportError{Op: op, URL: rawURL, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}
	if int64(len(respBody)) > t.maxBodySize {
		return reply{}, &TransportError{Op: op, URL: rawURL, StatusCode: resp.StatusCode, Err: fmt.Errorf("%w: limit %d bytes", ErrResponseTooLarge, t.maxBodySize)}
	}

	return reply{status: resp.StatusCode, body: respBody}, nil
}

// call performs a request and decodes a JSON reply into out.
func (t *transport) call(ctx context.Context, op, method, rawURL string, in, out any) error {
	r, err := t.do(ctx, op, method, rawURL, in)
	if err != nil {
		return err
	}
	if err := decodeReply(r, out); err != nil {
		return wrapDecodeError(op, rawURL, r, err)
	}
	return nil
}

func endpoint(base string, version APIVersion, path string) (string, error) {
	u, err := url.JoinPath(base, string(version), path)
	if err != nil {
		return "", fmt.Errorf("build %s endpoint: %w", path, err)
	}
	return u, nil
}
