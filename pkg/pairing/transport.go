package pairing

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

const (
	// PathPairSetup is the accessory endpoint for Pair-Setup.
	PathPairSetup = "/pair-setup"

	// ContentType is the MIME type of TLV8 request and response bodies.
	ContentType = "application/pairing+tlv8"

	// maxResponseSize bounds the bytes read from one response.
	maxResponseSize = 64 << 10
)

// Transport delivers one pairing request and returns the response body.
// Implementations return a *TransportError for network failures and for
// every status other than 200.
type Transport interface {
	Post(ctx context.Context, url string, body []byte) ([]byte, error)
}

// HTTPTransport posts TLV8 bodies with net/http.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport creates a transport using client. If client is nil, a
// client limited to one connection per host is used so that all rounds of
// a session reach the accessory on the same connection.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				MaxConnsPerHost:    1,
				DisableCompression: true,
			},
		}
	}
	return &HTTPTransport{client: client}
}

// Post implements Transport.
func (t *HTTPTransport) Post(ctx context.Context, url string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	req.Header.Set("Content-Type", ContentType)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
		return nil, &TransportError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %q", resp.Status),
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return nil, &TransportError{StatusCode: resp.StatusCode, Err: err}
	}
	if len(data) > maxResponseSize {
		return nil, &TransportError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("response exceeds %d bytes", maxResponseSize),
		}
	}
	return data, nil
}
