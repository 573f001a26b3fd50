package transport

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultTimeout bounds a whole request, redirects included
const DefaultTimeout = 30 * time.Second

// HTTP implements Fetcher with net/http, following redirects
type HTTP struct {
	client *http.Client
}

// NewHTTP creates a fetcher with the given timeout. Zero disables the timeout.
func NewHTTP(timeout time.Duration) *HTTP {
	return &HTTP{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// NewHTTPWithClient wraps an existing client
func NewHTTPWithClient(client *http.Client) *HTTP {
	return &HTTP{client: client}
}

func (h *HTTP) Fetch(url string, auth Auth) (*Result, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	if user, pass, ok := auth.Basic(); ok {
		req.SetBasicAuth(user, pass)
	} else if value, ok := auth.Opaque(); ok {
		req.Header.Set("Authorization", value)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logrus.Debugf("Failed to close response body for %s: %v", url, err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	baseURI := url
	if resp.Request != nil && resp.Request.URL != nil {
		baseURI = resp.Request.URL.String()
	}

	logrus.Debugf("Fetched %s -> %d (%s)", url, resp.StatusCode, auth.Kind())
	return &Result{
		BaseURI:    baseURI,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       body,
	}, nil
}
