package capability

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Network performs the HTTP side of "the result of fetching url" and
// "the result of posting payload to url". Bodies come back as raw text;
// the caller decides whether they parse as JSON.
type Network interface {
	Get(url string) (string, error)
	Post(url string, jsonBody []byte) (string, error)
}

type httpNetwork struct {
	client *http.Client
}

// NewHTTPNetwork returns a Network backed by a shared http.Client with a
// sane timeout.
func NewHTTPNetwork() Network {
	return &httpNetwork{client: &http.Client{Timeout: 30 * time.Second}}
}

func (n *httpNetwork) Get(url string) (string, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	return n.do(req)
}

func (n *httpNetwork) Post(url string, jsonBody []byte) (string, error) {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Content-Type", "application/json")
	return n.do(req)
}

func (n *httpNetwork) do(req *http.Request) (string, error) {
	resp, err := n.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response from %s: %w", req.URL, err)
	}
	return string(body), nil
}
