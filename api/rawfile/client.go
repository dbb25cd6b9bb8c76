// Package rawfile fetches files from raw content hosting.
package rawfile

import (
	"context"
	"io"
	"net/http"

	"github.com/typhonjs-scm/scm-compound/api/header"
	"github.com/typhonjs-scm/scm-compound/version"
)

// Client fetches raw files over HTTP.
type Client struct {
	userAgent string
	client    *http.Client
}

// NewWithHTTPClient returns a client sending requests through client. An empty
// userAgent uses version.UserAgent().
func NewWithHTTPClient(client *http.Client, userAgent string) *Client {
	if userAgent == "" {
		userAgent = version.UserAgent()
	}
	return &Client{userAgent: userAgent, client: client}
}

// Response is the status and body of a fetched file, whatever the status.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

func (c *Client) NewRequest(ctx context.Context, url string, headers http.Header) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, values := range headers {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("User-Agent", c.userAgent)
	header.Apply(req)
	return req, nil
}

// DoRequest only fails on transport errors; every HTTP status is returned as is.
func (c *Client) DoRequest(req *http.Request) (Response, error) {
	httpResp, err := c.client.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return Response{StatusCode: httpResp.StatusCode}, err
	}
	return Response{StatusCode: httpResp.StatusCode, Body: string(body)}, nil
}

// Fetch gets url with the given extra headers.
func (c *Client) Fetch(ctx context.Context, url string, headers http.Header) (Response, error) {
	req, err := c.NewRequest(ctx, url, headers)
	if err != nil {
		return Response{}, err
	}
	return c.DoRequest(req)
}
