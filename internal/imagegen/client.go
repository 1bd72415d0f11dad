// Package imagegen calls the hosted text/image-to-image model that renders
// interior design previews.
package imagegen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultEndpoint is the Stable Diffusion XL base model on the HF inference API.
const DefaultEndpoint = "https://api-inference.huggingface.co/models/stabilityai/stable-diffusion-xl-base-1.0"

// maxResponseBytes caps how much of an upstream body is read.
const maxResponseBytes = 20 << 20

// ErrEmptyImage is returned when there is nothing to send.
var ErrEmptyImage = errors.New("image is empty")

// UpstreamError carries a non-2xx answer from the model API verbatim.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("image generation failed: status %d", e.Status)
}

// Client talks to the model endpoint.
type Client struct {
	Endpoint string
	APIKey   string
	HTTP     *http.Client
}

// New returns a Client whose transport is traced.
func New(endpoint, apiKey string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		Endpoint: endpoint,
		APIKey:   apiKey,
		HTTP: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Generate posts the raw image and returns the generated image bytes. There
// are no retries.
func (c *Client) Generate(ctx context.Context, image []byte) ([]byte, error) {
	if len(image) == 0 {
		return nil, ErrEmptyImage
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(image))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call image api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read image api response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
