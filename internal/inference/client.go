// Package inference talks to remote perception models over HTTP.
//
// Both clients upload the crop as a multipart "file" field and decode a JSON
// response. Non-200 responses and undecodable bodies are errors; callers
// wrap them as collaborator failures.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/ironsheep/ad-template-matcher/internal/imaging"
)

// Option configures a client.
type Option func(*client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.http = hc
	}
}

// WithTimeout bounds every request. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *client) {
		c.http = &http.Client{Timeout: d}
	}
}

type client struct {
	url  string
	http *http.Client
}

func newClient(url string, opts []Option) client {
	c := client{url: url, http: &http.Client{}}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// post uploads img with extra form fields and decodes the JSON reply into out.
func (c *client) post(ctx context.Context, img image.Image, fields map[string][]string, out interface{}) error {
	data, err := imaging.EncodePNG(img)
	if err != nil {
		return fmt.Errorf("encode image: %w", err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "image.png")
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("copy image data: %w", err)
	}
	for name, values := range fields {
		for _, v := range values {
			if err := writer.WriteField(name, v); err != nil {
				return fmt.Errorf("write field %s: %w", name, err)
			}
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("inference failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// CheckHealth reports whether the model service answers GET <url>/health.
func (c *client) CheckHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(c.url, "/")+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model service unhealthy: %d", resp.StatusCode)
	}
	return nil
}
