package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"time"

	"github.com/fieldops/pdvstamp/internal/watermark"
)

// Client forwards processed photos to the console's upload endpoint
type Client struct {
	Endpoint   string
	Token      string
	FileField  string
	HTTPClient *http.Client
}

// NewClient creates a client for endpoint
func NewClient(endpoint, token string) *Client {
	return &Client{
		Endpoint:  endpoint,
		Token:     token,
		FileField: "file",
		HTTPClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// NewClientFromEnv reads PDVSTAMP_UPLOAD_URL and PDVSTAMP_UPLOAD_TOKEN.
// It returns nil when no endpoint is configured.
func NewClientFromEnv() *Client {
	endpoint := os.Getenv("PDVSTAMP_UPLOAD_URL")
	if endpoint == "" {
		return nil
	}
	return NewClient(endpoint, os.Getenv("PDVSTAMP_UPLOAD_TOKEN"))
}

// Send posts img as multipart form data together with fields.
// A non-2xx response is an error; nothing is retried.
func (c *Client) Send(ctx context.Context, img *watermark.ProcessedImage, fields map[string]string) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return fmt.Errorf("failed to write field %s: %w", key, err)
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, c.FileField, img.Filename))
	header.Set("Content-Type", img.Format.MIMEType())
	part, err := writer.CreatePart(header)
	if err != nil {
		return fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := part.Write(img.Data); err != nil {
		return fmt.Errorf("failed to write file part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, &body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to upload image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("upload endpoint returned status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	slog.Info("Image uploaded", "filename", img.Filename, "endpoint", c.Endpoint, "status", resp.StatusCode)
	return nil
}
