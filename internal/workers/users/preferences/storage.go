// internal/workers/users/preferences/storage.go
package preferences

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	httpclient "primoboost-workers/internal/common/http"
)

// ObjectStorage stores resume files.
type ObjectStorage interface {
	Upload(ctx context.Context, bucket, path, contentType string, data []byte) error
	PublicURL(bucket, path string) string
	Remove(ctx context.Context, bucket string, paths []string) error
}

// StorageClient speaks the hosted storage REST API with the service key.
type StorageClient struct {
	client     *httpclient.Client
	baseURL    string
	serviceKey string
}

func NewStorageClient(baseURL, serviceKey string, timeout time.Duration) *StorageClient {
	return &StorageClient{
		client:     httpclient.NewClient(timeout),
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
	}
}

func (c *StorageClient) objectURL(bucket, path string) string {
	return fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, url.PathEscape(bucket), escapePath(path))
}

func escapePath(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

func (c *StorageClient) headers() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + c.serviceKey,
		"apikey":        c.serviceKey,
	}
}

// Upload writes data at path, replacing any existing object.
func (c *StorageClient) Upload(ctx context.Context, bucket, path, contentType string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.objectURL(bucket, path), bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	for k, v := range c.headers() {
		req.Header.Set(k, v)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Cache-Control", "max-age=3600")
	req.Header.Set("x-upsert", "true")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &httpclient.StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *StorageClient) PublicURL(bucket, path string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", c.baseURL, url.PathEscape(bucket), escapePath(path))
}

func (c *StorageClient) Remove(ctx context.Context, bucket string, paths []string) error {
	body := map[string][]string{"prefixes": paths}
	return c.client.DoJSON(ctx, http.MethodDelete,
		fmt.Sprintf("%s/storage/v1/object/%s", c.baseURL, url.PathEscape(bucket)),
		c.headers(), body, nil)
}
