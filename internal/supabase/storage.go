package supabase

import (
	"context"
	"fmt"
	"net/url"
)

// StorageClient talks to the platform's blob store.
type StorageClient struct {
	client *Client
}

// Upload stores data under bucket/path. The object is created, not replaced:
// upload names are collision-resistant, so an existing object means a caller
// bug and surfaces as an error.
func (s *StorageClient) Upload(ctx context.Context, accessToken, bucket, path string, data []byte, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	u := fmt.Sprintf("%s/object/%s/%s", s.client.storageURL, url.PathEscape(bucket), url.PathEscape(path))
	headers := map[string]string{
		"Content-Type":  contentType,
		"Cache-Control": "max-age=3600",
	}

	resp, err := s.client.request(ctx, "POST", u, data, headers, accessToken)
	if err != nil {
		return err
	}
	if resp.status >= 400 {
		return parseError(resp.body, resp.status)
	}
	return nil
}

// PublicURL returns the public URL for an object in a public bucket. No
// network call is made; the platform serves public objects directly.
func (s *StorageClient) PublicURL(bucket, path string) string {
	return fmt.Sprintf("%s/object/public/%s/%s", s.client.storageURL, url.PathEscape(bucket), url.PathEscape(path))
}
