package storage

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

// SupabaseStorage talks to the Supabase Storage REST API directly. Objects
// are addressed as bucket/key and exposed through public URLs.
type SupabaseStorage struct {
	URL            string
	ServiceRoleKey string
	client         *http.Client
}

func NewSupabaseStorage(url, serviceRoleKey string) *SupabaseStorage {
	return &SupabaseStorage{
		URL:            url,
		ServiceRoleKey: serviceRoleKey,
		client:         &http.Client{},
	}
}

// Upload stores an object under bucket/key and returns its public URL.
// Uploading to an existing key overwrites it (x-upsert), which is what the
// deterministic profile-picture keys rely on.
func (s *SupabaseStorage) Upload(bucket, key, contentType string, body io.Reader) (string, error) {
	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.URL, bucket, key)
	req, err := http.NewRequest(http.MethodPost, url, body)
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.ServiceRoleKey)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "true")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.URL, bucket, key), nil
}

// Delete removes the object behind a public URL previously returned by
// Upload.
func (s *SupabaseStorage) Delete(publicURL string) error {
	bucket, key, err := s.parsePublicURL(publicURL)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.URL, bucket, key)
	req, err := http.NewRequest(http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create delete request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.ServiceRoleKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("delete failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

func (s *SupabaseStorage) parsePublicURL(publicURL string) (bucket, key string, err error) {
	prefix := s.URL + "/storage/v1/object/public/"
	if !strings.HasPrefix(publicURL, prefix) {
		return "", "", fmt.Errorf("url %q does not belong to this storage", publicURL)
	}
	rest := strings.TrimPrefix(publicURL, prefix)
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("url %q has no bucket/key path", publicURL)
	}
	return parts[0], parts[1], nil
}
