package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/NattapongPailom/THANATHEPLAW-firm/pkg/jailer"
)

// ObjectStore is the upload-bytes-returns-URL contract of the managed
// object storage, plus retrieval for the vault download path.
type ObjectStore interface {
	Upload(ctx context.Context, name, contentType string, data []byte) (string, error)
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// BlobClient is the hosted object storage backend.
type BlobClient struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewBlobClient creates an object storage client.
func NewBlobClient(baseURL, token string) *BlobClient {
	return &BlobClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		// Uploads carry up to 50 MB, so this client gets a longer
		// deadline than the other providers.
		http: &http.Client{Timeout: 60 * time.Second},
	}
}

// Upload stores data under name and returns the public URL the provider
// assigned.
func (c *BlobClient) Upload(ctx context.Context, name, contentType string, data []byte) (string, error) {
	endpoint := c.baseURL + "/o/" + url.PathEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", transportError("blob", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", statusError("blob", resp.StatusCode)
	}

	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode blob response: %w", err)
	}
	if body.URL == "" {
		return "", fmt.Errorf("blob: upload returned no url")
	}
	return body.URL, nil
}

// Fetch retrieves previously uploaded bytes.
func (c *BlobClient) Fetch(ctx context.Context, name string) ([]byte, error) {
	endpoint := c.baseURL + "/o/" + url.PathEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError("blob", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, statusError("blob", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// LocalBlobStore keeps vault files on local disk inside a sandboxed root.
// It is the fallback when no object storage credentials are configured, so
// a development instance still has a working vault.
type LocalBlobStore struct {
	jail *jailer.Resolver
}

// NewLocalBlobStore creates a disk-backed store rooted at root.
func NewLocalBlobStore(root string) (*LocalBlobStore, error) {
	jail, err := jailer.New(root)
	if err != nil {
		return nil, err
	}
	if _, err := jail.EnsureDir("vault"); err != nil {
		return nil, err
	}
	return &LocalBlobStore{jail: jail}, nil
}

// Upload writes data under the sandboxed vault directory. The returned URL
// uses the vault scheme; the download handler resolves it back to bytes.
func (s *LocalBlobStore) Upload(_ context.Context, name, _ string, data []byte) (string, error) {
	rel := "vault/" + name
	if _, err := s.jail.WriteFile(rel, bytes.NewReader(data), int64(len(data))); err != nil {
		return "", err
	}
	return "vault://" + name, nil
}

// Fetch reads a file previously written by Upload.
func (s *LocalBlobStore) Fetch(_ context.Context, name string) ([]byte, error) {
	f, err := s.jail.OpenSafe("vault/" + name)
	if err != nil {
		return nil, fmt.Errorf("vault file: %w", ErrNotFound)
	}
	defer f.Close()
	return io.ReadAll(f)
}
