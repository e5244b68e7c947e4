// Package jailer confines vault file access to a single directory tree.
// Every path the vault touches goes through a Resolver, so a crafted file
// name can never reach outside the storage root.
package jailer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Resolver enforces sandboxed path access under a fixed root.
type Resolver struct {
	root string
}

// New creates a Resolver rooted at root.
func New(root string) (*Resolver, error) {
	if root == "" {
		return nil, errors.New("root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return &Resolver{root: abs}, nil
}

// Resolve returns an absolute path inside the root, rejecting absolute
// inputs and traversal.
func (r *Resolver) Resolve(rel string) (string, error) {
	if strings.HasPrefix(rel, "/") {
		return "", fmt.Errorf("absolute paths are not allowed")
	}
	cleaned := filepath.Clean(rel)
	full := filepath.Join(r.root, cleaned)
	if full != r.root && !strings.HasPrefix(full, r.root+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes storage root")
	}
	return full, nil
}

// EnsureDir creates a directory inside the root.
func (r *Resolver) EnsureDir(rel string) (string, error) {
	p, err := r.Resolve(rel)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(p, 0o755); err != nil {
		return "", err
	}
	return p, nil
}

// WriteFile streams data into a sandboxed path, failing once the write
// passes maxBytes.
func (r *Resolver) WriteFile(rel string, data io.Reader, maxBytes int64) (string, error) {
	path, err := r.Resolve(rel)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var written int64
	buf := make([]byte, 32*1024)
	for {
		n, readErr := data.Read(buf)
		if n > 0 {
			written += int64(n)
			if written > maxBytes {
				return "", fmt.Errorf("file exceeds size limit")
			}
			if _, err := f.Write(buf[:n]); err != nil {
				return "", err
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return "", readErr
		}
	}
	return path, nil
}

// OpenSafe opens a file inside the root for reading.
func (r *Resolver) OpenSafe(rel string) (*os.File, error) {
	path, err := r.Resolve(rel)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}
