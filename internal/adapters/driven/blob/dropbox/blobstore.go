// Package dropbox provides a blob store adapter backed by a Dropbox app
// folder, for users who want report images synced off the machine.
package dropbox

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/files"

	"github.com/custodia-labs/reportchat-cli/internal/core/domain"
	"github.com/custodia-labs/reportchat-cli/internal/core/ports/driven"
)

// Ensure BlobStore implements the interface.
var _ driven.BlobStore = (*BlobStore)(nil)

// BlobStore stores objects in Dropbox under a root folder. Keys map to
// Dropbox paths with the key's slashes preserved.
//
// The Dropbox SDK does not thread contexts through its calls; cancellation
// is bounded by the SDK's own HTTP timeouts.
type BlobStore struct {
	client files.Client
	root   string
}

// Config holds configuration for the Dropbox blob store.
type Config struct {
	// Token is the Dropbox access token (required).
	Token string

	// Root is the folder all keys live under (default: /reportchat).
	Root string
}

// NewBlobStore creates a Dropbox blob store.
func NewBlobStore(cfg Config) (*BlobStore, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("dropbox: access token is required")
	}
	root := cfg.Root
	if root == "" {
		root = "/reportchat"
	}
	if !strings.HasPrefix(root, "/") {
		root = "/" + root
	}

	client := files.New(dropbox.Config{
		Token:    cfg.Token,
		LogLevel: dropbox.LogOff,
	})
	return &BlobStore{client: client, root: strings.TrimSuffix(root, "/")}, nil
}

// Put stores data under key, overwriting any existing object.
func (s *BlobStore) Put(_ context.Context, key string, data []byte, _ string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	arg := files.NewUploadArg(path)
	arg.Mode = &files.WriteMode{Tagged: dropbox.Tagged{Tag: files.WriteModeOverwrite}}
	arg.Mute = true

	if _, err := s.client.Upload(arg, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("dropbox upload %s: %w", key, err)
	}
	return nil
}

// Get retrieves the object stored under key.
func (s *BlobStore) Get(_ context.Context, key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}

	_, content, err := s.client.Download(files.NewDownloadArg(path))
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("blob %s: %w", key, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("dropbox download %s: %w", key, err)
	}
	defer content.Close()

	data, err := io.ReadAll(content)
	if err != nil {
		return nil, fmt.Errorf("dropbox read %s: %w", key, err)
	}
	return data, nil
}

// Delete removes the object stored under key. Deleting a missing object is
// not an error.
func (s *BlobStore) Delete(_ context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	if _, err := s.client.DeleteV2(files.NewDeleteArg(path)); err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("dropbox delete %s: %w", key, err)
	}
	return nil
}

// path maps a key to a Dropbox path under the root folder.
func (s *BlobStore) path(key string) (string, error) {
	if key == "" || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: bad blob key %q", domain.ErrInvalidInput, key)
	}
	return s.root + "/" + strings.TrimPrefix(key, "/"), nil
}

// isNotFound detects the Dropbox path-lookup error. The SDK surfaces it as a
// tagged API error whose string carries the tag.
func isNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "not_found")
}
