package services

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrContentNotFound = errors.New("content file not found")
	ErrInvalidPath     = errors.New("invalid content path")
)

// ContentService serves per-site static content from a directory tree laid
// out as <root>/<site-uuid>/<files>. It is a deliberately thin external
// collaborator of the gateway: its failures never affect the access
// decision or the audit entry.
type ContentService struct {
	root string
}

func NewContentService(root string) *ContentService {
	return &ContentService{root: root}
}

// GetFile loads a content file for a site and sniffs its content type from
// the extension.
func (s *ContentService) GetFile(siteUUID, name string) ([]byte, string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return nil, "", fmt.Errorf("%w: %q", ErrInvalidPath, name)
	}

	path := filepath.Join(s.root, siteUUID, clean)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", ErrContentNotFound
		}
		return nil, "", fmt.Errorf("read content file: %w", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(clean))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return data, contentType, nil
}
