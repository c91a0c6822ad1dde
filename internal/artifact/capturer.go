package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"
)

// Capturer produces an artifact for a blocked request and returns its
// storage key. Capture is always best-effort: the gateway records the audit
// entry first and attaches the key after the fact, so a slow or failing
// capturer can only ever degrade to "audit entry without artifact".
type Capturer interface {
	CaptureBlockPage(ctx context.Context, siteUUID, pageURL string) (string, error)
}

// CaptureFunc adapts a function to the Capturer interface.
type CaptureFunc func(ctx context.Context, siteUUID, pageURL string) (string, error)

func (f CaptureFunc) CaptureBlockPage(ctx context.Context, siteUUID, pageURL string) (string, error) {
	return f(ctx, siteUUID, pageURL)
}

// BrowserCapturer renders the block page in a headless browser and stores a
// PNG under the artifact directory.
type BrowserCapturer struct {
	browser *rod.Browser
	dir     string
	timeout time.Duration
}

// NewBrowserCapturer connects to a headless browser. The connection is
// shared across captures; Close releases it.
func NewBrowserCapturer(dir string, timeout time.Duration) (*BrowserCapturer, error) {
	browser := rod.New()
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	if err := os.MkdirAll(filepath.Join(dir, "screenshots"), 0o755); err != nil {
		return nil, fmt.Errorf("ensure artifact directory: %w", err)
	}

	return &BrowserCapturer{browser: browser, dir: dir, timeout: timeout}, nil
}

// CaptureBlockPage navigates to the block page and stores a screenshot,
// returning the storage key.
func (c *BrowserCapturer) CaptureBlockPage(ctx context.Context, siteUUID, pageURL string) (string, error) {
	page, err := c.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", fmt.Errorf("open page: %w", err)
	}
	defer page.Close()

	page = page.Context(ctx).Timeout(c.timeout)

	if err := page.Navigate(pageURL); err != nil {
		return "", fmt.Errorf("navigate: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("wait load: %w", err)
	}

	data, err := page.Screenshot(false, nil)
	if err != nil {
		return "", fmt.Errorf("screenshot: %w", err)
	}

	key := Key(siteUUID)
	if err := os.WriteFile(filepath.Join(c.dir, filepath.FromSlash(key)), data, 0o644); err != nil {
		return "", fmt.Errorf("store artifact: %w", err)
	}

	return key, nil
}

// Read returns the stored artifact bytes for a key.
func (c *BrowserCapturer) Read(key string) ([]byte, error) {
	return ReadKey(c.dir, key)
}

// Close disconnects the browser.
func (c *BrowserCapturer) Close() error {
	return c.browser.Close()
}

// Key builds a collision-free storage key for a site's artifact.
func Key(siteUUID string) string {
	return fmt.Sprintf("screenshots/%s_%s.png", siteUUID, uuid.NewString()[:8])
}

// ReadKey loads an artifact by key from an artifact directory, refusing keys
// that escape it.
func ReadKey(dir, key string) ([]byte, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return nil, fmt.Errorf("invalid artifact key %q", key)
	}
	return os.ReadFile(filepath.Join(dir, clean))
}
