// Package widget manages the editor widget assets: the pinned vditor
// distribution fetched from the npm registry, and the embedded shell script
// that boots the widget inside the bootstrap page.
package widget

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/kcf-jackson/vscode-markdown-editor/internal/infrastructure/logging"
	"github.com/kcf-jackson/vscode-markdown-editor/internal/infrastructure/resilience"
)

// Version is the pinned vditor release. The widget protocol is coupled to
// the vditor API surface, so upgrades are deliberate.
const Version = "3.10.8"

const tarballURL = "https://registry.npmjs.org/vditor/-/vditor-%s.tgz"

// Bundle locates and fetches the vditor distribution under the data
// directory. Layout: <dataDir>/vditor/<version>/dist/...
type Bundle struct {
	root    string
	version string
	url     string
	client  *retryablehttp.Client
	breaker *resilience.Breaker
	logger  *logging.Logger
}

// NewBundle creates a bundle manager rooted at the host data directory.
func NewBundle(dataDir string, logger *logging.Logger) *Bundle {
	log := logger.Named("widget")

	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.RetryWaitMin = time.Second
	client.RetryWaitMax = 10 * time.Second
	client.HTTPClient.Timeout = 2 * time.Minute
	client.Logger = nil

	return &Bundle{
		root:    filepath.Join(dataDir, "vditor", Version),
		version: Version,
		url:     fmt.Sprintf(tarballURL, Version),
		client:  client,
		logger:  log,
		breaker: resilience.New("widget-bundle", resilience.Settings{
			Threshold: 3,
			Cooldown:  time.Minute,
			OnStateChange: func(name string, from, to resilience.State) {
				log.Warn("breaker state changed",
					zap.String("breaker", name),
					zap.Stringer("from", from),
					zap.Stringer("to", to),
				)
			},
		}),
	}
}

// Dir returns the extracted dist directory.
func (b *Bundle) Dir() string {
	return filepath.Join(b.root, "dist")
}

// Present reports whether the pinned distribution is already on disk.
func (b *Bundle) Present() bool {
	_, err := os.Stat(filepath.Join(b.Dir(), "index.min.js"))
	return err == nil
}

// Ensure fetches the distribution if it is not already present.
func (b *Bundle) Ensure(ctx context.Context) error {
	if b.Present() {
		return nil
	}
	return b.Fetch(ctx)
}

// Fetch downloads and extracts the pinned tarball, replacing any partial
// prior extraction. Guarded by the breaker so a dead registry fails fast on
// repeated panel opens.
func (b *Bundle) Fetch(ctx context.Context) error {
	return b.breaker.Do(func() error {
		b.logger.Info("fetching widget bundle", zap.String("url", b.url))

		req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, b.url, nil)
		if err != nil {
			return fmt.Errorf("build bundle request: %w", err)
		}
		resp, err := b.client.Do(req)
		if err != nil {
			return fmt.Errorf("fetch widget bundle: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("fetch widget bundle: registry answered %s", resp.Status)
		}

		staging := b.root + ".partial"
		if err := os.RemoveAll(staging); err != nil {
			return fmt.Errorf("clear staging dir: %w", err)
		}
		if err := extractDist(resp.Body, staging); err != nil {
			_ = os.RemoveAll(staging)
			return err
		}

		if err := os.RemoveAll(b.root); err != nil {
			return fmt.Errorf("clear bundle dir: %w", err)
		}
		if err := os.Rename(staging, b.root); err != nil {
			return fmt.Errorf("install bundle: %w", err)
		}
		b.logger.Info("widget bundle installed", zap.String("dir", b.Dir()))
		return nil
	})
}

// extractDist unpacks package/dist/** from an npm tarball into dst/dist.
func extractDist(r io.Reader, dst string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("open bundle tarball: %w", err)
	}
	defer gz.Close()

	const prefix = "package/dist/"
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read bundle tarball: %w", err)
		}

		name := filepath.ToSlash(hdr.Name)
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		rel := filepath.Clean(filepath.FromSlash(strings.TrimPrefix(name, prefix)))
		if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
			return fmt.Errorf("bundle entry escapes target: %s", hdr.Name)
		}
		target := filepath.Join(dst, "dist", rel)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create %s: %w", filepath.Dir(target), err)
			}
			f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
			if err != nil {
				return fmt.Errorf("create %s: %w", target, err)
			}
			if _, err := io.Copy(f, tr); err != nil {
				f.Close()
				return fmt.Errorf("write %s: %w", target, err)
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close %s: %w", target, err)
			}
		}
	}
}
