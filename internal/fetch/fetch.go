package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/almarsh/edtrader/internal/config"
)

// File maps a remote snapshot name to its local destination.
type File struct {
	Name string // Remote file name under the base URL
	Path string // Local destination path
}

// Fetcher downloads reference snapshots over HTTP.
type Fetcher struct {
	cfg    config.FetchConfig
	client *http.Client
	logger *slog.Logger
}

// New creates a Fetcher.
func New(cfg config.FetchConfig, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// FetchAll downloads every file that is missing or older than the configured
// maximum age. Files download concurrently; the first failure cancels the
// rest.
func (f *Fetcher) FetchAll(ctx context.Context, files []File) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, file := range files {
		file := file
		g.Go(func() error {
			return f.fetchOne(ctx, file)
		})
	}
	return g.Wait()
}

func (f *Fetcher) fetchOne(ctx context.Context, file File) error {
	if fresh(file.Path, f.cfg.MaxAge) {
		f.logger.Info("local copy is fresh, skipping", "file", file.Name)
		return nil
	}

	url := f.cfg.BaseURL + "/" + file.Name
	f.logger.Info("downloading", "url", url)

	var lastErr error
	for attempt := 0; attempt <= f.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(f.cfg.RetryBackoff):
			}
		}
		if lastErr = f.download(ctx, url, file.Path); lastErr == nil {
			return nil
		}
		f.logger.Warn("download failed",
			"file", file.Name,
			"attempt", attempt+1,
			"error", lastErr,
		)
	}
	return fmt.Errorf("download %s: %w", file.Name, lastErr)
}

// download streams the response into a temp file and renames it into place.
func (f *Fetcher) download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, resp.Body)
	if err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("empty response body")
	}

	return os.Rename(tmp.Name(), dest)
}

// fresh reports whether the local copy exists and is younger than maxAge.
func fresh(path string, maxAge time.Duration) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return time.Since(info.ModTime()) < maxAge
}
