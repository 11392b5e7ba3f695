// Package download fetches files over HTTP concurrently.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/shandysiswandi/goweave/internal/pkg/pkgconfig"
	"github.com/shandysiswandi/goweave/internal/pkg/pkglog"
	"github.com/shandysiswandi/goweave/internal/pkg/pkgproxy"
	"github.com/shandysiswandi/goweave/internal/pkg/pkgroutine"
)

// ErrNoFileName is returned for URLs whose path has no base name.
var ErrNoFileName = errors.New("url has no file name")

// Result describes one finished download.
type Result struct {
	URL   string
	Path  string
	Bytes int64
}

type Downloader struct {
	client      *http.Client
	concurrency int
}

// New returns a Downloader running at most concurrency downloads at once.
// A nil client uses the proxy-aware transport.
func New(client *http.Client, concurrency int) *Downloader {
	if client == nil {
		client = &http.Client{Transport: pkgproxy.Transport()}
	}
	if concurrency <= 0 {
		concurrency = pkgroutine.DefaultWorkers()
	}
	return &Downloader{client: client, concurrency: concurrency}
}

func NewFromConfig(cfg pkgconfig.Config, client *http.Client) *Downloader {
	return New(client, int(cfg.GetInt("download.concurrency")))
}

// Fetch downloads every url into dir. The first failure cancels the
// downloads still running; results are in the order of urls.
func (d *Downloader) Fetch(ctx context.Context, urls []string, dir string) ([]Result, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create download dir: %w", err)
	}

	names, err := targetNames(urls)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(urls))

	err = pkglog.Timed(ctx, "download.Fetch", func(ctx context.Context) error {
		g, ctx := errgroup.WithContext(ctx)
		g.SetLimit(d.concurrency)

		for i, u := range urls {
			g.Go(func() error {
				res, err := pkglog.TimedValue(ctx, "download.file", func(ctx context.Context) (Result, error) {
					return d.fetchOne(ctx, u, filepath.Join(dir, names[i]))
				}, u)
				if err != nil {
					return err
				}
				results[i] = res
				return nil
			})
		}

		return g.Wait()
	}, len(urls), " urls")
	if err != nil {
		return nil, err
	}

	return results, nil
}

func (d *Downloader) fetchOne(ctx context.Context, rawURL, dst string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Result{}, fmt.Errorf("build request %s: %w", rawURL, err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("get %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, fmt.Errorf("get %s: unexpected status %s", rawURL, resp.Status)
	}

	f, err := os.Create(dst)
	if err != nil {
		return Result{}, fmt.Errorf("create %s: %w", dst, err)
	}

	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dst)
		return Result{}, fmt.Errorf("write %s: %w", dst, err)
	}

	slog.InfoContext(ctx, "downloaded file", "url", rawURL, "path", dst, "bytes", n)

	return Result{URL: rawURL, Path: dst, Bytes: n}, nil
}

// targetNames picks one file name per url. Names already taken by an
// earlier url get a numeric suffix before the extension: a.bin, a-1.bin.
func targetNames(urls []string) ([]string, error) {
	names := make([]string, len(urls))
	taken := make(map[string]bool, len(urls))

	for i, u := range urls {
		name, err := FileName(u)
		if err != nil {
			return nil, err
		}

		ext := path.Ext(name)
		stem := strings.TrimSuffix(name, ext)
		for n := 1; taken[name]; n++ {
			name = fmt.Sprintf("%s-%d%s", stem, n, ext)
		}

		taken[name] = true
		names[i] = name
	}

	return names, nil
}

// FileName is the base of the URL path.
func FileName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "", fmt.Errorf("%w: %s", ErrNoFileName, rawURL)
	}
	return name, nil
}
