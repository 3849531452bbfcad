// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch downloads remote source tables from data portals into the
// local data directory so they can be merged like any other file.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/pdiddy/tablemerge/internal/httputil"
	"github.com/pdiddy/tablemerge/internal/logging"
	tmerrors "github.com/pdiddy/tablemerge/pkg/errors"
	"github.com/pdiddy/tablemerge/pkg/types"
)

const (
	rawDir          = "raw"
	defaultFileName = "download.csv"
)

// BatchResult holds the outcome of a batch download run.
type BatchResult struct {
	Downloaded int
	Skipped    int
	Failed     int
	Paths      []string
}

// Total returns the total number of URLs processed.
func (r BatchResult) Total() int {
	return r.Downloaded + r.Skipped + r.Failed
}

// HasFailures reports whether any download failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// FileName derives a local file name from the last path segment of rawURL,
// falling back to "download.csv".
func FileName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return defaultFileName
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" || base == "" {
		return defaultFileName
	}
	return base
}

// Destination returns the local path for a fetched file named name.
func Destination(dataDir, name string) string {
	return filepath.Join(dataDir, rawDir, name)
}

// Target is one URL to fetch and the optional file name to save it under.
type Target struct {
	URL  string
	Name string
}

// LocalName returns the file name t is saved under in DataDir/raw.
func (t Target) LocalName() string {
	if t.Name != "" {
		return t.Name
	}
	return FileName(t.URL)
}

// CheckDistinct rejects targets where two different URLs would be saved
// under the same file name. Existing files are reused without downloading,
// so the second URL would never be fetched.
func CheckDistinct(targets []Target) error {
	byName := make(map[string]string, len(targets))
	for _, t := range targets {
		name := t.LocalName()
		prev, ok := byName[name]
		if ok && prev != t.URL {
			return tmerrors.NewValidationError("sources", fmt.Sprintf(
				"%s and %s would both be saved as %s: give one of them a distinct name", prev, t.URL, name))
		}
		byName[name] = t.URL
	}
	return nil
}

// Source downloads rawURL to DataDir/raw/name. An empty name is derived
// from the URL. If the file already exists the download is skipped.
func Source(ctx context.Context, client *http.Client, rawURL, name string, cfg types.FetchConfig, w io.Writer) (dest string, skipped bool, err error) {
	if name == "" {
		name = FileName(rawURL)
	}
	if name != filepath.Base(name) || name == ".." {
		return "", false, fmt.Errorf("invalid file name %q for %s", name, rawURL)
	}

	dest = Destination(cfg.DataDir, name)
	if _, err := os.Stat(dest); err == nil {
		fmt.Fprintf(w, "skipped: %s (already exists)\n", name)
		return dest, true, nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", false, fmt.Errorf("creating directory %s: %w", filepath.Dir(dest), err)
	}

	fmt.Fprintf(w, "downloading: %s\n", name)
	if err := download(ctx, client, rawURL, dest, cfg); err != nil {
		return "", false, fmt.Errorf("downloading %s: %w", name, err)
	}

	logging.FromContext(ctx).Debug().Str("url", rawURL).Str("path", dest).Msg("fetched source")
	return dest, false, nil
}

// Batch downloads each URL in order, printing per-item status and a
// summary. It continues after individual failures and waits
// cfg.DownloadDelay between consecutive downloads.
func Batch(ctx context.Context, client *http.Client, urls []string, cfg types.FetchConfig, w io.Writer) BatchResult {
	var result BatchResult
	for i, u := range urls {
		if i > 0 && cfg.DownloadDelay > 0 {
			select {
			case <-ctx.Done():
				fmt.Fprintf(w, "failed:  %s (%v)\n", u, ctx.Err())
				result.Failed += len(urls) - i
				return summarize(w, result)
			case <-time.After(cfg.DownloadDelay):
			}
		}
		dest, skipped, err := Source(ctx, client, u, "", cfg, w)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", u, err)
			result.Failed++
			continue
		}
		if skipped {
			result.Skipped++
		} else {
			result.Downloaded++
		}
		result.Paths = append(result.Paths, dest)
	}
	return summarize(w, result)
}

func summarize(w io.Writer, result BatchResult) BatchResult {
	fmt.Fprintf(w, "\nBatch summary: %d downloaded, %d skipped, %d failed (total: %d)\n",
		result.Downloaded, result.Skipped, result.Failed, result.Total())
	return result
}

// download fetches rawURL into destPath through a temporary file so a
// partial download never appears under the final name.
func download(ctx context.Context, client *http.Client, rawURL, destPath string, cfg types.FetchConfig) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.5")
	if cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.Token)
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, cfg.MaxRetries)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, rawURL)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".fetch-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
