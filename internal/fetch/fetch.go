// Package fetch downloads entity files over HTTP, verifying them against
// the lockfile hashes and keeping verified copies in the local cache.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bianoble/modsync/internal/cache"
	"github.com/bianoble/modsync/internal/entity"
	"github.com/bianoble/modsync/internal/hashing"
	"github.com/bianoble/modsync/internal/packerr"
)

// DefaultUserAgent is sent when Downloader.UserAgent is empty.
const DefaultUserAgent = "modsync"

// HTTPClient abstracts HTTP operations for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// DefaultHTTPClient sends requests with http.DefaultClient.
type DefaultHTTPClient struct{}

func (DefaultHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return http.DefaultClient.Do(req)
}

// Error represents a failed download.
type Error struct {
	URL       string
	Operation string
	Err       error
	Hint      string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s failed: %s", e.URL, e.Operation, e.Err)
	if e.Hint != "" {
		msg += " — " + e.Hint
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Downloader fetches file contents. The zero value downloads without a
// cache, size limit or extra timeout.
type Downloader struct {
	Client    HTTPClient
	Cache     *cache.Cache
	MaxSize   int64         // max file size in bytes (0 = no limit)
	Timeout   time.Duration // per request (0 = no extra timeout beyond context)
	UserAgent string
	Logger    *log.Logger
}

func (d *Downloader) logger() *log.Logger {
	if d.Logger == nil {
		return log.New(io.Discard)
	}
	return d.Logger
}

// Bytes downloads url.
func (d *Downloader) Bytes(ctx context.Context, url string) ([]byte, error) {
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}

	client := d.Client
	if client == nil {
		client = DefaultHTTPClient{}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{URL: url, Operation: "download", Err: fmt.Errorf("creating request: %w", err)}
	}
	ua := d.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)

	resp, err := client.Do(req)
	if err != nil {
		return nil, &Error{URL: url, Operation: "download", Err: err, Hint: "check network connectivity and URL"}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{
			URL:       url,
			Operation: "download",
			Err:       fmt.Errorf("HTTP %d", resp.StatusCode),
			Hint:      "the platform may have removed the file — run 'modsync update'",
		}
	}

	var reader io.Reader = resp.Body
	if d.MaxSize > 0 {
		reader = io.LimitReader(resp.Body, d.MaxSize+1)
	}
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, &Error{URL: url, Operation: "download", Err: fmt.Errorf("reading response: %w", err)}
	}
	if d.MaxSize > 0 && int64(len(content)) > d.MaxSize {
		return nil, &Error{
			URL:       url,
			Operation: "download",
			Err:       fmt.Errorf("file exceeds max size %d bytes", d.MaxSize),
			Hint:      "increase max_download_size",
		}
	}
	return content, nil
}

// File returns the contents of f, from the cache when a verified copy is
// present. Downloaded content is checked against f's hashes. A file
// without hashes is returned together with a NoHashes warning and is not
// cached.
func (d *Downloader) File(ctx context.Context, f entity.File) ([]byte, error) {
	if d.Cache != nil {
		if data, ok := d.Cache.Lookup(f.Hashes); ok {
			d.logger().Debug("cache hit", "file", f.FileName)
			return data, nil
		}
	}
	if f.URL == "" {
		return nil, packerr.DownloadFailed(f.FileName, errors.New("file has no download url"))
	}

	d.logger().Debug("downloading", "file", f.FileName, "url", f.URL)
	data, err := d.Bytes(ctx, f.URL)
	if err != nil {
		return nil, packerr.DownloadFailed(f.URL, err)
	}

	if err := hashing.Verify(f.FileName, data, f.Hashes); err != nil {
		if errors.Is(err, packerr.ErrNoHashes) {
			return data, err
		}
		return nil, err
	}
	if d.Cache != nil {
		if err := d.Cache.PutAll(f.Hashes, data); err != nil {
			d.logger().Warn("could not cache file", "file", f.FileName, "err", err)
		}
	}
	return data, nil
}
