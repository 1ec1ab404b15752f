// Package fetch downloads training data over HTTP with bounded retries.
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

	"github.com/cenkalti/backoff/v4"
	"github.com/cheggaaa/pb/v3"
	"github.com/pkg/errors"

	"github.com/mesh-intelligence/modelkit/internal/ctxlog"
)

// Defaults for a zero-configured Client.
const (
	DefaultRetries   = 3
	DefaultRetryWait = 5 * time.Second
)

// Fetch errors.
var (
	ErrMaxRetries = errors.New("maximum retry count exceeded")
	ErrHTTPStatus = errors.New("unexpected http status")
)

// Client performs GET requests, retrying transport failures, 5xx and 429
// responses with exponential backoff.
type Client struct {
	http      *http.Client
	retries   int
	retryWait time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithRetries sets the total number of attempts. Zero or less fails every
// request with ErrMaxRetries without contacting the server.
func WithRetries(n int) Option {
	return func(c *Client) { c.retries = n }
}

// WithRetryWait sets the delay before the first retry. Later delays grow
// exponentially.
func WithRetryWait(d time.Duration) Option {
	return func(c *Client) { c.retryWait = d }
}

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New returns a Client with DefaultRetries and DefaultRetryWait unless
// overridden.
func New(opts ...Option) *Client {
	c := &Client{
		http:      http.DefaultClient,
		retries:   DefaultRetries,
		retryWait: DefaultRetryWait,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the body of url.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := c.open(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", rawURL)
	}
	return data, nil
}

// Download streams url into path, writing through a temp file in the same
// directory so a partial download never appears at path. An empty path
// means the last segment of the URL in the current directory. When
// progress is non-nil a byte progress bar is drawn to it. Returns the path
// written.
func (c *Client) Download(ctx context.Context, rawURL, dest string, progress io.Writer) (string, error) {
	if dest == "" {
		u, err := url.Parse(rawURL)
		if err != nil {
			return "", errors.Wrapf(err, "parse %s", rawURL)
		}
		dest = path.Base(u.Path)
		if dest == "/" || dest == "." {
			return "", errors.Errorf("cannot derive a file name from %s", rawURL)
		}
	}

	resp, err := c.open(ctx, rawURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*.tmp")
	if err != nil {
		return "", errors.Wrap(err, "creating temp file")
	}
	tmpName := tmp.Name()
	fail := func(err error) (string, error) {
		tmp.Close()
		os.Remove(tmpName)
		return "", err
	}

	var body io.Reader = resp.Body
	if progress != nil {
		bar := pb.Full.New(0)
		if resp.ContentLength > 0 {
			bar.SetTotal(resp.ContentLength)
		}
		bar.SetWriter(progress)
		bar.Set(pb.Bytes, true)
		bar.Set("prefix", filepath.Base(dest)+" ")
		bar.Start()
		defer bar.Finish()
		body = bar.NewProxyReader(resp.Body)
	}

	n, err := io.Copy(tmp, body)
	if err != nil {
		return fail(errors.Wrapf(err, "download %s", rawURL))
	}
	if err := tmp.Sync(); err != nil {
		return fail(errors.Wrap(err, "syncing temp file"))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", errors.Wrap(err, "closing temp file")
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return "", errors.Wrapf(err, "rename to %s", dest)
	}
	ctxlog.FromContext(ctx).Debug("downloaded", "url", rawURL, "path", dest, "bytes", n)
	return dest, nil
}

// open issues the GET with retries and returns a 2xx response.
func (c *Client) open(ctx context.Context, rawURL string) (*http.Response, error) {
	if c.retries <= 0 {
		return nil, ErrMaxRetries
	}
	logger := ctxlog.FromContext(ctx)

	var resp *http.Response
	attempts := 0
	permanent := false
	op := func() error {
		attempts++
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			permanent = true
			return backoff.Permanent(errors.Wrapf(err, "build request for %s", rawURL))
		}
		r, err := c.http.Do(req)
		if err != nil {
			return err
		}
		if r.StatusCode >= 200 && r.StatusCode < 300 {
			resp = r
			return nil
		}
		io.Copy(io.Discard, r.Body)
		r.Body.Close()
		statusErr := errors.Wrapf(ErrHTTPStatus, "%s: %s", rawURL, r.Status)
		if retryable(r.StatusCode) {
			return statusErr
		}
		permanent = true
		return backoff.Permanent(statusErr)
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.retryWait
	eb.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(c.retries-1)), ctx)

	err := backoff.RetryNotify(op, policy, func(err error, wait time.Duration) {
		logger.Debug("retrying fetch", "url", rawURL, "attempt", attempts, "wait", wait, "error", err)
	})
	switch {
	case err == nil:
		return resp, nil
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case permanent:
		return nil, err
	default:
		return nil, fmt.Errorf("%w after %d attempts: %v", ErrMaxRetries, attempts, err)
	}
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}
