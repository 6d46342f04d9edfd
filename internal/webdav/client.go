// Package webdav implements the WebDAV operations davsync needs: existence
// checks, recursive collection creation, overwriting uploads and downloads.
//
// WebDAV offers no atomic create-if-absent or replace primitive, so the
// client is deliberately defensive: uploads delete any existing object first,
// and collection creation walks the path segment by segment, tolerating the
// store's "already exists" status codes.
package webdav

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/imroc/req/v3"

	"github.com/davsync/davsync/internal/utils"
	"github.com/davsync/davsync/internal/version"
)

// Options configures a Client.
type Options struct {
	// BaseURL of the WebDAV endpoint. A trailing slash is trimmed.
	BaseURL string
	// Username and Password attach basic auth to every request when both set.
	Username string
	Password string
	// Timeout bounds each individual request. Zero means no timeout.
	Timeout time.Duration
}

// Client speaks WebDAV over HTTP(S) against a single base URL. All methods
// are safe for sequential use; there are no automatic retries.
type Client struct {
	http    *req.Client
	baseURL string
}

// New creates a WebDAV client for the given endpoint.
func New(opts *Options) *Client {
	httpClient := req.C().
		SetTimeout(opts.Timeout).
		SetUserAgent(version.AppName + "/" + version.Version)

	if opts.Username != "" {
		httpClient.SetCommonBasicAuth(opts.Username, opts.Password)
	}

	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
	}
}

// url joins a remote path to the base URL with a single separator.
func (c *Client) url(remotePath string) string {
	return c.baseURL + "/" + strings.TrimLeft(remotePath, "/")
}

// Exists probes a remote path with HEAD. Only a 2xx response counts as
// present; any other status is reported as absent. Transport failures are
// returned as errors.
func (c *Client) Exists(ctx context.Context, remotePath string) (bool, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Head(c.url(remotePath))
	if err != nil {
		return false, fmt.Errorf("head %q: %w", remotePath, err)
	}
	return resp.IsSuccessState(), nil
}

// EnsureDirectory creates every segment of remoteDir from root to leaf with
// MKCOL. A single MKCOL on a deep path fails when intermediate collections
// are absent, hence the walk. 405 (collection exists) and 409 (parent being
// created concurrently) are acceptable outcomes per segment.
func (c *Client) EnsureDirectory(ctx context.Context, remoteDir string) error {
	remoteDir = strings.Trim(remoteDir, "/")
	if remoteDir == "" {
		return nil
	}

	segments := strings.Split(remoteDir, "/")
	current := ""
	for _, segment := range segments {
		if current == "" {
			current = segment
		} else {
			current = current + "/" + segment
		}

		resp, err := c.http.R().
			SetContext(ctx).
			Send("MKCOL", c.url(current))
		if err != nil {
			return fmt.Errorf("mkcol %q: %w", current, err)
		}

		switch {
		case resp.IsSuccessState():
		case resp.StatusCode == http.StatusMethodNotAllowed:
			// collection already exists
		case resp.StatusCode == http.StatusConflict:
			// parent still materializing on the server
		default:
			return fmt.Errorf("mkcol %q: unexpected status %s", current, resp.Status)
		}
	}
	return nil
}

// Upload transfers a local file to remotePath, creating parent collections
// first. Any existing remote object is deleted beforehand because overwrite
// semantics on a changed file are otherwise unreliable across servers; delete
// failures are ignored.
func (c *Client) Upload(ctx context.Context, localPath, remotePath string) error {
	if dir := path.Dir(remotePath); dir != "." && dir != "/" {
		if err := c.EnsureDirectory(ctx, dir); err != nil {
			return err
		}
	}

	if err := c.Delete(ctx, remotePath); err != nil {
		slog.Debug("pre-upload delete", "path", remotePath, "error", err)
	}

	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %q: %w", localPath, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat %q: %w", localPath, err)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetContentType("application/octet-stream").
		SetBody(file).
		Put(c.url(remotePath))
	if err != nil {
		return fmt.Errorf("put %q: %w", remotePath, err)
	}
	if !resp.IsSuccessState() {
		return fmt.Errorf("put %q: unexpected status %s", remotePath, resp.Status)
	}

	slog.Info("uploaded", "local", localPath, "remote", remotePath, "size", humanize.Bytes(uint64(info.Size())))
	return nil
}

// Download fetches remotePath into localPath. A 404 is a normal outcome: the
// call succeeds and no local file is written. Any other non-2xx status is an
// error.
func (c *Client) Download(ctx context.Context, remotePath, localPath string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		Get(c.url(remotePath))
	if err != nil {
		return fmt.Errorf("get %q: %w", remotePath, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if !resp.IsSuccessState() {
		return fmt.Errorf("get %q: unexpected status %s", remotePath, resp.Status)
	}

	if err := utils.EnsureParent(localPath); err != nil {
		return fmt.Errorf("prepare %q: %w", localPath, err)
	}
	if err := os.WriteFile(localPath, resp.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %q: %w", localPath, err)
	}
	return nil
}

// Delete removes a remote object. Callers treat failures as best-effort.
func (c *Client) Delete(ctx context.Context, remotePath string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		Delete(c.url(remotePath))
	if err != nil {
		return fmt.Errorf("delete %q: %w", remotePath, err)
	}
	if !resp.IsSuccessState() && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete %q: unexpected status %s", remotePath, resp.Status)
	}
	return nil
}
