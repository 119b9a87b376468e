package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
)

// Fetcher opens the bytes behind an absolute URL.
type Fetcher interface {
	Fetch(ctx context.Context, u *url.URL) (io.ReadCloser, error)
}

// FileFetcher serves file:// URLs from the local filesystem.
type FileFetcher struct{}

func (FileFetcher) Fetch(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.Open(filepath.FromSlash(u.Path))
}

// HTTPFetcher serves http and https URLs.
type HTTPFetcher struct {
	Client *http.Client
}

func (f HTTPFetcher) Fetch(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		res.Body.Close()
		return nil, fmt.Errorf("GET %s: %s", u, res.Status)
	}
	return res.Body, nil
}
