package mediatex

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/pkg/errors"
)

// openURL opens an http(s) or file URL, or a plain path, returning the body
// and its content type if known.
func openURL(ctx context.Context, rawURL string, client *http.Client) (io.ReadCloser, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", errors.Wrapf(err, "invalid url %q", rawURL)
	}
	switch u.Scheme {
	case "http", "https":
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, "", errors.Wrap(err, "failed to build request")
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, "", errors.Wrapf(err, "failed to get %q", rawURL)
		}
		if resp.StatusCode != http.StatusOK {
			//nolint:errcheck
			resp.Body.Close()
			return nil, "", errors.Errorf("failed to get %q: %s", rawURL, resp.Status)
		}
		return resp.Body, resp.Header.Get("Content-Type"), nil
	case "file":
		f, err := os.Open(u.Path)
		if err != nil {
			return nil, "", errors.WithStack(err)
		}
		return f, "", nil
	case "":
		f, err := os.Open(rawURL)
		if err != nil {
			return nil, "", errors.WithStack(err)
		}
		return f, "", nil
	default:
		return nil, "", errors.Errorf("unsupported url scheme %q", u.Scheme)
	}
}
