// Package asset locates the input files of a scene. Files may live on the
// local filesystem or be fetched over http(s); relative references inside a
// scene resolve against the file that contains them.
package asset

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Client used for remote resources.
var httpClient = &http.Client{Timeout: 30 * time.Second}

// Resource is an open stream for a local or remote scene file. Callers must
// Close it once done.
type Resource struct {
	io.ReadCloser
	url *url.URL
}

// Get the full path or URL of the resource.
func (r *Resource) Path() string {
	return r.url.String()
}

// Get the resource file name without its directory.
func (r *Resource) Name() string {
	return path.Base(r.url.Path)
}

// Returns true if the resource is streamed over http/https.
func (r *Resource) IsRemote() bool {
	return r.url.Scheme != ""
}

// Open a resource. If relTo is not nil and location has no scheme, location
// is resolved relative to the directory containing relTo.
func Open(ctx context.Context, location string, relTo *Resource) (*Resource, error) {
	loc, err := url.Parse(strings.ReplaceAll(location, `\`, `/`))
	if err != nil {
		return nil, fmt.Errorf("resource: invalid location %q: %w", location, err)
	}

	if loc.Scheme == "" && relTo != nil {
		loc, err = resolveRelative(loc.Path, relTo)
		if err != nil {
			return nil, err
		}
	}

	var reader io.ReadCloser
	switch loc.Scheme {
	case "":
		reader, err = os.Open(filepath.Clean(loc.Path))
		if err != nil {
			return nil, fmt.Errorf("resource: %w", err)
		}
	case "http", "https":
		reader, err = fetch(ctx, loc)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("resource: unsupported scheme '%s'", loc.Scheme)
	}

	return &Resource{
		ReadCloser: reader,
		url:        loc,
	}, nil
}

// Wrap an in-memory stream as a resource named name. Relative references
// are resolved against name.
func FromStream(name string, source io.Reader) *Resource {
	loc, err := url.Parse(name)
	if err != nil {
		loc = &url.URL{Path: name}
	}
	return &Resource{
		ReadCloser: io.NopCloser(source),
		url:        loc,
	}
}

func resolveRelative(relPath string, relTo *Resource) (*url.URL, error) {
	if relTo.IsRemote() {
		loc := *relTo.url
		loc.Path = path.Join(path.Dir(relTo.url.Path), relPath)
		loc.RawQuery = ""
		return &loc, nil
	}

	if filepath.IsAbs(relPath) {
		return &url.URL{Path: relPath}, nil
	}

	base, err := filepath.Abs(relTo.url.Path)
	if err != nil {
		return nil, fmt.Errorf("resource: could not detect abs path for %s: %w", relTo.Path(), err)
	}
	return &url.URL{Path: filepath.Join(filepath.Dir(base), relPath)}, nil
}

func fetch(ctx context.Context, loc *url.URL) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("resource: could not fetch '%s': %w", loc, err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("resource: could not fetch '%s': %w", loc, err)
	}
	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, fmt.Errorf("resource: could not fetch '%s': status %d", loc, resp.StatusCode)
	}
	return resp.Body, nil
}
