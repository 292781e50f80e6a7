package fetch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// DirBase is the origin under which a Dir fetcher serves its files.
const DirBase = "http://book.local/"

// Dir serves a built book straight from disk. URLs under DirBase map to
// files below the root; a directory resolves to its index.html.
type Dir struct {
	root string
}

func NewDir(root string) *Dir {
	return &Dir{root: root}
}

// URL returns the address of a book-relative path.
func (d *Dir) URL(rel string) string {
	return DirBase + strings.TrimPrefix(filepath.ToSlash(rel), "/")
}

func (d *Dir) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", rawURL, err)
	}
	if u.Scheme+"://"+u.Host+"/" != DirBase {
		return nil, fmt.Errorf("fetching %s: outside %s", rawURL, DirBase)
	}

	rel := path.Clean("/" + u.Path)
	if strings.HasSuffix(u.Path, "/") {
		rel = path.Join(rel, "index.html")
	}
	name := filepath.Join(d.root, filepath.FromSlash(rel))
	if info, err := os.Stat(name); err == nil && info.IsDir() {
		name = filepath.Join(name, "index.html")
	}

	f, err := os.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &StatusError{URL: rawURL, StatusCode: http.StatusNotFound, Status: "404 Not Found"}
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	defer f.Close()

	body, err := readBody(name, f)
	if err != nil {
		return nil, err
	}
	return &Response{URL: u, Body: body}, nil
}
