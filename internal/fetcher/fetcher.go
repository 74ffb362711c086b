// Package fetcher downloads raw source files over HTTP and FTP and parses
// CSV, XLSX, JSON, XML, shapefile, and ZIP content into frames.
package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"

	"github.com/rotisserie/eris"
)

// Fetcher downloads remote data.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL and writes it to the given path.
	// Returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}

// FileFetcher serves local files through the Fetcher interface, used for
// file-based sources and tests.
type FileFetcher struct{}

// Download opens the path given as URL.
func (FileFetcher) Download(_ context.Context, path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "file: open %s", path)
	}
	return f, nil
}

// DownloadToFile copies a local file to the given path.
func (ff FileFetcher) DownloadToFile(ctx context.Context, src string, path string) (int64, error) {
	body, err := ff.Download(ctx, src)
	if err != nil {
		return 0, err
	}
	defer body.Close() //nolint:errcheck

	out, err := os.Create(path)
	if err != nil {
		return 0, eris.Wrap(err, "file: create")
	}
	defer out.Close() //nolint:errcheck

	n, err := io.Copy(out, body)
	if err != nil {
		return n, eris.Wrap(err, "file: copy")
	}
	return n, nil
}

// ForSource returns the fetcher matching the source location: FTP for
// ftp:// URLs, HTTP for http(s)://, and the file fetcher otherwise.
func ForSource(source string, httpF, ftpF Fetcher) Fetcher {
	u, err := url.Parse(source)
	if err != nil {
		return FileFetcher{}
	}
	switch u.Scheme {
	case "http", "https":
		return httpF
	case "ftp":
		return ftpF
	default:
		return FileFetcher{}
	}
}
