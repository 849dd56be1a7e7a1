package datafetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
	"unicode/utf8"

	"github.com/evdata/evdata-api/datafetcher/entities"
	"github.com/evdata/evdata-api/logging"
	"github.com/evdata/evdata-api/metrics"
	"golang.org/x/text/encoding/charmap"
)

// DefaultHTTPTimeout bounds a single download when no client is injected.
const DefaultHTTPTimeout = 5 * time.Minute

// Doer issues HTTP requests. It is satisfied by *http.Client and by test
// doubles that simulate transport failures or canned bodies.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// downloader holds the transport and temp-file settings shared by the three
// fetchers.
type downloader struct {
	client  Doer
	tempDir string
}

func newDownloader(client Doer, tempDir string) *downloader {
	if client == nil {
		client = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &downloader{client: client, tempDir: tempDir}
}

// fetch GETs url and returns the body, transcoded to UTF-8 when needed.
// A transport failure or a non-2xx status yields a network-kind error.
func (d *downloader) fetch(ctx context.Context, format entities.Format, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, newError(KindNetwork, format, fmt.Errorf("building request for %s: %w", url, err))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, newError(KindNetwork, format, fmt.Errorf("GET %s: %w", url, err))
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Warn("Failed to close response body", "url", url, "error", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newError(KindNetwork, format, fmt.Errorf("GET %s: unexpected status %s", url, resp.Status))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newError(KindNetwork, format, fmt.Errorf("reading body of %s: %w", url, err))
	}

	// Some exports arrive in ISO-8859-1, check before handing to parsers
	if !utf8.Valid(body) {
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(body)
		if err != nil {
			return nil, newError(KindDecode, format, fmt.Errorf("transcoding body of %s: %w", url, err))
		}
		body = decoded
	}

	metrics.DatasetFetchBytes.WithLabelValues(format.String()).Add(float64(len(body)))
	logging.Debug("Downloaded dataset export", "format", format.String(), "url", url, "bytes", len(body))

	return body, nil
}

// saveTemp writes body to a uniquely named temporary file so that concurrent
// invocations never collide. The returned remove func deletes the file and
// logs the removal; callers defer it immediately after creation so the file
// is gone on every exit path.
func (d *downloader) saveTemp(format entities.Format, pattern string, body []byte) (string, func(), error) {
	f, err := os.CreateTemp(d.tempDir, pattern)
	if err != nil {
		return "", nil, newError(KindFilesystem, format, fmt.Errorf("creating temporary file: %w", err))
	}
	path := f.Name()

	remove := func() {
		if err := os.Remove(path); err != nil {
			if !os.IsNotExist(err) {
				logging.Warn("Failed to remove temporary file", "path", path, "error", err)
			}
			return
		}
		logging.Info("Temporary file removed", "path", path)
	}

	if _, err := f.Write(body); err != nil {
		if cerr := f.Close(); cerr != nil {
			logging.Warn("Failed to close temporary file", "path", path, "error", cerr)
		}
		remove()
		return "", nil, newError(KindFilesystem, format, fmt.Errorf("writing temporary file %s: %w", path, err))
	}
	if err := f.Close(); err != nil {
		remove()
		return "", nil, newError(KindFilesystem, format, fmt.Errorf("closing temporary file %s: %w", path, err))
	}

	logging.Debug("Saved dataset export to temporary file", "path", path, "bytes", len(body))
	return path, remove, nil
}
