// Package imageref resolves seed-image references into upload payloads for
// provider requests. References arrive either as data URLs straight from the
// web app or as remote URLs that must be fetched and re-encoded first.
package imageref

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hardingCheng/waoowaoo/internal/domain"
)

const dataURLMarker = ";base64,"

// Upload is a decoded seed image ready to attach to a provider request.
type Upload struct {
	MIME     string
	Data     []byte
	Filename string
}

// Fetcher turns a remote URL into a data URL. Implementations own transport
// concerns; Resolve only parses the result.
type Fetcher interface {
	FetchDataURL(ctx context.Context, url string) (string, error)
}

// Resolve decodes ref into an Upload. Data URLs are parsed directly; any
// other reference is fetched through the fetcher first. An empty ref yields
// a nil upload.
func Resolve(ctx context.Context, ref string, fetcher Fetcher) (*Upload, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, nil
	}
	if strings.HasPrefix(ref, "data:") {
		return Parse(ref)
	}
	if fetcher == nil {
		return nil, fmt.Errorf("imageref: no fetcher configured for remote reference")
	}
	dataURL, err := fetcher.FetchDataURL(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("imageref: fetch seed image: %w", err)
	}
	return Parse(dataURL)
}

// Parse splits a data URL into its mime type and decoded payload. The URL
// must carry a base64 payload; an empty mime or payload is rejected.
func Parse(dataURL string) (*Upload, error) {
	if !strings.HasPrefix(dataURL, "data:") {
		return nil, domain.NewError(domain.CodeVideoInputReferenceInvalid, "seed image reference is not a data URL")
	}
	idx := strings.Index(dataURL, dataURLMarker)
	if idx < 0 {
		return nil, domain.NewError(domain.CodeVideoInputReferenceInvalid, "seed image data URL has no base64 payload")
	}
	mime := dataURL[len("data:"):idx]
	payload := dataURL[idx+len(dataURLMarker):]
	if mime == "" || payload == "" {
		return nil, domain.NewError(domain.CodeVideoInputReferenceInvalid, "seed image data URL is missing its mime type or payload")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, domain.WrapError(domain.CodeVideoInputReferenceInvalid, err, "seed image payload is not valid base64")
	}
	return &Upload{MIME: mime, Data: data, Filename: filenameFor(mime)}, nil
}

// HTTPFetcher downloads a remote image and re-encodes it as a data URL.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher wraps the given client, falling back to a default with a
// generous timeout for large images.
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &HTTPFetcher{client: client}
}

func (f *HTTPFetcher) FetchDataURL(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("imageref: create fetch request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("imageref: fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("imageref: fetch image status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	blob, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("imageref: read image: %w", err)
	}

	mime := resp.Header.Get("Content-Type")
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + dataURLMarker + base64.StdEncoding.EncodeToString(blob), nil
}

func filenameFor(mime string) string {
	ext := "bin"
	if i := strings.Index(mime, "/"); i >= 0 && i+1 < len(mime) {
		ext = mime[i+1:]
		if j := strings.IndexAny(ext, "+;"); j >= 0 {
			ext = ext[:j]
		}
	}
	return "input_reference." + ext
}
