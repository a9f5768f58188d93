package schema

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Loader reads schema documents from files, an fs.FS or HTTP. HTTP is
// disabled unless a client or the fallback is configured.
type Loader struct {
	fs      fs.FS
	http    *http.Client
	timeout time.Duration
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithFileSystem sets the filesystem used for SourceKindFS sources.
func WithFileSystem(files fs.FS) LoaderOption {
	return func(l *Loader) {
		l.fs = files
	}
}

// WithHTTPClient enables URL sources with a caller supplied client.
func WithHTTPClient(client *http.Client) LoaderOption {
	return func(l *Loader) {
		if client != nil {
			clone := *client
			l.http = &clone
		}
	}
}

// WithHTTPFallback enables URL sources with a default client and timeout.
func WithHTTPFallback(timeout time.Duration) LoaderOption {
	return func(l *Loader) {
		l.timeout = timeout
		if l.http == nil {
			l.http = &http.Client{}
		}
	}
}

// NewLoader constructs a Loader.
func NewLoader(options ...LoaderOption) *Loader {
	l := &Loader{}
	for _, opt := range options {
		if opt != nil {
			opt(l)
		}
	}
	if l.http != nil && l.timeout > 0 && l.http.Timeout == 0 {
		l.http.Timeout = l.timeout
	}
	return l
}

// Load fetches the document behind src.
func (l *Loader) Load(ctx context.Context, src Source) (Document, error) {
	if src == nil {
		return Document{}, errors.New("schema loader: source is nil")
	}
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}

	var (
		data        []byte
		contentType string
		err         error
	)
	switch src.Kind() {
	case SourceKindFile:
		data, err = loadFile(src.Location())
	case SourceKindFS:
		data, err = l.loadFS(src.Location())
	case SourceKindURL:
		data, contentType, err = l.loadHTTP(ctx, src.Location())
	default:
		err = fmt.Errorf("schema loader: unsupported source kind %q", src.Kind())
	}
	if err != nil {
		return Document{}, err
	}

	doc, err := NewDocument(src, data)
	if err != nil {
		return Document{}, err
	}
	doc.contentType = contentType
	return doc, nil
}

// LoadField loads and decodes src in one step.
func (l *Loader) LoadField(ctx context.Context, src Source) (Field, error) {
	doc, err := l.Load(ctx, src)
	if err != nil {
		return Field{}, err
	}
	field, err := doc.Field()
	if err != nil {
		return Field{}, fmt.Errorf("schema loader: decode %s: %w", doc.Location(), err)
	}
	return field, nil
}

func loadFile(name string) ([]byte, error) {
	if name == "" {
		return nil, errors.New("schema loader: file path is required")
	}
	abs, err := filepath.Abs(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(abs)
}

func (l *Loader) loadFS(name string) ([]byte, error) {
	if l.fs == nil {
		return nil, errors.New("schema loader: filesystem is not configured")
	}
	if name == "" {
		return nil, errors.New("schema loader: fs path is required")
	}
	return fs.ReadFile(l.fs, name)
}

func (l *Loader) loadHTTP(ctx context.Context, rawURL string) ([]byte, string, error) {
	if l.http == nil {
		return nil, "", errors.New("schema loader: http support disabled")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := l.http.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", errors.New("schema loader: unexpected status " + resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	return data, resp.Header.Get("Content-Type"), nil
}
