package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode"

	"go.uber.org/zap"
)

// Opener issues an authenticated GET for a path on the application's own
// backend. *api.Client implements it.
type Opener interface {
	Open(ctx context.Context, path string) (*http.Response, error)
}

// Resolver turns a Ref into something renderable.
type Resolver interface {
	Resolve(ctx context.Context, ref Ref) (Resource, error)
}

// Ensure Loader implements Resolver at compile time.
var _ Resolver = (*Loader)(nil)

// Resource is a resolved Ref. Handle is nil for pass-through URLs.
type Resource struct {
	URL    string
	Handle *Handle
}

// Owned reports whether the resource holds a local handle that must be released.
func (r Resource) Owned() bool { return r.Handle != nil }

// Release frees the owned handle, if any.
func (r Resource) Release() bool { return r.Handle.Release() }

const defaultMaxBytes int64 = 64 << 20

var (
	errEmptyRef   = errors.New("empty reference")
	errInvalidRef = errors.New("reference contains control characters")
)

// Options configure a Loader.
type Options struct {
	UploadPrefix string
	MaxBytes     int64
	Registry     *Registry
	Logger       *zap.Logger
}

// Loader resolves refs, fetching relative ones through the Opener and
// materialising their bodies into owned handles.
type Loader struct {
	opener   Opener
	prefix   string
	maxBytes int64
	registry *Registry
	log      *zap.Logger
}

// NewLoader builds a Loader. Zero-valued options use defaults.
func NewLoader(opener Opener, opts Options) *Loader {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	registry := opts.Registry
	if registry == nil {
		registry = NewRegistry(log)
	}
	prefix := opts.UploadPrefix
	if prefix == "" {
		prefix = DefaultUploadPrefix
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	return &Loader{
		opener:   opener,
		prefix:   prefix,
		maxBytes: maxBytes,
		registry: registry,
		log:      log,
	}
}

// Registry returns the registry tracking this loader's handles.
func (l *Loader) Registry() *Registry { return l.registry }

// Path returns the backend path a relative ref is fetched from.
func (l *Loader) Path(ref Ref) string { return NormalizePath(l.prefix, string(ref)) }

// Resolve returns absolute refs unchanged. Relative refs are fetched and a
// 200 body is returned as an owned handle; every failure is an *Error. A ref
// that cannot name a file is reported as not found without a request.
func (l *Loader) Resolve(ctx context.Context, ref Ref) (Resource, error) {
	if ref.IsAbsolute() {
		return Resource{URL: string(ref)}, nil
	}
	path := l.Path(ref)
	if path == "" {
		return Resource{}, &Error{Kind: KindNotFound, Ref: ref, Err: errEmptyRef}
	}
	if strings.ContainsFunc(path, unicode.IsControl) {
		return Resource{}, &Error{Kind: KindNotFound, Ref: ref, Err: errInvalidRef}
	}
	if l.opener == nil {
		return Resource{}, &Error{Kind: KindNetwork, Ref: ref, Err: fmt.Errorf("no opener configured")}
	}

	resp, err := l.opener.Open(ctx, path)
	if err != nil {
		l.log.Debug("fetch failed", zap.String("path", path), zap.Error(err))
		return Resource{}, &Error{Kind: KindNetwork, Ref: ref, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return Resource{}, &Error{Kind: KindUnauthorized, Ref: ref, Status: resp.StatusCode}
	case resp.StatusCode == http.StatusNotFound:
		return Resource{}, &Error{Kind: KindNotFound, Ref: ref, Status: resp.StatusCode}
	case resp.StatusCode != http.StatusOK:
		return Resource{}, &Error{
			Kind:       KindFetchFailed,
			Ref:        ref,
			Status:     resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, l.maxBytes+1))
	if err != nil {
		return Resource{}, &Error{Kind: KindNetwork, Ref: ref, Err: fmt.Errorf("read body: %w", err)}
	}
	if int64(len(body)) > l.maxBytes {
		return Resource{}, &Error{
			Kind:       KindFetchFailed,
			Ref:        ref,
			Status:     resp.StatusCode,
			StatusText: fmt.Sprintf("larger than %d bytes", l.maxBytes),
		}
	}

	h := l.registry.newHandle(body, detectContentType(resp.Header.Get("Content-Type"), body))
	if err := validate(h); err != nil {
		h.Release()
		return Resource{}, &Error{Kind: KindDisplay, Ref: ref, Err: err}
	}
	if err := ctx.Err(); err != nil {
		h.Release()
		return Resource{}, &Error{Kind: KindNetwork, Ref: ref, Err: err}
	}
	l.log.Debug("fetched", zap.String("path", path), zap.String("handle", h.URL()), zap.String("type", h.ContentType()))
	return Resource{URL: h.URL(), Handle: h}, nil
}
