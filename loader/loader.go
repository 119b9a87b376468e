package loader

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/binzume/fbxscene/fbx"
	"go.uber.org/zap"
)

// ErrUnsupportedScheme is returned for URLs no Fetcher is registered for.
var ErrUnsupportedScheme = errors.New("loader: unsupported url scheme")

// Loader resolves URLs to scenes through a Cache.
type Loader struct {
	cache    *Cache
	fetchers map[string]Fetcher
	base     *url.URL
	logger   *zap.Logger
	fbxOpts  []fbx.Option
}

type Option func(*Loader)

// WithCache shares c between loaders.
func WithCache(c *Cache) Option {
	return func(l *Loader) { l.cache = c }
}

// WithFetcher registers f for a URL scheme.
func WithFetcher(scheme string, f Fetcher) Option {
	return func(l *Loader) { l.fetchers[scheme] = f }
}

// WithBase sets the URL relative references are resolved against.
func WithBase(base *url.URL) Option {
	return func(l *Loader) { l.base = base }
}

func WithLogger(logger *zap.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithResolveOptions passes options to fbx.Resolve.
func WithResolveOptions(opts ...fbx.Option) Option {
	return func(l *Loader) { l.fbxOpts = append(l.fbxOpts, opts...) }
}

func New(opts ...Option) *Loader {
	l := &Loader{
		fetchers: map[string]Fetcher{
			"file":  FileFetcher{},
			"http":  HTTPFetcher{},
			"https": HTTPFetcher{},
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.cache == nil {
		l.cache = NewCache()
	}
	return l
}

func (l *Loader) Cache() *Cache {
	return l.cache
}

func (l *Loader) Logger() *zap.Logger {
	return l.logger
}

// Key returns the absolute URL a reference resolves to. Plain paths become file URLs.
func (l *Loader) Key(ref string) (string, error) {
	u, err := l.absURL(ref)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (l *Loader) absURL(ref string) (*url.URL, error) {
	u, err := url.Parse(ref)
	if err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		return u, nil
	}
	if l.base != nil && err == nil {
		return l.base.ResolveReference(u), nil
	}
	// Windows drive letters parse as a one-letter scheme.
	path, err := filepath.Abs(ref)
	if err != nil {
		return nil, err
	}
	return &url.URL{Scheme: "file", Path: filepath.ToSlash(path)}, nil
}

// Load returns the scene for ref, fetching and resolving it on first use.
func (l *Loader) Load(ctx context.Context, ref string) (*fbx.Scene, error) {
	u, err := l.absURL(ref)
	if err != nil {
		return nil, err
	}
	key := u.String()
	return l.cache.GetOrLoad(ctx, key, func(ctx context.Context) (*fbx.Scene, error) {
		f, ok := l.fetchers[u.Scheme]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, key)
		}
		r, err := f.Fetch(ctx, u)
		if err != nil {
			return nil, fmt.Errorf("fetching %s: %w", key, err)
		}
		defer r.Close()
		nodes, err := fbx.Parse(r)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", key, err)
		}
		s := fbx.Resolve(nodes, append([]fbx.Option{fbx.WithLogger(l.logger)}, l.fbxOpts...)...)
		l.logger.Info("loaded document",
			zap.String("url", key),
			zap.Int("objects", len(s.Objects.All)),
			zap.Int("connections", s.Stats.Linked),
			zap.Int("dropped", s.Stats.Dropped))
		return s, nil
	})
}
