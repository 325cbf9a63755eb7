package scene

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"golang.org/x/sync/errgroup"
)

// TextureLoader fetches and decodes body textures. A texture that cannot be
// fetched or decoded is logged and left missing; renderers fall back to the
// body colour.
type TextureLoader struct {
	client  *http.Client
	log     *slog.Logger
	workers int

	mu     sync.RWMutex
	images map[string]image.Image
	failed map[string]error
}

// LoaderOption customises a TextureLoader.
type LoaderOption func(*TextureLoader)

// WithHTTPClient replaces the pooled cleanhttp client.
func WithHTTPClient(c *http.Client) LoaderOption {
	return func(l *TextureLoader) {
		l.client = c
	}
}

// WithWorkers bounds concurrent fetches.
func WithWorkers(n int) LoaderOption {
	return func(l *TextureLoader) {
		if n > 0 {
			l.workers = n
		}
	}
}

// NewTextureLoader returns a loader with a pooled client and four workers.
func NewTextureLoader(log *slog.Logger, opts ...LoaderOption) *TextureLoader {
	client := cleanhttp.DefaultPooledClient()
	client.Timeout = 30 * time.Second

	l := &TextureLoader{
		client:  client,
		log:     log,
		workers: 4,
		images:  make(map[string]image.Image),
		failed:  make(map[string]error),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches every url not already loaded and returns how many decoded.
// Cancelling ctx abandons outstanding fetches.
func (l *TextureLoader) Load(ctx context.Context, urls []string) int {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)

	loaded := 0
	for _, url := range urls {
		if l.Get(url) != nil {
			continue
		}
		g.Go(func() error {
			img, err := l.fetch(ctx, url)

			l.mu.Lock()
			defer l.mu.Unlock()
			if err != nil {
				l.failed[url] = err
				l.log.Warn("texture unavailable", "url", url, "err", err)
				return nil
			}
			l.images[url] = img
			delete(l.failed, url)
			loaded++
			return nil
		})
	}
	_ = g.Wait()

	l.log.Info("textures loaded", "requested", len(urls), "loaded", loaded)
	return loaded
}

func (l *TextureLoader) fetch(ctx context.Context, url string) (image.Image, error) {
	body, err := l.open(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	img, _, err := image.Decode(body)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return img, nil
}

func (l *TextureLoader) open(ctx context.Context, url string) (io.ReadCloser, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return os.Open(strings.TrimPrefix(url, "file://"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return resp.Body, nil
}

// Get returns the decoded texture for url, or nil.
func (l *TextureLoader) Get(url string) image.Image {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.images[url]
}

// Err returns why url failed to load, or nil.
func (l *TextureLoader) Err(url string) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.failed[url]
}
