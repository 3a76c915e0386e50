// Package gallery serves the public photo listing from the configured image host.
package gallery

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"storefront/internal/imagehost"
	"storefront/pkg/cache"
	"storefront/pkg/logger"
)

const cacheKey = "gallery:public"

// listTimeout bounds the shared host call, which outlives any single caller.
const listTimeout = 20 * time.Second

// Service lists, orders and caches the public gallery.
type Service struct {
	host  imagehost.Host
	cache cache.Store
	limit int
	group singleflight.Group
}

func NewService(host imagehost.Host, store cache.Store, limit int) *Service {
	if store == nil {
		store = cache.Noop{}
	}
	if limit <= 0 {
		limit = 50
	}
	return &Service{host: host, cache: store, limit: limit}
}

// List returns at most limit resources, newest first, with delivery URLs
// rewritten for automatic format and quality.
func (s *Service) List(ctx context.Context) ([]imagehost.Resource, error) {
	if data, ok := s.cache.Get(ctx, cacheKey); ok {
		var cached []imagehost.Resource
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
		s.cache.Delete(ctx, cacheKey)
	}

	ch := s.group.DoChan(cacheKey, func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), listTimeout)
		defer cancel()

		res, err := s.host.List(callCtx, imagehost.ListOptions{Max: s.limit})
		if err != nil {
			return nil, err
		}

		res = Prepare(res)
		if data, err := json.Marshal(res); err == nil {
			s.cache.Set(callCtx, cacheKey, data)
		} else {
			logger.LogWarn("[GALLERY] cache encode failed: %v", err)
		}
		return res, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.([]imagehost.Resource), nil
	}
}

// Invalidate drops the cached listing after an upload or delete.
func (s *Service) Invalidate(ctx context.Context) {
	s.cache.Delete(ctx, cacheKey)
}

// Prepare sorts newest first and rewrites delivery URLs. It never returns nil.
func Prepare(in []imagehost.Resource) []imagehost.Resource {
	out := make([]imagehost.Resource, len(in))
	copy(out, in)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	for i := range out {
		out[i].SecureURL = AutoFormatURL(out[i].SecureURL)
	}
	return out
}

// AutoFormatURL inserts f_auto,q_auto after the first /upload/ segment of a CDN URL.
// Other URLs are returned unchanged.
func AutoFormatURL(u string) string {
	const marker = "/upload/"
	idx := strings.Index(u, marker)
	if idx < 0 {
		return u
	}
	rest := u[idx+len(marker):]
	if strings.HasPrefix(rest, "f_auto") {
		return u
	}
	return u[:idx+len(marker)] + "f_auto,q_auto/" + rest
}
