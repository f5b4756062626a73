// Package geocode resolves addresses and coordinates for location forms,
// caching answers in redis.
package geocode

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Nafis5858/Krishak/pkg/nominatim"
	pkgerrors "github.com/Nafis5858/Krishak/pkg/errors"
	"github.com/Nafis5858/Krishak/pkg/logger"
	"github.com/Nafis5858/Krishak/pkg/redis"
)

const minQueryLength = 3

type Service interface {
	Search(ctx context.Context, query string) ([]nominatim.Place, error)
	Reverse(ctx context.Context, lat, lng float64) (*nominatim.Place, error)
}

type lookup interface {
	Search(ctx context.Context, query string) ([]nominatim.Place, error)
	Reverse(ctx context.Context, lat, lng float64) (*nominatim.Place, error)
}

type service struct {
	client lookup
	cache  redis.Cache
	ttl    time.Duration
	logg   *logger.Logger
}

// NewService wraps client with a read-through cache. A nil cache disables caching.
func NewService(client lookup, cache redis.Cache, ttl time.Duration, logg *logger.Logger) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("geocoding client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{client: client, cache: cache, ttl: ttl, logg: logg}, nil
}

func (s *service) Search(ctx context.Context, query string) ([]nominatim.Place, error) {
	q := strings.Join(strings.Fields(query), " ")
	if len([]rune(q)) < minQueryLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("query must be at least %d characters", minQueryLength))
	}

	var places []nominatim.Place
	key := s.key("search", strings.ToLower(q))
	if s.fromCache(ctx, key, &places) {
		return places, nil
	}
	places, err := s.client.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	if places == nil {
		places = []nominatim.Place{}
	}
	s.toCache(ctx, key, places)
	return places, nil
}

func (s *service) Reverse(ctx context.Context, lat, lng float64) (*nominatim.Place, error) {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coordinates out of range")
	}

	var place nominatim.Place
	key := s.key("reverse", strconv.FormatFloat(lat, 'f', 5, 64), strconv.FormatFloat(lng, 'f', 5, 64))
	if s.fromCache(ctx, key, &place) {
		return &place, nil
	}
	found, err := s.client.Reverse(ctx, lat, lng)
	if err != nil {
		return nil, err
	}
	s.toCache(ctx, key, found)
	return found, nil
}

func (s *service) key(kind string, parts ...string) string {
	if s.cache == nil {
		return ""
	}
	return s.cache.CacheKey("geocode:"+kind, parts...)
}

func (s *service) fromCache(ctx context.Context, key string, dest any) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.GetJSON(ctx, key, dest)
	if err != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"cache_key": key, "error": err.Error()}), "geocode.cache_read_failed")
		return false
	}
	return hit
}

func (s *service) toCache(ctx context.Context, key string, value any) {
	if s.cache == nil || s.ttl <= 0 {
		return
	}
	if err := s.cache.SetJSON(ctx, key, value, s.ttl); err != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"cache_key": key, "error": err.Error()}), "geocode.cache_write_failed")
	}
}
