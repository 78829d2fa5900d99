package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/theater-booking/internal/config"
)

// captureWriter copies the response body (up to limit bytes) while
// forwarding it to the client.
type captureWriter struct {
	http.ResponseWriter
	status   int
	buf      bytes.Buffer
	size     int64
	limit    int64
	overflow bool
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	cw.size += int64(len(b))
	if cw.limit > 0 && cw.size > cw.limit {
		cw.overflow = true
	} else {
		cw.buf.Write(b)
	}
	return cw.ResponseWriter.Write(b)
}

// cacheKey hashes the request shape selected by the key strategy under the
// configured prefix and cache generation.
func cacheKey(cfg config.CacheConfig, gen int64, c echo.Context) string {
	r := c.Request()
	var parts []string
	switch strings.ToLower(cfg.KeyStrategy) {
	case "route":
		parts = []string{"route", c.Path()}
	case "method_route_query":
		parts = []string{"method", r.Method, "route", c.Path(), "q", r.URL.RawQuery}
	default: // route_query
		parts = []string{"route", c.Path(), "q", r.URL.RawQuery}
	}
	sum := sha1.Sum([]byte(strings.Join(parts, ":")))
	return fmt.Sprintf("%s:g%d:%x", cfg.Prefix, gen, sum[:])
}

// genKey holds the current cache generation.  InvalidateCache bumps it, so
// a response computed before a write is stored under a key no reader asks
// for again.
func genKey(cfg config.CacheConfig) string { return cfg.Prefix + ":gen" }

// generation returns the current generation, 0 when unset.
func generation(ctx context.Context, rdb *redis.Client, cfg config.CacheConfig) (int64, error) {
	gen, err := rdb.Get(ctx, genKey(cfg)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return gen, err
}

// encodePayload packs [4 bytes status][4 bytes header length][header JSON][body].
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
	hdr, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 8+len(hdr)+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdr)))
	copy(out[8:], hdr)
	copy(out[8+len(hdr):], body)
	return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
	if len(bs) < 8 {
		return 0, nil, nil, false
	}
	status = int(binary.BigEndian.Uint32(bs[0:4]))
	hlen := int(binary.BigEndian.Uint32(bs[4:8]))
	if hlen < 0 || 8+hlen > len(bs) {
		return 0, nil, nil, false
	}
	header = make(http.Header)
	if hlen > 0 {
		if err := json.Unmarshal(bs[8:8+hlen], &header); err != nil {
			return 0, nil, nil, false
		}
	}
	return status, header, bs[8+hlen:], true
}

// NewRedisCache serves cached 200 responses for the configured methods and
// stores fresh ones for cfg.TTL.  Responses larger than MaxBodyBytes are
// not cached.  It is a pass-through when disabled or when rdb is nil.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client, log logrus.FieldLogger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passThrough
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	log = log.WithField("component", "cache")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
				return next(c)
			}
			ctx := c.Request().Context()
			gen, err := generation(ctx, rdb, cfg)
			if err != nil {
				log.WithError(err).Warn("cache generation read failed")
				return next(c)
			}
			key := cacheKey(cfg, gen, c)

			if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
				if status, hdr, body, ok := decodePayload(bs); ok {
					for k, vals := range hdr {
						if strings.EqualFold(k, echo.HeaderContentLength) {
							continue
						}
						for _, v := range vals {
							c.Response().Header().Add(k, v)
						}
					}
					c.Response().Header().Set("X-Cache", "HIT")
					c.Response().WriteHeader(status)
					_, _ = c.Response().Write(body)
					return nil
				}
			} else if err != redis.Nil {
				log.WithError(err).Warn("cache read failed")
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: int64(cfg.MaxBodyBytes)}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}
			if cw.status != http.StatusOK || cw.overflow {
				return nil
			}
			hdr := c.Response().Header().Clone()
			hdr.Del("X-Cache")
			payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes())
			if err != nil {
				return nil
			}
			if err := rdb.Set(context.WithoutCancel(ctx), key, payload, ttl).Err(); err != nil {
				log.WithError(err).Warn("cache write failed")
			}
			return nil
		}
	}
}

// InvalidateCache starts a new cache generation after a successful write,
// so listings reflect new bookings immediately instead of after the TTL.
// Entries of older generations are then deleted; one written late by a
// request that began before the write is never read and expires with TTL.
func InvalidateCache(cfg config.CacheConfig, rdb *redis.Client, log logrus.FieldLogger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passThrough
	}
	log = log.WithField("component", "cache")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err != nil || c.Response().Status >= 300 {
				return err
			}
			ctx := context.WithoutCancel(c.Request().Context())
			gen, err := rdb.Incr(ctx, genKey(cfg)).Result()
			if err != nil {
				log.WithError(err).Warn("cache invalidation failed")
				return nil
			}
			current := fmt.Sprintf("%s:g%d:", cfg.Prefix, gen)
			iter := rdb.Scan(ctx, 0, cfg.Prefix+":g*", 100).Iterator()
			var keys []string
			for iter.Next(ctx) {
				if k := iter.Val(); k != genKey(cfg) && !strings.HasPrefix(k, current) {
					keys = append(keys, k)
				}
			}
			if err := iter.Err(); err != nil {
				log.WithError(err).Warn("cache scan failed")
				return nil
			}
			if len(keys) > 0 {
				if err := rdb.Del(ctx, keys...).Err(); err != nil {
					log.WithError(err).Warn("cache cleanup failed")
				}
			}
			return nil
		}
	}
}
