package middlewares

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/gob"
	"encoding/hex"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type cachedBody struct {
	Status int
	Header map[string][]string
	Body   []byte
}

// sha1Hex keeps Redis keys short regardless of path/query length.
func sha1Hex(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// CacheKeyFrom namespaces cache keys by resource so invalidation can target
// the list and item keyspaces separately. Only the public event reads are
// cacheable: anything carrying a session (/my-bookings, /me) is per-user and
// must never be served from a shared cache.
func CacheKeyFrom(c *gin.Context) (string, string) {
	method := c.Request.Method
	path := c.FullPath()
	rawq := c.Request.URL.RawQuery

	if method != "GET" || path == "" {
		return "", ""
	}

	switch {
	case strings.HasPrefix(path, "/events/:id"):
		id := c.Param("id")
		return "cache:events:item:" + sha1Hex("GET|/events/"+id), "item"
	case path == "/events":
		return "cache:events:list:" + sha1Hex("GET|/events|"+rawq), "list"
	default:
		return "", ""
	}
}

// ResponseCache serves cacheable GETs from Redis and records 2xx responses
// on a miss. X-Cache reports HIT or MISS.
func ResponseCache(rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, _ := CacheKeyFrom(c)
		if key == "" {
			c.Next()
			return
		}

		if b, err := rdb.Get(context.Background(), key).Bytes(); err == nil && len(b) > 0 {
			var hit cachedBody
			if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&hit); err == nil {
				for k, vals := range hit.Header {
					for _, v := range vals {
						c.Writer.Header().Add(k, v)
					}
				}
				c.Writer.Header().Set("X-Cache", "HIT")
				c.Status(hit.Status)
				_, _ = c.Writer.Write(hit.Body)
				c.Abort()
				return
			}
		}

		// Miss: capture the response while it streams to the client. Headers
		// go out with the first body write, so X-Cache must be set before
		// the handlers run.
		c.Writer.Header().Set("X-Cache", "MISS")
		buf := &bytes.Buffer{}
		bw := &bufferedWriter{ResponseWriter: c.Writer, buf: buf}
		c.Writer = bw

		c.Next()

		if bw.Status() >= 200 && bw.Status() < 300 {
			item := cachedBody{
				Status: bw.Status(),
				Header: c.Writer.Header(),
				Body:   buf.Bytes(),
			}
			var o bytes.Buffer
			if err := gob.NewEncoder(&o).Encode(item); err == nil {
				_ = rdb.Set(context.Background(), key, o.Bytes(), ttl).Err()
			}
		}
	}
}

type bufferedWriter struct {
	gin.ResponseWriter
	buf *bytes.Buffer
}

func (w *bufferedWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}
