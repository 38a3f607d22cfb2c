// Package sizecache answers "how big is this datastore file" without
// re-opening a download for every ask. Sizes are resolved through a
// short-lived DatastoreReadStream and cached with a bounded TTL.
package sizecache

import (
	"context"
	"time"

	"github.com/goburrow/cache"
	"github.com/sirupsen/logrus"

	"datastore-transfer/pkg/transferio"
)

const (
	defaultMaxEntries = 1024
	defaultTTL        = 5 * time.Minute
)

// Cache resolves and caches datastore file sizes keyed by file path. All
// other connection parameters are fixed at construction.
type Cache struct {
	conn  transferio.DatastoreParams
	log   logrus.FieldLogger
	sizes cache.LoadingCache
}

// Option adjusts cache construction.
type Option func(*options)

type options struct {
	maxEntries int
	ttl        time.Duration
}

// WithMaxEntries bounds the number of cached paths.
func WithMaxEntries(n int) Option {
	return func(o *options) { o.maxEntries = n }
}

// WithTTL bounds how long a cached size is trusted.
func WithTTL(d time.Duration) Option {
	return func(o *options) { o.ttl = d }
}

// New builds a size cache over the datastore identified by conn. The
// FilePath field of conn is ignored; lookups supply their own path.
func New(conn transferio.DatastoreParams, log logrus.FieldLogger, opts ...Option) *Cache {
	o := options{maxEntries: defaultMaxEntries, ttl: defaultTTL}
	for _, opt := range opts {
		opt(&o)
	}
	c := &Cache{conn: conn, log: log}
	c.sizes = cache.NewLoadingCache(c.load,
		cache.WithMaximumSize(o.maxEntries),
		cache.WithExpireAfterWrite(o.ttl),
	)
	return c
}

// Size returns the byte count of the datastore file at path, or -1 when
// the datastore does not report one. Cached entries are served without
// touching the datastore.
func (c *Cache) Size(path string) (int64, error) {
	v, err := c.sizes.Get(path)
	if err != nil {
		return -1, err
	}
	return v.(int64), nil
}

func (c *Cache) load(key cache.Key) (cache.Value, error) {
	params := c.conn
	params.FilePath = key.(string)
	rs, err := transferio.NewDatastoreReadStream(context.Background(), params, c.log)
	if err != nil {
		return nil, err
	}
	defer rs.Close()
	return rs.Size(), nil
}

// Close releases the cache's bookkeeping resources.
func (c *Cache) Close() error {
	return c.sizes.Close()
}
