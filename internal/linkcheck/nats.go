package linkcheck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/ardlang/ardoc/internal/config"
)

// natsCache backs the verification cache with a JetStream key-value bucket
// and publishes broken-link events on the configured subject. Results then
// survive across runs and are shared between machines checking the same docs.
type natsCache struct {
	conn        *nats.Conn
	js          jetstream.JetStream
	kv          jetstream.KeyValue
	subject     string
	ttlOK       time.Duration
	ttlFailures time.Duration
}

func newNATSCache(cfg *config.LinkCheckConfig, ttlOK, ttlFailures time.Duration) (*natsCache, error) {
	conn, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	c := &natsCache{
		conn:        conn,
		js:          js,
		subject:     cfg.Subject,
		ttlOK:       ttlOK,
		ttlFailures: ttlFailures,
	}
	if err := c.initBucket(cfg.KVBucket); err != nil {
		conn.Close()
		return nil, err
	}
	slog.Info("link cache connected", "url", cfg.NATSURL, "bucket", cfg.KVBucket, "subject", cfg.Subject)
	return c, nil
}

func (c *natsCache) initBucket(bucket string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	kv, err := c.js.KeyValue(ctx, bucket)
	if err == nil {
		c.kv = kv
		return nil
	}
	kv, err = c.js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "External link verification cache",
		MaxBytes:    100 * 1024 * 1024,
		History:     1,
	})
	if err != nil {
		return fmt.Errorf("create KV bucket %s: %w", bucket, err)
	}
	c.kv = kv
	return nil
}

func (c *natsCache) GetCachedResult(ctx context.Context, url string) (*CacheEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	entry, err := c.kv.Get(ctx, cacheKey(url))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cache entry: %w", err)
	}
	var cached CacheEntry
	if err := json.Unmarshal(entry.Value(), &cached); err != nil {
		return nil, fmt.Errorf("unmarshal cache entry: %w", err)
	}
	return &cached, nil
}

func (c *natsCache) SetCachedResult(ctx context.Context, entry *CacheEntry) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	entry.LastChecked = time.Now()
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	if _, err := c.kv.Put(ctx, cacheKey(entry.URL), data); err != nil {
		return fmt.Errorf("put cache entry: %w", err)
	}
	return nil
}

// IsCacheValid checks staleness against the configured TTLs. KV keys have no
// per-key TTL, so age is evaluated on read.
func (c *natsCache) IsCacheValid(entry *CacheEntry) bool {
	if entry == nil {
		return false
	}
	ttl := c.ttlOK
	if !entry.IsValid {
		ttl = c.ttlFailures
	}
	return time.Since(entry.LastChecked) < ttl
}

func (c *natsCache) PublishBrokenLink(ctx context.Context, event *BrokenLinkEvent) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	event.Timestamp = time.Now()
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := c.js.Publish(ctx, c.subject, data); err != nil {
		return fmt.Errorf("publish broken link event: %w", err)
	}
	slog.Debug("published broken link event", "url", event.URL, "source", event.SourceSlug)
	return nil
}

func (c *natsCache) Close() error {
	if c.conn != nil {
		c.conn.Close()
	}
	return nil
}

// cacheKey makes a URL safe for use as a KV key. JetStream keys cannot
// contain several URL characters, so the URL is hex-encoded.
func cacheKey(url string) string {
	return fmt.Sprintf("url.%x", url)
}
