package learning

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisCountStore sums count models in Redis hashes so that shards trained
// by separate workers or processes can be merged and read back as one model
type RedisCountStore struct {
	client *redis.Client
	config *RedisConfig
}

// RedisConfig holds Redis count store configuration
type RedisConfig struct {
	RedisURL    string `json:"redis_url" yaml:"redis_url"`
	KeyPrefix   string `json:"key_prefix" yaml:"key_prefix"`
	DatabaseNum int    `json:"database_num" yaml:"database_num"`
	BatchSize   int    `json:"batch_size" yaml:"batch_size"`
}

// DefaultRedisConfig returns default Redis configuration
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		RedisURL:    "redis://localhost:6379",
		KeyPrefix:   "bnclass:counts",
		DatabaseNum: 0,
		BatchSize:   1000,
	}
}

// NewRedisCountStore connects to Redis and verifies the connection
func NewRedisCountStore(ctx context.Context, config *RedisConfig) (*RedisCountStore, error) {
	if config == nil {
		config = DefaultRedisConfig()
	}

	opt, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid Redis URL")
	}
	opt.DB = config.DatabaseNum
	client := redis.NewClient(opt)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrap(err, "Redis connection failed")
	}

	return &RedisCountStore{client: client, config: config}, nil
}

// Push adds every count of c to the stored totals
func (rs *RedisCountStore) Push(ctx context.Context, c *Counts) error {
	metaKey := rs.key("meta")

	// The first pusher fixes the variant of the stored model
	if err := rs.client.HSetNX(ctx, metaKey, "variant", c.Variant.String()).Err(); err != nil {
		return errors.Wrap(err, "failed to set stored variant")
	}
	stored, err := rs.client.HGet(ctx, metaKey, "variant").Result()
	if err != nil {
		return errors.Wrap(err, "failed to read stored variant")
	}
	if stored != c.Variant.String() {
		return errors.Errorf("store holds %s counts, cannot push %s counts", stored, c.Variant)
	}

	batch := newPipelineBatch(ctx, rs.client, rs.config.BatchSize)
	batch.incr(metaKey, "instances", c.Instances)

	classKey := rs.key("class")
	for k, n := range c.Class {
		batch.incr(classKey, encodeField(part(k)), n)
	}
	pairKey := rs.key("pair")
	for k, n := range c.Pair {
		batch.incr(pairKey, encodeField(part(k.Attr), part(k.Class)), n)
	}
	tripleKey := rs.key("triple")
	for k, n := range c.Triple {
		batch.incr(tripleKey, encodeField(part(k.Child), part(k.Parent), part(k.Class)), n)
	}

	if err := batch.flush(); err != nil {
		return errors.Wrap(err, "failed to push counts")
	}
	return nil
}

// Load reads the summed counts back into memory
func (rs *RedisCountStore) Load(ctx context.Context) (*Counts, error) {
	meta, err := rs.client.HGetAll(ctx, rs.key("meta")).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read count metadata")
	}
	if len(meta) == 0 {
		return nil, errors.New("count store is empty")
	}

	v, err := ParseVariant(meta["variant"])
	if err != nil {
		return nil, errors.Wrap(err, "invalid stored variant")
	}
	counts := NewCounts(v)
	if counts.Instances, err = strconv.Atoi(meta["instances"]); err != nil {
		return nil, errors.Wrap(err, "invalid stored instance count")
	}

	err = rs.scanHash(ctx, "class", 1, func(parts []part, n int) {
		counts.Class[ClassValue(parts[0])] = n
	})
	if err != nil {
		return nil, err
	}
	err = rs.scanHash(ctx, "pair", 2, func(parts []part, n int) {
		counts.Pair[PairKey{AttrValue(parts[0]), ClassValue(parts[1])}] = n
	})
	if err != nil {
		return nil, err
	}
	if v == VariantAODE {
		err = rs.scanHash(ctx, "triple", 3, func(parts []part, n int) {
			counts.Triple[TripleKey{AttrValue(parts[0]), AttrValue(parts[1]), ClassValue(parts[2])}] = n
		})
		if err != nil {
			return nil, err
		}
	}

	return counts, nil
}

// scanHash decodes every field of a count hash whose keys have arity parts
func (rs *RedisCountStore) scanHash(ctx context.Context, family string, arity int, fn func([]part, int)) error {
	fields, err := rs.client.HGetAll(ctx, rs.key(family)).Result()
	if err != nil {
		return errors.Wrapf(err, "failed to read %s counts", family)
	}
	for field, value := range fields {
		parts, err := decodeField(field)
		if err != nil {
			return errors.Wrapf(err, "invalid %s key %q", family, field)
		}
		if len(parts) != arity {
			return errors.Errorf("invalid %s key %q: want %d components, got %d", family, field, arity, len(parts))
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return errors.Wrapf(err, "invalid %s count for %q", family, field)
		}
		fn(parts, n)
	}
	return nil
}

// Reset deletes the stored model
func (rs *RedisCountStore) Reset(ctx context.Context) error {
	return rs.client.Del(ctx, rs.key("meta"), rs.key("class"), rs.key("pair"), rs.key("triple")).Err()
}

// Close closes the Redis connection
func (rs *RedisCountStore) Close() error {
	return rs.client.Close()
}

func (rs *RedisCountStore) key(family string) string {
	return fmt.Sprintf("%s:%s", rs.config.KeyPrefix, family)
}

// pipelineBatch queues HINCRBY commands and executes them every size commands
type pipelineBatch struct {
	ctx    context.Context
	client *redis.Client
	pipe   redis.Pipeliner
	size   int
	queued int
	err    error
}

func newPipelineBatch(ctx context.Context, client *redis.Client, size int) *pipelineBatch {
	if size < 1 {
		size = 1
	}
	return &pipelineBatch{ctx: ctx, client: client, pipe: client.Pipeline(), size: size}
}

func (b *pipelineBatch) incr(key, field string, n int) {
	if b.err != nil {
		return
	}
	b.pipe.HIncrBy(b.ctx, key, field, int64(n))
	b.queued++
	if b.queued >= b.size {
		b.err = b.flush()
	}
}

func (b *pipelineBatch) flush() error {
	if b.err != nil {
		return b.err
	}
	if b.queued == 0 {
		return nil
	}
	_, err := b.pipe.Exec(b.ctx)
	b.pipe = b.client.Pipeline()
	b.queued = 0
	return err
}

// part is one (index, value) component of a count key
type part struct {
	Index int
	Value string
}

// encodeField renders key components as idx:"value" joined by '|'
func encodeField(parts ...part) string {
	var sb strings.Builder
	for i, p := range parts {
		if i > 0 {
			sb.WriteByte('|')
		}
		sb.WriteString(strconv.Itoa(p.Index))
		sb.WriteByte(':')
		sb.WriteString(strconv.Quote(p.Value))
	}
	return sb.String()
}

func decodeField(field string) ([]part, error) {
	var parts []part
	rest := field
	for {
		colon := strings.IndexByte(rest, ':')
		if colon < 0 {
			return nil, errors.New("missing index separator")
		}
		idx, err := strconv.Atoi(rest[:colon])
		if err != nil {
			return nil, errors.Wrap(err, "invalid index")
		}
		rest = rest[colon+1:]

		quoted, err := strconv.QuotedPrefix(rest)
		if err != nil {
			return nil, errors.Wrap(err, "invalid value")
		}
		value, err := strconv.Unquote(quoted)
		if err != nil {
			return nil, errors.Wrap(err, "invalid value")
		}
		parts = append(parts, part{Index: idx, Value: value})

		rest = rest[len(quoted):]
		if rest == "" {
			return parts, nil
		}
		if rest[0] != '|' {
			return nil, errors.Errorf("unexpected %q after component", rest[0])
		}
		rest = rest[1:]
	}
}
