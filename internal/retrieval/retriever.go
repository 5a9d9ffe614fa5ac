package retrieval

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const cacheKeyPrefix = "retrieval:answer:"

// ErrNoDocuments is returned when the store has nothing to answer from.
var ErrNoDocuments = errors.New("document store is empty")

// Retriever composes ranked passages into an answer. A Redis client is
// optional: when present, answers are cached per query; cache failures
// degrade to uncached answering.
type Retriever struct {
	store  *DocumentStore
	cache  *redis.Client
	ttl    time.Duration
	topK   int
	logger *zerolog.Logger
	now    func() time.Time
}

func NewRetriever(store *DocumentStore, cache *redis.Client, ttl time.Duration, topK int, logger *zerolog.Logger) *Retriever {
	if topK <= 0 {
		topK = 3
	}
	return &Retriever{
		store:  store,
		cache:  cache,
		ttl:    ttl,
		topK:   topK,
		logger: logger,
		now:    time.Now,
	}
}

// Answer returns the composed answer for a query. Passages are joined
// with similarity annotations and a latency footer; guard rails redact
// sensitive tokens before the answer leaves the collaborator.
func (r *Retriever) Answer(ctx context.Context, query string) (string, error) {
	if r.store.Len() == 0 {
		return "", ErrNoDocuments
	}

	key := cacheKey(query)
	if r.cache != nil {
		if cached, err := r.cache.Get(ctx, key).Result(); err == nil {
			return cached, nil
		} else if !errors.Is(err, redis.Nil) {
			r.logger.Warn().Err(err).Msg("answer cache read failed")
		}
	}

	start := r.now()
	hits := r.store.Retrieve(query, r.topK)
	elapsed := r.now().Sub(start)

	pieces := make([]string, 0, len(hits))
	for _, hit := range hits {
		pieces = append(pieces, fmt.Sprintf("%s\n[similarity=%.3f]", hit.Text, hit.Score))
	}

	answer := strings.Join(pieces, "\n---\n")
	answer += fmt.Sprintf("\n\n(Retrieval latency: %.3fs, top=%d)", elapsed.Seconds(), r.topK)
	answer = Redact(answer)

	if r.cache != nil {
		if err := r.cache.Set(ctx, key, answer, r.ttl).Err(); err != nil {
			r.logger.Warn().Err(err).Msg("answer cache write failed")
		}
	}
	return answer, nil
}

// ClearCache removes all cached answers. Backs the clear-cache CLI command.
func (r *Retriever) ClearCache(ctx context.Context) (int, error) {
	if r.cache == nil {
		return 0, nil
	}

	var removed int
	iter := r.cache.Scan(ctx, 0, cacheKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := r.cache.Del(ctx, iter.Val()).Err(); err != nil {
			return removed, fmt.Errorf("delete cached answer: %w", err)
		}
		removed++
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("scan answer cache: %w", err)
	}
	return removed, nil
}

func cacheKey(query string) string {
	sum := sha1.Sum([]byte(strings.ToLower(strings.TrimSpace(query))))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}
