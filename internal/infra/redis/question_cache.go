package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quiz-scoring-service/internal/app"
	"quiz-scoring-service/internal/domain"
)

// QuestionCache is a read-through Redis cache in front of a question
// repository. Single questions are stored as JSON under question:{id} with a
// jittered TTL; every write path delegates to the inner repository and then
// drops the cached entry. Listings and counts always hit the inner store, the
// cache only serves the hot per-question reads on the answer path.
type QuestionCache struct {
	client *redis.Client
	inner  app.QuestionRepository
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuestionCache(client *redis.Client, inner app.QuestionRepository, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		inner:  inner,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) GetQuestion(ctx context.Context, id int64) (domain.Question, error) {
	key := c.key(id)
	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var question domain.Question
		if err := json.Unmarshal(raw, &question); err == nil {
			return question, nil
		}
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check in case another goroutine filled the entry.
		if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
			var question domain.Question
			if err := json.Unmarshal(raw, &question); err == nil {
				return question, nil
			}
		}

		question, err := c.inner.GetQuestion(ctx, id)
		if err != nil {
			return domain.Question{}, err
		}
		if raw, err := json.Marshal(question); err == nil {
			_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
		}
		return question, nil
	})
	if err != nil {
		return domain.Question{}, err
	}
	return result.(domain.Question), nil
}

func (c *QuestionCache) ListQuestions(ctx context.Context, f domain.QuestionFilter) ([]domain.Question, error) {
	return c.inner.ListQuestions(ctx, f)
}

func (c *QuestionCache) CreateQuestion(ctx context.Context, q *domain.Question) error {
	if err := c.inner.CreateQuestion(ctx, q); err != nil {
		return err
	}
	_ = c.client.Del(ctx, c.key(q.ID)).Err()
	return nil
}

func (c *QuestionCache) UpdateQuestion(ctx context.Context, q *domain.Question) error {
	if err := c.inner.UpdateQuestion(ctx, q); err != nil {
		return err
	}
	_ = c.client.Del(ctx, c.key(q.ID)).Err()
	return nil
}

func (c *QuestionCache) CountActiveQuestions(ctx context.Context) (int, error) {
	return c.inner.CountActiveQuestions(ctx)
}

func (c *QuestionCache) CountActiveQuestionsByCategory(ctx context.Context) (map[string]int, error) {
	return c.inner.CountActiveQuestionsByCategory(ctx)
}

func (c *QuestionCache) key(id int64) string {
	return "question:" + strconv.FormatInt(id, 10)
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
