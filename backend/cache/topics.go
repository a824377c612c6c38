// Package cache holds the read-through topic/question cache. Question data
// is read on every submission but changes rarely, so it is cached in redis
// under a bounded TTL and explicitly invalidated on question writes. The
// engine itself never caches; this layer owns it.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"quizcraft/backend/models"
)

// ErrTopicNotFound is returned when the topic id does not exist.
var ErrTopicNotFound = errors.New("topic not found")

const questionKeyPrefix = "topic:questions:"

type TopicCache struct {
	rdb *redis.Client
	db  *gorm.DB
	ttl time.Duration
}

// NewTopicCache wraps the question lookup. A nil redis client disables
// caching and every read goes straight to the database.
func NewTopicCache(rdb *redis.Client, db *gorm.DB, ttl time.Duration) *TopicCache {
	return &TopicCache{rdb: rdb, db: db, ttl: ttl}
}

// Questions returns the question set of a topic, canonical answers included.
// Redis failures fall back to the database: a broken cache slows the
// pipeline down but never fails a submission.
func (c *TopicCache) Questions(ctx context.Context, topicID uint) ([]models.Question, error) {
	key := questionKey(topicID)

	if c.rdb != nil {
		payload, err := c.rdb.Get(ctx, key).Bytes()
		if err == nil {
			var questions []models.Question
			if json.Unmarshal(payload, &questions) == nil {
				return questions, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			log.Printf("topic cache read failed: %v", err)
		}
	}

	var topic models.Topic
	if err := c.db.WithContext(ctx).First(&topic, topicID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTopicNotFound
		}
		return nil, err
	}

	var questions []models.Question
	if err := c.db.WithContext(ctx).
		Where("topic_id = ?", topicID).
		Order("sequence_order").
		Find(&questions).Error; err != nil {
		return nil, err
	}

	if c.rdb != nil {
		if payload, err := json.Marshal(questions); err == nil {
			if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
				log.Printf("topic cache write failed: %v", err)
			}
		}
	}
	return questions, nil
}

// Invalidate drops the cached question set after a question write.
func (c *TopicCache) Invalidate(ctx context.Context, topicID uint) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, questionKey(topicID)).Err(); err != nil {
		log.Printf("topic cache invalidation failed: %v", err)
	}
}

func questionKey(topicID uint) string {
	return fmt.Sprintf("%s%d", questionKeyPrefix, topicID)
}
