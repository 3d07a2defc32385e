package config

import (
	"fmt"

	"github.com/google/uuid"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey returns the cache key for a user's login session (JTI).
func (r *CacheKeyStruct) UserSessionKey(userID uuid.UUID) string {
	return fmt.Sprintf("login:%s", userID)
}

// PromptKey returns the cache key for a subject's prompt template.
func (r *CacheKeyStruct) PromptKey(subject string) string {
	return fmt.Sprintf("prompt:%s", subject)
}

// ExamEventsChannel returns the Redis PubSub channel carrying terminal
// status events for one exam job.
func (r *CacheKeyStruct) ExamEventsChannel(hexCode string) string {
	return fmt.Sprintf("exam:%s:events", hexCode)
}

var CacheKey = NewCacheKeyStruct()
