package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// PublicTestKey returns the cache key for a test's public (candidate-safe) payload.
func (r *CacheKeyStruct) PublicTestKey(token string) string {
	return fmt.Sprintf("test:%s:public", token)
}

// AttemptStartKey returns the cache key for an attempt's authoritative start time.
func (r *CacheKeyStruct) AttemptStartKey(attemptID string) string {
	return fmt.Sprintf("attempt:%s:started_at", attemptID)
}

// AttemptViolationCountKey returns the cache key for an attempt's last reported
// violation tally.
func (r *CacheKeyStruct) AttemptViolationCountKey(attemptID string) string {
	return fmt.Sprintf("attempt:%s:violation_count", attemptID)
}

var CacheKey = NewCacheKeyStruct()
