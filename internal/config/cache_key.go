package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// QuestionSetPayloadKey returns the cache key for a set together with all of its questions
func (r *CacheKeyStruct) QuestionSetPayloadKey(kind, slug string) string {
	return fmt.Sprintf("set:%s:%s:payload", kind, slug)
}

// ClientExamModeKey returns the key holding a client's exam mode preference
func (r *CacheKeyStruct) ClientExamModeKey(clientID string) string {
	return fmt.Sprintf("client:%s:pref:exam_mode", clientID)
}

var CacheKey = NewCacheKeyStruct()
