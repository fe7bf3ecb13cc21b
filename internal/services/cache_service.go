package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const galleryCacheVersionKey = "gallery:list:ver"

// CacheService caches gallery listing pages in Redis. Invalidation
// bumps a version counter instead of scanning keys; stale pages age
// out via TTL.
type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheService(client *redis.Client, ttl time.Duration) *CacheService {
	return &CacheService{client: client, ttl: ttl}
}

func (s *CacheService) listKey(ctx context.Context, limit, offset int) string {
	ver, err := s.client.Get(ctx, galleryCacheVersionKey).Int64()
	if err != nil && err != redis.Nil {
		ver = 0
	}
	return fmt.Sprintf("gallery:list:%d:%d:%d", ver, limit, offset)
}

// GetList returns a cached listing page, or nil on miss.
func (s *CacheService) GetList(ctx context.Context, limit, offset int) []byte {
	if s == nil || s.client == nil {
		return nil
	}
	data, err := s.client.Get(ctx, s.listKey(ctx, limit, offset)).Bytes()
	if err != nil {
		return nil
	}
	return data
}

// SetList stores a rendered listing page.
func (s *CacheService) SetList(ctx context.Context, limit, offset int, payload []byte) {
	if s == nil || s.client == nil {
		return
	}
	if err := s.client.Set(ctx, s.listKey(ctx, limit, offset), payload, s.ttl).Err(); err != nil {
		log.Printf("Gallery cache set failed: %v", err)
	}
}

// Invalidate is the hook invoked after every mutating gallery
// operation so dependent listing pages reflect the change.
func (s *CacheService) Invalidate(ctx context.Context) {
	if s == nil || s.client == nil {
		return
	}
	if err := s.client.Incr(ctx, galleryCacheVersionKey).Err(); err != nil {
		log.Printf("Gallery cache invalidation failed: %v", err)
	}
}
