package memory

import (
	"context"
	"sync"
	"time"

	"ai-helpdesk-be/pkg/qa"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// ConversationStore keeps session turns in process memory. It backs local
// development and tests where Postgres is not running; sessions evaporate
// on restart and after the idle TTL.
type ConversationStore struct {
	mu    sync.Mutex
	cache *cache.Cache
}

func NewConversationStore() *ConversationStore {
	// Default expiration of 1 hour, purge expired sessions every 10 minutes
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &ConversationStore{
		cache: c,
	}
}

func (s *ConversationStore) GetRecent(ctx context.Context, sessionID uuid.UUID, limit int) ([]qa.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := s.load(sessionID)
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	out := make([]qa.Turn, len(turns))
	copy(out, turns)
	return out, nil
}

func (s *ConversationStore) Append(ctx context.Context, sessionID uuid.UUID, turns ...qa.Turn) error {
	if len(turns) == 0 {
		return nil
	}

	// go-cache Set is atomic per key but load-append-store is not, hence the mutex.
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.load(sessionID)
	merged := make([]qa.Turn, 0, len(existing)+len(turns))
	merged = append(merged, existing...)
	merged = append(merged, turns...)
	s.cache.Set(sessionID.String(), merged, cache.DefaultExpiration)
	return nil
}

func (s *ConversationStore) load(sessionID uuid.UUID) []qa.Turn {
	if x, found := s.cache.Get(sessionID.String()); found {
		return x.([]qa.Turn)
	}
	return nil
}
