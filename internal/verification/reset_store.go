package verification

import (
	"strings"
	"sync"
	"time"

	"quizhub/internal/models"
)

// ResetStore — эфемерное хранилище токенов восстановления пароля.
// Ключ — сам токен. Несколько живых токенов на один email — допустимо.
type ResetStore interface {
	Put(token string, rec models.PendingReset)
	// Take забирает живую запись и удаляет её безусловно: токен
	// расходуется на попытку, а не на успех.
	Take(token string) (models.PendingReset, bool)
	// Len — количество записей, включая ещё не зачищенные протухшие.
	Len() int
}

type MemoryResetStore struct {
	mu      sync.Mutex
	entries map[string]models.PendingReset
	policy  Policy
	now     func() time.Time
}

func NewMemoryResetStore(policy Policy) *MemoryResetStore {
	return &MemoryResetStore{
		entries: make(map[string]models.PendingReset),
		policy:  policy,
		now:     time.Now,
	}
}

func (s *MemoryResetStore) Put(token string, rec models.PendingReset) {
	token = strings.TrimSpace(token)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[token] = rec
}

func (s *MemoryResetStore) Take(token string) (models.PendingReset, bool) {
	token = strings.TrimSpace(token)
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.entries[token]
	if !ok {
		return models.PendingReset{}, false
	}
	delete(s.entries, token)
	if s.policy.ResetExpired(rec.IssuedAt, s.now()) {
		return models.PendingReset{}, false
	}
	return rec, true
}

func (s *MemoryResetStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryResetStore) SweepExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token, rec := range s.entries {
		if s.policy.ResetExpired(rec.IssuedAt, now) {
			delete(s.entries, token)
			removed++
		}
	}
	return removed
}
