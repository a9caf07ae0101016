package verification

import (
	"sync"
	"time"

	"quizhub/internal/models"
	"quizhub/internal/utils"
)

// SignupStore — эфемерное хранилище незавершённых регистраций.
// Ключ — нормализованный email; одна живая запись на адрес.
type SignupStore interface {
	// Lookup возвращает живую запись. Протухшая удаляется прямо при чтении,
	// для вызывающего это неотличимо от "не найдено".
	Lookup(email string) (models.PendingSignup, bool)
	// Peek возвращает запись как есть, без проверки TTL. Нужен учёту
	// переотправок: только-что-протухшая запись всё ещё считается.
	Peek(email string) (models.PendingSignup, bool)
	Put(email string, rec models.PendingSignup)
	Delete(email string)
	// RecordFailedAttempt атомарно инкрементирует attempts живой записи
	// и возвращает новое значение.
	RecordFailedAttempt(email string) (int, bool)
	// Snapshot — копия живых записей (для дев-эндпоинта /otp-status).
	Snapshot() map[string]models.PendingSignup
}

type MemorySignupStore struct {
	mu      sync.Mutex
	entries map[string]models.PendingSignup
	policy  Policy
	now     func() time.Time
}

func NewMemorySignupStore(policy Policy) *MemorySignupStore {
	return &MemorySignupStore{
		entries: make(map[string]models.PendingSignup),
		policy:  policy,
		now:     time.Now,
	}
}

func (s *MemorySignupStore) Lookup(email string) (models.PendingSignup, bool) {
	key := utils.NormalizeEmail(email)
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.entries[key]
	if !ok {
		return models.PendingSignup{}, false
	}
	if s.policy.CodeExpired(rec.IssuedAt, s.now()) {
		delete(s.entries, key)
		return models.PendingSignup{}, false
	}
	return rec, true
}

func (s *MemorySignupStore) Peek(email string) (models.PendingSignup, bool) {
	key := utils.NormalizeEmail(email)
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.entries[key]
	return rec, ok
}

func (s *MemorySignupStore) Put(email string, rec models.PendingSignup) {
	key := utils.NormalizeEmail(email)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = rec
}

func (s *MemorySignupStore) Delete(email string) {
	key := utils.NormalizeEmail(email)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

func (s *MemorySignupStore) RecordFailedAttempt(email string) (int, bool) {
	key := utils.NormalizeEmail(email)
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.entries[key]
	if !ok || s.policy.CodeExpired(rec.IssuedAt, s.now()) {
		return 0, false
	}
	rec.Attempts++
	s.entries[key] = rec
	return rec.Attempts, true
}

func (s *MemorySignupStore) Snapshot() map[string]models.PendingSignup {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	out := make(map[string]models.PendingSignup, len(s.entries))
	for key, rec := range s.entries {
		if s.policy.CodeExpired(rec.IssuedAt, now) {
			continue
		}
		out[key] = rec
	}
	return out
}

// SweepExpired — периодическая зачистка для Sweeper. Корректность не зависит
// от неё (Lookup сам проверяет TTL), это только ограничение памяти.
func (s *MemorySignupStore) SweepExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, rec := range s.entries {
		if s.policy.CodeExpired(rec.IssuedAt, now) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}
