package verification

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"quizhub/internal/models"
	"quizhub/internal/utils"
)

// Redis-бэкенд обоих хранилищ — точка расширения под общий кэш для
// нескольких процессов. Семантика та же, что у memory-варианта: живость
// записи решает Policy по issued_at, а не факт наличия ключа. Ключи
// регистраций живут один период свипа после протухания, чтобы учёт
// переотправок видел только-что-протухшие записи.
//
// Ошибки redis логируются и трактуются как промах: для вызывающего это
// выглядит как "не найдено", запись при этом не создаётся.

type RedisSignupStore struct {
	rdb       *redis.Client
	policy    Policy
	retention time.Duration
	now       func() time.Time
}

func NewRedisSignupStore(rdb *redis.Client, policy Policy, sweepInterval time.Duration) *RedisSignupStore {
	return &RedisSignupStore{
		rdb:       rdb,
		policy:    policy,
		retention: policy.CodeRetention(sweepInterval),
		now:       time.Now,
	}
}

func signupKey(email string) string {
	return "signup:" + utils.NormalizeEmail(email)
}

func (s *RedisSignupStore) get(key string) (models.PendingSignup, bool) {
	data, err := s.rdb.Get(context.Background(), key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[store][redis] get %s: %v", key, err)
		}
		return models.PendingSignup{}, false
	}
	var rec models.PendingSignup
	if err := json.Unmarshal(data, &rec); err != nil {
		log.Printf("[store][redis] decode %s: %v", key, err)
		return models.PendingSignup{}, false
	}
	return rec, true
}

func (s *RedisSignupStore) Lookup(email string) (models.PendingSignup, bool) {
	key := signupKey(email)
	rec, ok := s.get(key)
	if !ok {
		return models.PendingSignup{}, false
	}
	if s.policy.CodeExpired(rec.IssuedAt, s.now()) {
		if err := s.rdb.Del(context.Background(), key).Err(); err != nil {
			log.Printf("[store][redis] del %s: %v", key, err)
		}
		return models.PendingSignup{}, false
	}
	return rec, true
}

func (s *RedisSignupStore) Peek(email string) (models.PendingSignup, bool) {
	return s.get(signupKey(email))
}

func (s *RedisSignupStore) Put(email string, rec models.PendingSignup) {
	data, err := json.Marshal(rec)
	if err != nil {
		log.Printf("[store][redis] encode %s: %v", email, err)
		return
	}
	key := signupKey(email)
	if err := s.rdb.Set(context.Background(), key, data, s.retention).Err(); err != nil {
		log.Printf("[store][redis] set %s: %v", key, err)
	}
}

func (s *RedisSignupStore) Delete(email string) {
	key := signupKey(email)
	if err := s.rdb.Del(context.Background(), key).Err(); err != nil {
		log.Printf("[store][redis] del %s: %v", key, err)
	}
}

// RecordFailedAttempt — read-modify-write без WATCH: гонка возможна только
// между повторами одного и того же пользователя, это принятый компромисс.
func (s *RedisSignupStore) RecordFailedAttempt(email string) (int, bool) {
	key := signupKey(email)
	rec, ok := s.get(key)
	if !ok || s.policy.CodeExpired(rec.IssuedAt, s.now()) {
		return 0, false
	}
	rec.Attempts++
	data, err := json.Marshal(rec)
	if err != nil {
		return 0, false
	}
	// KEEPTTL: остаток retention не переустанавливаем
	if err := s.rdb.Set(context.Background(), key, data, redis.KeepTTL).Err(); err != nil {
		log.Printf("[store][redis] set %s: %v", key, err)
		return 0, false
	}
	return rec.Attempts, true
}

func (s *RedisSignupStore) Snapshot() map[string]models.PendingSignup {
	ctx := context.Background()
	out := make(map[string]models.PendingSignup)
	now := s.now()

	iter := s.rdb.Scan(ctx, 0, "signup:*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		rec, ok := s.get(key)
		if !ok || s.policy.CodeExpired(rec.IssuedAt, now) {
			continue
		}
		out[strings.TrimPrefix(key, "signup:")] = rec
	}
	if err := iter.Err(); err != nil {
		log.Printf("[store][redis] scan: %v", err)
	}
	return out
}

type RedisResetStore struct {
	rdb    *redis.Client
	policy Policy
	now    func() time.Time
}

func NewRedisResetStore(rdb *redis.Client, policy Policy) *RedisResetStore {
	return &RedisResetStore{rdb: rdb, policy: policy, now: time.Now}
}

func resetKey(token string) string {
	return "reset:" + strings.TrimSpace(token)
}

func (s *RedisResetStore) Put(token string, rec models.PendingReset) {
	data, err := json.Marshal(rec)
	if err != nil {
		log.Printf("[store][redis] encode reset: %v", err)
		return
	}
	key := resetKey(token)
	if err := s.rdb.Set(context.Background(), key, data, s.policy.ResetTTL).Err(); err != nil {
		log.Printf("[store][redis] set %s: %v", key, err)
	}
}

// Take — GETDEL: атомарное изъятие гарантирует одноразовость токена
// даже между процессами.
func (s *RedisResetStore) Take(token string) (models.PendingReset, bool) {
	key := resetKey(token)
	data, err := s.rdb.GetDel(context.Background(), key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[store][redis] getdel %s: %v", key, err)
		}
		return models.PendingReset{}, false
	}
	var rec models.PendingReset
	if err := json.Unmarshal(data, &rec); err != nil {
		log.Printf("[store][redis] decode %s: %v", key, err)
		return models.PendingReset{}, false
	}
	if s.policy.ResetExpired(rec.IssuedAt, s.now()) {
		return models.PendingReset{}, false
	}
	return rec, true
}

func (s *RedisResetStore) Len() int {
	ctx := context.Background()
	n := 0
	iter := s.rdb.Scan(ctx, 0, "reset:*", 0).Iterator()
	for iter.Next(ctx) {
		n++
	}
	return n
}
