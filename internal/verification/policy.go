package verification

import "time"

// Policy — чистые решения по TTL и кулдауну. Никакого состояния,
// все хранилища и движок верификации считают время только через неё.
type Policy struct {
	CodeTTL        time.Duration
	ResendCooldown time.Duration
	MaxAttempts    int
	MaxResends     int
	ResetTTL       time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		CodeTTL:        5 * time.Minute,
		ResendCooldown: 60 * time.Second,
		MaxAttempts:    3,
		MaxResends:     3,
		ResetTTL:       1 * time.Hour,
	}
}

// CodeExpired — код мёртв строго после истечения TTL (now - issuedAt > ttl).
func (p Policy) CodeExpired(issuedAt, now time.Time) bool {
	return now.Sub(issuedAt) > p.CodeTTL
}

// InCooldown — переотправка запрещена, пока не прошло окно кулдауна.
func (p Policy) InCooldown(issuedAt, now time.Time) bool {
	return now.Sub(issuedAt) < p.ResendCooldown
}

func (p Policy) ResetExpired(issuedAt, now time.Time) bool {
	return now.Sub(issuedAt) > p.ResetTTL
}

func (p Policy) CooldownSeconds() int {
	return int(p.ResendCooldown / time.Second)
}

// CodeRetention — сколько держим запись после протухания: ровно один
// период свипа, чтобы учёт переотправок видел только-что-протухшие записи.
func (p Policy) CodeRetention(sweepInterval time.Duration) time.Duration {
	return p.CodeTTL + sweepInterval
}
