package models

import "time"

// PendingSignup — незавершённая регистрация: код + данные будущего аккаунта.
// Живёт только в эфемерном хранилище, ключ — нормализованный email.
type PendingSignup struct {
	Code        string        `json:"code"`
	Payload     SignupRequest `json:"payload"`
	IssuedAt    time.Time     `json:"issued_at"`
	Attempts    int           `json:"attempts"`
	ResendCount int           `json:"resend_count"`
}

// PendingReset — одноразовый токен восстановления пароля.
// Ключ — сам токен (256 бит случайности, hex).
type PendingReset struct {
	Email    string    `json:"email"`
	IssuedAt time.Time `json:"issued_at"`
}
