package models

import "time"

type User struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

type URL struct {
	ID          string     `json:"id" db:"id"`
	OriginalURL string     `json:"url" db:"original_url"`
	Hash        string     `json:"hash" db:"hash"`
	UserID      string     `json:"user_id" db:"user_id"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// AccessEvent is the queue payload produced when a short URL is resolved.
// The consumer only needs URLID, the rest is carried for traceability.
type AccessEvent struct {
	URLID       string    `json:"id"`
	Hash        string    `json:"hash"`
	OriginalURL string    `json:"url"`
	UserID      string    `json:"user_id"`
	AccessedAt  time.Time `json:"accessed_at"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type CreateURLRequest struct {
	URL string `json:"url"`
}

type URLListResponse struct {
	Data  []URL `json:"data"`
	Pages int   `json:"pages"`
}

type StatusResponse struct {
	Timestamp int64 `json:"timestamp"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}
