package model

import "time"

// TokenKind selects one of the three token tables. All of them share the
// same shape: an owner, an opaque token string and an absolute UTC expiry.
type TokenKind string

const (
    ActivationToken    TokenKind = "activation_tokens"
    PasswordResetToken TokenKind = "password_reset_tokens"
    RefreshToken       TokenKind = "refresh_tokens"
)

// TokenKinds lists every token table in cleanup order.
var TokenKinds = []TokenKind{ActivationToken, PasswordResetToken, RefreshToken}

// Token is a row of any token table.
type Token struct {
    ID        uint64    // <table>.id
    UserID    uint64    // <table>.user_id
    Token     string    // <table>.token
    ExpiresAt time.Time // <table>.expires_at (UTC)
    CreatedAt time.Time // <table>.created_at
}

// Expired reports whether the token expired strictly before now.
func (t Token) Expired(now time.Time) bool {
    return t.ExpiresAt.UTC().Before(now.UTC())
}
