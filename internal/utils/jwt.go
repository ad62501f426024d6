package utils

import (
    "errors"
    "strconv"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/google/uuid"
)

var (
    // ErrTokenExpired is returned when a JWT is well formed but past its exp.
    ErrTokenExpired = errors.New("token has expired")
    // ErrTokenInvalid covers bad signatures, wrong algorithms and malformed claims.
    ErrTokenInvalid = errors.New("invalid token")
)

// SignedToken is a serialized JWT together with its expiry.
type SignedToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// Claims carried by both access and refresh tokens.  Subject holds the
// user id; Group is only populated on access tokens.
type Claims struct {
    Group string `json:"group,omitempty"`
    jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *Claims) UserID() (uint64, error) {
    id, err := strconv.ParseUint(c.Subject, 10, 64)
    if err != nil || id == 0 {
        return 0, ErrTokenInvalid
    }
    return id, nil
}

// JWTManager signs and verifies access and refresh tokens.  The two token
// types use different secrets so a refresh token can never pass as an
// access token and vice versa.
type JWTManager struct {
    accessSecret  []byte
    refreshSecret []byte
    method        jwt.SigningMethod
    accessTTL     time.Duration
    refreshTTL    time.Duration
    now           func() time.Time
}

// NewJWTManager validates the algorithm name (HS256, HS384 or HS512) and
// returns a manager.
func NewJWTManager(accessSecret, refreshSecret, algorithm string, accessTTL, refreshTTL time.Duration) (*JWTManager, error) {
    method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
    if !ok {
        return nil, errors.New("unsupported JWT signing algorithm: " + algorithm)
    }
    if accessSecret == "" || refreshSecret == "" {
        return nil, errors.New("JWT secrets must not be empty")
    }
    return &JWTManager{
        accessSecret:  []byte(accessSecret),
        refreshSecret: []byte(refreshSecret),
        method:        method,
        accessTTL:     accessTTL,
        refreshTTL:    refreshTTL,
        now:           func() time.Time { return time.Now().UTC() },
    }, nil
}

// NewAccessToken issues a short lived token carrying the user's group.
func (m *JWTManager) NewAccessToken(userID uint64, group string) (SignedToken, error) {
    return m.sign(m.accessSecret, userID, group, m.accessTTL)
}

// NewRefreshToken issues a long lived token used only at the refresh endpoint.
func (m *JWTManager) NewRefreshToken(userID uint64) (SignedToken, error) {
    return m.sign(m.refreshSecret, userID, "", m.refreshTTL)
}

// ParseAccessToken verifies an access token and returns its claims.
func (m *JWTManager) ParseAccessToken(raw string) (*Claims, error) {
    return m.parse(raw, m.accessSecret)
}

// ParseRefreshToken verifies a refresh token and returns its claims.
func (m *JWTManager) ParseRefreshToken(raw string) (*Claims, error) {
    return m.parse(raw, m.refreshSecret)
}

func (m *JWTManager) sign(secret []byte, userID uint64, group string, ttl time.Duration) (SignedToken, error) {
    now := m.now()
    exp := now.Add(ttl)
    claims := Claims{
        Group: group,
        RegisteredClaims: jwt.RegisteredClaims{
            ID:        uuid.NewString(),
            Subject:   strconv.FormatUint(userID, 10),
            IssuedAt:  jwt.NewNumericDate(now),
            ExpiresAt: jwt.NewNumericDate(exp),
        },
    }
    signed, err := jwt.NewWithClaims(m.method, claims).SignedString(secret)
    if err != nil {
        return SignedToken{}, err
    }
    return SignedToken{Token: signed, Exp: exp}, nil
}

func (m *JWTManager) parse(raw string, secret []byte) (*Claims, error) {
    claims := &Claims{}
    _, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
        return secret, nil
    },
        jwt.WithValidMethods([]string{m.method.Alg()}),
        jwt.WithTimeFunc(m.now),
        jwt.WithExpirationRequired(),
    )
    if err != nil {
        if errors.Is(err, jwt.ErrTokenExpired) {
            return nil, ErrTokenExpired
        }
        return nil, ErrTokenInvalid
    }
    if _, err := claims.UserID(); err != nil {
        return nil, err
    }
    return claims, nil
}
