package utils // package utils provides token and password helpers

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessToken is a signed HS256 JWT together with its expiry.
type AccessToken struct {
	Token string
	Exp   time.Time
}

// Claims are the fields the gateway reads back from a token.
type Claims struct {
	Subject   string // user id
	SessionID string // gateway session id; empty for backend tokens
	Role      string
	ExpiresAt time.Time
}

var ErrInvalidToken = errors.New("invalid token")

// NewAccessToken signs a token carrying sub and role, valid for ttl.
func NewAccessToken(secret, sub, role string, ttl time.Duration) (AccessToken, error) {
	return sign(secret, sub, role, ttl, nil)
}

// NewSessionToken signs a gateway session token. Besides sub and role it
// carries the session id (sid) that selects the server-side session.
func NewSessionToken(secret, sub, sid, role string, ttl time.Duration) (AccessToken, error) {
	return sign(secret, sub, role, ttl, jwt.MapClaims{"sid": sid})
}

func sign(secret, sub, role string, ttl time.Duration, extra jwt.MapClaims) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	}
	for k, v := range extra {
		claims[k] = v
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseToken verifies raw with secret (HMAC only) and returns its claims.
// Expired, malformed and wrongly signed tokens all yield ErrInvalidToken.
func ParseToken(secret, raw string) (Claims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	sub, _ := mc["sub"].(string)
	if sub == "" {
		return Claims{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	var out Claims
	out.Subject = sub
	out.SessionID, _ = mc["sid"].(string)
	out.Role, _ = mc["role"].(string)
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}
