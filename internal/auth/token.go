// Package auth verifies and issues the bearer tokens that identify callers.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"ecoplaint/backend/internal/config"
)

var (
	// ErrMissingToken means the request carried no Authorization header.
	ErrMissingToken = errors.New("authorization token missing")
	// ErrInvalidToken covers malformed, badly signed and expired tokens.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Identity is the caller extracted from a verified token.
type Identity struct {
	Subject uint
}

// Claims is the payload signed into every token.
type Claims struct {
	UserID uint `json:"user_id"`
	jwt.RegisteredClaims
}

// secrets is swapped atomically on rotation.
type secrets struct {
	current  []byte
	previous [][]byte
}

// Keys holds the signing secret plus older secrets that are still accepted.
type Keys struct {
	set atomic.Pointer[secrets]
}

// NewKeys builds a key set. current is used for signing and verifying;
// previous secrets are only used for verifying.
func NewKeys(current string, previous ...string) *Keys {
	k := &Keys{}
	k.Rotate(current, previous...)
	return k
}

// Rotate replaces the secrets in place. Tokens signed with any secret in
// the new set keep verifying.
func (k *Keys) Rotate(current string, previous ...string) {
	s := &secrets{current: []byte(current)}
	for _, p := range previous {
		s.previous = append(s.previous, []byte(p))
	}
	k.set.Store(s)
}

func (k *Keys) signing() []byte {
	return k.set.Load().current
}

// verification lists the accepted secrets, current first.
func (k *Keys) verification() [][]byte {
	s := k.set.Load()
	return append([][]byte{s.current}, s.previous...)
}

// Verifier checks bearer tokens against the configured keys and clock.
type Verifier struct {
	keys *Keys
	now  func() time.Time
}

func NewVerifier(keys *Keys) *Verifier {
	return &Verifier{keys: keys, now: time.Now}
}

// WithClock overrides the clock used for expiry checks.
func (v *Verifier) WithClock(now func() time.Time) *Verifier {
	v.now = now
	return v
}

// Verify parses a raw token string. It has no side effects.
func (v *Verifier) Verify(tokenString string) (Identity, error) {
	if tokenString == "" {
		return Identity{}, ErrMissingToken
	}

	var lastErr error
	for _, key := range v.keys.verification() {
		claims, err := v.parse(tokenString, key)
		if err == nil {
			if claims.UserID == 0 {
				return Identity{}, fmt.Errorf("%w: no subject", ErrInvalidToken)
			}
			return Identity{Subject: claims.UserID}, nil
		}
		lastErr = err
		// Only a signature mismatch is worth retrying with an older secret.
		if !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			break
		}
	}
	return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, lastErr)
}

func (v *Verifier) parse(tokenString string, key []byte) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) { return key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	return claims, err
}

// Issuer signs tokens for logged-in users.
type Issuer struct {
	keys *Keys
	ttl  time.Duration
	now  func() time.Time
}

func NewIssuer(keys *Keys, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = config.DefaultTokenTTL
	}
	return &Issuer{keys: keys, ttl: ttl, now: time.Now}
}

// WithClock overrides the clock used for issued-at and expiry.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

// Issue returns a signed HS256 token for userID.
func (i *Issuer) Issue(userID uint) (string, error) {
	now := i.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Issuer:    config.TokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.keys.signing())
}
