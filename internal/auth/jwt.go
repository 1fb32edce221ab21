// Package auth issues and checks the tokens of the development backend.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

var ErrWrongKind = errors.New("auth: token of the wrong kind")

type Claims struct {
	UserID   string `json:"uid"`
	UserName string `json:"userName"`
	Role     string `json:"role,omitempty"`
	UserVer  int64  `json:"user_ver"`
	Kind     string `json:"kind"`
	jwt.RegisteredClaims
}

// JWTSigner signs both token kinds with one HMAC key. Refresh tokens are
// JWTs too so that clients can read their exp claim.
type JWTSigner struct {
	Key        []byte
	TTL        time.Duration
	RefreshTTL time.Duration
	Now        func() time.Time
}

func (s JWTSigner) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s JWTSigner) sign(c Claims, ttl time.Duration) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(ttl)
	c.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   c.UserID,
		ExpiresAt: jwt.NewNumericDate(exp),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := t.SignedString(s.Key)
	return signed, exp, err
}

// Issue returns an access token.
func (s JWTSigner) Issue(userID, userName, role string, userVer int64) (string, error) {
	tok, _, err := s.sign(Claims{UserID: userID, UserName: userName, Role: role, UserVer: userVer, Kind: KindAccess}, s.TTL)
	return tok, err
}

// IssueRefresh returns a refresh token and its expiry.
func (s JWTSigner) IssueRefresh(userID string) (string, time.Time, error) {
	return s.sign(Claims{UserID: userID, Kind: KindRefresh}, s.RefreshTTL)
}

// Parse verifies token and checks it is of the given kind.
func (s JWTSigner) Parse(token, kind string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.Key, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}
	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid {
		return nil, errors.New("invalid token")
	}
	if c.Kind != kind {
		return nil, ErrWrongKind
	}
	return c, nil
}

func HashPassword(pw string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func CheckPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}
