package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrMalformedToken = errors.New("session: malformed token")

var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

// Claims decodes the payload segment of a dot-delimited token. The
// signature is not checked; the client only inspects its own credentials.
func Claims(token string) (jwt.MapClaims, error) {
	token = strings.TrimPrefix(strings.TrimSpace(token), "Bearer ")
	parts := strings.Split(token, ".")
	if len(parts) < 2 || parts[1] == "" {
		return nil, ErrMalformedToken
	}
	raw, err := segmentParser.DecodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}
	var claims jwt.MapClaims
	if err := json.Unmarshal(raw, &claims); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}
	if claims == nil {
		return nil, ErrMalformedToken
	}
	return claims, nil
}

// Expiry returns the exp claim of token.
func Expiry(token string) (time.Time, error) {
	claims, err := Claims(token)
	if err != nil {
		return time.Time{}, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}
	if exp == nil {
		return time.Time{}, fmt.Errorf("%w: no exp claim", ErrMalformedToken)
	}
	return exp.Time, nil
}

// IsExpired reports whether token is unusable at now. Anything that cannot
// be decoded, or carries no numeric exp, is expired.
func IsExpired(token string, now time.Time) bool {
	exp, err := Expiry(token)
	if err != nil {
		return true
	}
	return now.UnixMilli() >= exp.UnixMilli()
}
