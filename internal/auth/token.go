// Package auth validates JWTs issued by the Migios platform for staff users.
// This service never mints or refreshes tokens; it only checks them.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// RoleClaim is the private claim carrying the staff role.
const RoleClaim = "role"

// Claims is the validated identity extracted from a token.
type Claims struct {
	StaffID string
	Role    string
}

// Verifier checks token signatures and registered claims.
type Verifier struct {
	Secret    []byte
	Issuer    string
	Audience  string
	ClockSkew time.Duration
	Now       func() time.Time
}

// Verify parses and validates a compact JWT. The signing algorithm is pinned
// to HS256; tokens signed with anything else are rejected before validation.
func (v Verifier) Verify(raw string) (Claims, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Claims{}, errors.New("auth: empty token")
	}
	alg, err := tokenAlgorithm(trimmed)
	if err != nil {
		return Claims{}, err
	}
	if alg != jwa.HS256 {
		return Claims{}, fmt.Errorf("auth: unexpected token algorithm %s", alg)
	}

	tok, err := jwt.ParseString(trimmed, jwt.WithKey(jwa.HS256, v.Secret))
	if err != nil {
		return Claims{}, fmt.Errorf("auth: parse token: %w", err)
	}

	now := time.Now()
	if v.Now != nil {
		now = v.Now()
	}
	options := []jwt.ValidateOption{
		jwt.WithClock(jwt.ClockFunc(func() time.Time { return now })),
	}
	if v.ClockSkew > 0 {
		options = append(options, jwt.WithAcceptableSkew(v.ClockSkew))
	}
	if v.Issuer != "" {
		options = append(options, jwt.WithIssuer(v.Issuer))
	}
	if v.Audience != "" {
		options = append(options, jwt.WithAudience(v.Audience))
	}
	if err := jwt.Validate(tok, options...); err != nil {
		return Claims{}, fmt.Errorf("auth: validate token: %w", err)
	}

	claims := Claims{StaffID: tok.Subject()}
	if raw, ok := tok.Get(RoleClaim); ok {
		if role, ok := raw.(string); ok {
			claims.Role = role
		}
	}
	if claims.StaffID == "" {
		return Claims{}, errors.New("auth: token missing subject")
	}
	return claims, nil
}

func tokenAlgorithm(token string) (jwa.SignatureAlgorithm, error) {
	message, err := jws.ParseString(token)
	if err != nil {
		return "", fmt.Errorf("auth: parse signature: %w", err)
	}
	signatures := message.Signatures()
	if len(signatures) == 0 {
		return "", errors.New("auth: token has no signatures")
	}
	headers := signatures[0].ProtectedHeaders()
	if headers == nil {
		return "", errors.New("auth: token missing protected headers")
	}
	alg := headers.Algorithm()
	if alg == "" || alg == jwa.NoSignature {
		return "", errors.New("auth: token missing usable algorithm")
	}
	return alg, nil
}
