// Package auth verifies identity-provider bearer tokens and the scheduler's
// shared secret.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrMissingToken = errors.New("authorization header is required")
	ErrTokenFormat  = errors.New("invalid token format")
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrCronDisabled means no cron secret is configured; every call is refused.
	ErrCronDisabled = errors.New("cron secret not configured")
	ErrCronSecret   = errors.New("invalid cron secret")
)

// JWTClaims is the identity provider's session token payload. Subject is the
// external user id.
type JWTClaims struct {
	Name       string `json:"name,omitempty"`
	GivenName  string `json:"given_name,omitempty"`
	FamilyName string `json:"family_name,omitempty"`
	Picture    string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// Verifier checks HS256 tokens signed with a shared secret.
type Verifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer, now: time.Now}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", ErrTokenFormat
	}
	return strings.TrimSpace(token), nil
}

func (v *Verifier) Verify(tokenString string) (*JWTClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GenerateJWT mints a token the Verifier accepts. Used by the dev CLI and tests.
func (v *Verifier) GenerateJWT(subject, givenName, familyName string, ttl time.Duration) (string, error) {
	now := v.now()
	claims := &JWTClaims{
		GivenName:  givenName,
		FamilyName: familyName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if givenName != "" || familyName != "" {
		claims.Name = strings.TrimSpace(givenName + " " + familyName)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Names returns the best first/last name pair the token carries.
func (c *JWTClaims) Names() (first, last string) {
	if c.GivenName != "" || c.FamilyName != "" {
		return c.GivenName, c.FamilyName
	}
	first, last, _ = strings.Cut(strings.TrimSpace(c.Name), " ")
	return first, strings.TrimSpace(last)
}

const secretCost = 12

func HashSecret(secret string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(secret), secretCost)
	return string(bytes), err
}

// CronGuard authorises scheduler calls. When Hash is set it is checked with
// bcrypt, otherwise Secret is compared in constant time.
type CronGuard struct {
	Secret string
	Hash   string
}

func (g CronGuard) Check(header string) error {
	if g.Secret == "" && g.Hash == "" {
		return ErrCronDisabled
	}
	presented, err := BearerToken(header)
	if err != nil {
		return err
	}

	if g.Hash != "" {
		if bcrypt.CompareHashAndPassword([]byte(g.Hash), []byte(presented)) != nil {
			return ErrCronSecret
		}
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(presented), []byte(g.Secret)) != 1 {
		return ErrCronSecret
	}
	return nil
}
