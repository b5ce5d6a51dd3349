package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"GateLink/tools/errs"
)

// Options controls signing and TTL.
type Options struct {
	Secret []byte        // HMAC secret (production: ENV/KMS)
	Alg    string        // HS256/HS384/HS512 (default HS256)
	TTL    time.Duration // token lifetime (default 2h)
}

func DefaultOptions(secret []byte) Options {
	return Options{Secret: secret, Alg: "HS256", TTL: 2 * time.Hour}
}

// Identity is what the identity provider attests about a connection.
type Identity struct {
	UserID string
	Email  string
	Role   string
}

// Verifier adapts the external identity provider. The gateway consults it
// exactly once per connection attempt.
type Verifier interface {
	Verify(token string) (*Identity, error)
}

// JWTVerifier verifies HMAC-signed bearer tokens locally.
type JWTVerifier struct {
	opts Options
}

func NewJWTVerifier(opts Options) *JWTVerifier {
	if opts.Alg == "" {
		opts.Alg = "HS256"
	}
	return &JWTVerifier{opts: opts}
}

func (v *JWTVerifier) Verify(token string) (*Identity, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errs.ErrAuthentication.WithDetail("empty token")
	}
	parsed, err := jwtlib.Parse(token, func(t *jwtlib.Token) (interface{}, error) {
		// HMAC family only
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected alg: %v", t.Header["alg"])
		}
		return v.opts.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return nil, errs.ErrTokenExpired.WithDetail(err.Error())
		}
		return nil, errs.ErrAuthentication.WithDetail(err.Error())
	}
	if !parsed.Valid {
		return nil, errs.ErrAuthentication.WithDetail("invalid token")
	}
	claims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, errs.ErrAuthentication.WithDetail("claims type mismatch")
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, errs.ErrAuthentication.WithDetail("missing sub claim")
	}
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	if role == "" {
		role = "user"
	}
	return &Identity{UserID: sub, Email: email, Role: role}, nil
}

// Generate signs a token for userID; used by tooling and tests.
func Generate(opts Options, userID, email, role string) (string, time.Time, error) {
	method, err := signingMethod(opts.Alg)
	if err != nil {
		return "", time.Time{}, err
	}
	if opts.TTL == 0 {
		opts.TTL = 2 * time.Hour
	}
	now := time.Now()
	exp := now.Add(opts.TTL)

	claims := jwtlib.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"exp": exp.Unix(),
	}
	if email != "" {
		claims["email"] = email
	}
	if role != "" {
		claims["role"] = role
	}

	tok := jwtlib.NewWithClaims(method, claims)
	signed, err := tok.SignedString(opts.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func signingMethod(alg string) (jwtlib.SigningMethod, error) {
	switch strings.ToUpper(strings.TrimSpace(alg)) {
	case "", "HS256":
		return jwtlib.SigningMethodHS256, nil
	case "HS384":
		return jwtlib.SigningMethodHS384, nil
	case "HS512":
		return jwtlib.SigningMethodHS512, nil
	default:
		return nil, fmt.Errorf("unsupported alg: %s (use HS256/HS384/HS512)", alg)
	}
}
