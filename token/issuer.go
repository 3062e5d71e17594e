package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrMalformed covers structurally invalid tokens and bad signatures.
	ErrMalformed = errors.New("token malformed")
	// ErrExpired means the signature is valid but the token is past expiry.
	ErrExpired = errors.New("token expired")
	// ErrNotYetValid means the token carries a not-before claim in the future.
	ErrNotYetValid = errors.New("token not yet valid")
)

// DefaultLifetime is used when [Config.Lifetime] is zero.
const DefaultLifetime = 24 * time.Hour

// Config holds token signing parameters. The secret is process-wide
// configuration and must be provided externally; the constructor rejects
// an empty one so a literal default can never slip in.
type Config struct {
	Secret   []byte
	Lifetime time.Duration
	Issuer   string
	Leeway   time.Duration
}

// Claims is the signed claim set carried by every bearer token.
type Claims struct {
	Name  string `json:"name"`
	Admin bool   `json:"admin"`
	jwt.RegisteredClaims
}

// SubjectID returns the identity this token was issued for.
func (c *Claims) SubjectID() string {
	return c.Subject
}

// Remaining returns the token lifetime left at now. Negative when expired.
func (c *Claims) Remaining(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return c.ExpiresAt.Time.Sub(now)
}

// Issuer creates and validates HS256-signed bearer tokens.
//
// Issuer instances are configured once and safe for concurrent use.
type Issuer struct {
	config Config
}

// New validates cfg and returns an [Issuer].
func New(cfg Config) (*Issuer, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token signing secret is required")
	}
	if cfg.Lifetime < 0 {
		return nil, errors.New("invalid token lifetime")
	}
	if cfg.Lifetime == 0 {
		cfg.Lifetime = DefaultLifetime
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	return &Issuer{config: cfg}, nil
}

// Lifetime returns the configured token lifetime.
func (i *Issuer) Lifetime() time.Duration {
	return i.config.Lifetime
}

// Issue signs a claim set for the given subject. issuedAt and expiresAt are
// embedded at call time; the serialized token is returned alongside the
// claims it carries.
func (i *Issuer) Issue(subjectID, name string, admin bool) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{
		Name:  name,
		Admin: admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.config.Lifetime)),
			Issuer:    i.config.Issuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.config.Secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// Verify checks signature integrity and time bounds. The three terminal
// failures stay distinguishable ([ErrMalformed], [ErrExpired],
// [ErrNotYetValid]) so callers can tell clients whether a fresh login
// would help.
func (i *Issuer) Verify(raw string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if i.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(i.config.Leeway))
	}
	if i.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(i.config.Issuer))
	}

	parsed, err := jwt.NewParser(options...).ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		return i.config.Secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrNotYetValid
		default:
			return nil, ErrMalformed
		}
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrMalformed
	}
	return claims, nil
}
