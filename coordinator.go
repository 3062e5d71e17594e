package authcore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/feldspar-io/authcore/cache"
	"github.com/feldspar-io/authcore/password"
	"github.com/feldspar-io/authcore/rate"
	"github.com/feldspar-io/authcore/revocation"
	"github.com/feldspar-io/authcore/session"
	"github.com/feldspar-io/authcore/token"
)

// UserHintPrefix is the cache namespace for registration fast-path hints.
const UserHintPrefix = "user:"

// Coordinator wires the credential, token, session, revocation and rate
// components into the account lifecycle operations. It owns no state of
// its own; everything lives in the durable store or the cache.
//
// A Coordinator is safe for concurrent use.
type Coordinator struct {
	config   Config
	store    IdentityStore
	cache    *cache.Client
	verifier *password.Verifier
	issuer   *token.Issuer
	sessions *session.Store
	revoked  *revocation.List
	limiter  *rate.Limiter
	log      *slog.Logger
}

// New validates cfg and assembles a [Coordinator] on top of the given
// durable store and cache client. log may be nil.
func New(cfg Config, store IdentityStore, cacheClient *cache.Client, log *slog.Logger) (*Coordinator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errors.New("identity store is required")
	}
	if cacheClient == nil {
		return nil, errors.New("cache client is required")
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	issuer, err := token.New(token.Config{
		Secret:   []byte(cfg.JWT.Secret),
		Lifetime: cfg.JWT.TokenLifetime,
		Issuer:   cfg.JWT.Issuer,
		Leeway:   cfg.JWT.Leeway,
	})
	if err != nil {
		return nil, err
	}
	verifier, err := password.New(cfg.Password)
	if err != nil {
		return nil, err
	}

	return &Coordinator{
		config:   cfg,
		store:    store,
		cache:    cacheClient,
		verifier: verifier,
		issuer:   issuer,
		sessions: session.NewStore(cacheClient),
		revoked:  revocation.NewList(cacheClient),
		limiter:  rate.NewLimiter(cacheClient),
		log:      log,
	}, nil
}

// Sessions exposes the session store for callers that list or force-expire
// logins directly.
func (c *Coordinator) Sessions() *session.Store {
	return c.sessions
}

// Limiter exposes the shared fixed-window limiter, preconfigured through
// [Config.RateLimit] via [Coordinator.CheckRate].
func (c *Coordinator) Limiter() *rate.Limiter {
	return c.limiter
}

// Register creates a new account. The cache holds a short-lived hint per
// email that short-circuits obvious duplicates, but the durable store is
// authoritative: it is consulted before every create and its uniqueness
// guarantee is the one that counts under races.
func (c *Coordinator) Register(ctx context.Context, input RegisterInput) (*Identity, error) {
	email := normalizeEmail(input.Email)
	if email == "" || input.Secret == "" {
		return nil, ErrInvalidCredentials
	}

	// Fast path only. A hint miss or a cache failure falls through to the
	// durable store.
	var hint identityHint
	if err := c.cache.GetJSON(ctx, UserHintPrefix+email, &hint); err == nil {
		return nil, ErrDuplicateUser
	}

	if _, err := c.store.FindByEmail(ctx, email); err == nil {
		return nil, ErrDuplicateUser
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	hash, err := c.verifier.Hash(input.Secret)
	if err != nil {
		return nil, err
	}

	created, err := c.store.Create(ctx, &Identity{
		Email:        email,
		Name:         input.Name,
		IsAdmin:      input.Admin,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, err
	}

	if err := c.cacheHint(ctx, created); err != nil {
		c.log.Warn("registration hint write failed", "email", email, "error", err)
	}

	public := *created
	public.PasswordHash = ""
	return &public, nil
}

func (c *Coordinator) cacheHint(ctx context.Context, identity *Identity) error {
	ttl := c.config.Register.HintTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return c.cache.SetJSON(ctx, UserHintPrefix+identity.Email, identityHint{
		ID:      identity.ID,
		Email:   identity.Email,
		Name:    identity.Name,
		IsAdmin: identity.IsAdmin,
	}, ttl)
}

// Login verifies the supplied credentials and issues a token with a
// matching session record. Unknown emails and wrong secrets produce the
// same [ErrInvalidCredentials]; nothing in the response distinguishes
// which half failed.
func (c *Coordinator) Login(ctx context.Context, email, secret string) (*LoginResult, error) {
	identity, err := c.store.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := c.verifier.Verify(secret, identity.PasswordHash)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}

	raw, claims, err := c.issuer.Issue(identity.ID, identity.Name, identity.IsAdmin)
	if err != nil {
		return nil, err
	}

	remaining := claims.Remaining(time.Now())
	if err := c.sessions.Create(ctx, raw, identity.ID, c.config.Session.TTL, remaining); err != nil {
		return nil, c.mapCacheErr(err)
	}

	c.log.Info("login", "user_id", identity.ID)
	return &LoginResult{Token: raw, Claims: claims}, nil
}

// Logout invalidates a presented token: a revocation marker scoped to the
// token's remaining lifetime plus removal of its session record. Logging
// out an already-expired token succeeds after clearing any session
// leftovers; a malformed token is rejected.
func (c *Coordinator) Logout(ctx context.Context, raw string) error {
	if raw == "" {
		return ErrTokenMissing
	}

	claims, err := c.issuer.Verify(raw)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			// Nothing left to revoke; drop the session if one lingers.
			if err := c.sessions.Delete(ctx, raw); err != nil {
				return c.mapCacheErr(err)
			}
			return nil
		}
		return c.mapTokenErr(err)
	}

	if err := c.revoked.Revoke(ctx, raw, claims.Remaining(time.Now())); err != nil {
		return c.mapCacheErr(err)
	}
	if err := c.sessions.Delete(ctx, raw); err != nil {
		return c.mapCacheErr(err)
	}

	c.log.Info("logout", "user_id", claims.SubjectID())
	return nil
}

// Authenticate validates a presented token end to end: signature and time
// bounds, revocation, optionally session presence, and finally that the
// identity behind it still exists. Any cache failure during the revocation
// or session checks fails the request with [ErrCacheUnavailable]; an
// unreachable cache is never treated as "not revoked".
func (c *Coordinator) Authenticate(ctx context.Context, raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrTokenMissing
	}

	claims, err := c.issuer.Verify(raw)
	if err != nil {
		return nil, c.mapTokenErr(err)
	}

	revoked, err := c.revoked.IsRevoked(ctx, raw)
	if err != nil {
		return nil, c.mapCacheErr(err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	if c.config.Session.RequireOnAuthenticate {
		ok, err := c.sessions.Exists(ctx, raw)
		if err != nil {
			return nil, c.mapCacheErr(err)
		}
		if !ok {
			return nil, ErrTokenRevoked
		}
	}

	if _, err := c.store.FindByID(ctx, claims.SubjectID()); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return claims, nil
}

// CheckRate counts one request for identifier against the configured
// fixed window and returns [ErrRateLimitExceeded] once the window budget
// is spent. Cache failures surface as [ErrCacheUnavailable]; a throttling
// decision is never guessed while the counter is unreachable.
func (c *Coordinator) CheckRate(ctx context.Context, identifier string) (rate.Result, error) {
	result, err := c.limiter.Check(ctx, identifier, c.config.RateLimit.Window, c.config.RateLimit.Limit)
	if err != nil {
		return rate.Result{}, c.mapCacheErr(err)
	}
	if !result.Allowed {
		return result, ErrRateLimitExceeded
	}
	return result, nil
}

// RevokeAllForUser force-expires every tracked login of subjectID. Each
// still-live token gets a revocation marker for its remaining lifetime
// before the session records are dropped. Returns the number of tokens
// revoked.
func (c *Coordinator) RevokeAllForUser(ctx context.Context, subjectID string) (int, error) {
	tokenIDs, err := c.sessions.ActiveTokenIDs(ctx, subjectID)
	if err != nil {
		return 0, c.mapCacheErr(err)
	}

	revokedCount := 0
	for _, raw := range tokenIDs {
		claims, err := c.issuer.Verify(raw)
		if err != nil {
			// Expired or foreign entry; the session sweep below clears it.
			continue
		}
		if err := c.revoked.Revoke(ctx, raw, claims.Remaining(time.Now())); err != nil {
			return revokedCount, c.mapCacheErr(err)
		}
		revokedCount++
	}

	if _, err := c.sessions.DeleteAllForUser(ctx, subjectID); err != nil {
		return revokedCount, c.mapCacheErr(err)
	}

	c.log.Info("revoked all sessions", "user_id", subjectID, "count", revokedCount)
	return revokedCount, nil
}

func (c *Coordinator) mapTokenErr(err error) error {
	switch {
	case errors.Is(err, token.ErrExpired):
		return ErrTokenExpired
	case errors.Is(err, token.ErrNotYetValid):
		return ErrTokenNotYetValid
	default:
		return ErrTokenMalformed
	}
}

func (c *Coordinator) mapCacheErr(err error) error {
	if errors.Is(err, cache.ErrUnavailable) {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
