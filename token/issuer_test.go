package token

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("unit-test-secret")

func newTestIssuer(t *testing.T) *Issuer {
	t.Helper()
	issuer, err := New(Config{Secret: testSecret})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	return issuer
}

// sign builds a token outside the issuer to exercise verification edges.
func sign(t *testing.T, secret []byte, method jwt.SigningMethod, claims *Claims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(method, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return raw
}

func TestIssueAndVerify(t *testing.T) {
	issuer := newTestIssuer(t)

	raw, issued, err := issuer.Issue("u-1", "Alice", true)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if issued.ID == "" {
		t.Fatal("expected a token ID")
	}

	claims, err := issuer.Verify(raw)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if claims.SubjectID() != "u-1" || claims.Name != "Alice" || !claims.Admin {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	lifetime := claims.ExpiresAt.Time.Sub(claims.IssuedAt.Time)
	if lifetime != DefaultLifetime {
		t.Fatalf("expected %v lifetime, got %v", DefaultLifetime, lifetime)
	}
	if remaining := claims.Remaining(time.Now()); remaining <= 23*time.Hour {
		t.Fatalf("unexpected remaining lifetime %v", remaining)
	}
}

func TestVerifyMalformed(t *testing.T) {
	issuer := newTestIssuer(t)

	for _, raw := range []string{"", "garbage", "a.b.c"} {
		if _, err := issuer.Verify(raw); !errors.Is(err, ErrMalformed) {
			t.Fatalf("Verify(%q): expected ErrMalformed, got %v", raw, err)
		}
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	issuer := newTestIssuer(t)

	other, err := New(Config{Secret: []byte("different-secret")})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	raw, _, err := other.Issue("u-1", "Alice", false)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	if _, err := issuer.Verify(raw); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed for foreign signature, got %v", err)
	}
}

func TestVerifyExpired(t *testing.T) {
	issuer := newTestIssuer(t)

	now := time.Now()
	raw := sign(t, testSecret, jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u-1",
			IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
		},
	})

	if _, err := issuer.Verify(raw); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestVerifyNotYetValid(t *testing.T) {
	issuer := newTestIssuer(t)

	now := time.Now()
	raw := sign(t, testSecret, jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u-1",
			NotBefore: jwt.NewNumericDate(now.Add(time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(2 * time.Hour)),
		},
	})

	if _, err := issuer.Verify(raw); !errors.Is(err, ErrNotYetValid) {
		t.Fatalf("expected ErrNotYetValid, got %v", err)
	}
}

func TestVerifyRejectsForeignAlgorithm(t *testing.T) {
	issuer := newTestIssuer(t)

	now := time.Now()
	raw := sign(t, testSecret, jwt.SigningMethodHS512, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u-1",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})

	if _, err := issuer.Verify(raw); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed for HS512 token, got %v", err)
	}
}

func TestVerifyRequiresExpiry(t *testing.T) {
	issuer := newTestIssuer(t)

	raw := sign(t, testSecret, jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u-1"},
	})

	if _, err := issuer.Verify(raw); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed for missing exp, got %v", err)
	}
}

func TestNewRejectsEmptySecret(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected empty secret to be rejected")
	}
}

func TestIssuerClaimEnforced(t *testing.T) {
	issuer, err := New(Config{Secret: testSecret, Issuer: "authcore"})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	raw, _, err := issuer.Issue("u-1", "Alice", false)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if _, err := issuer.Verify(raw); err != nil {
		t.Fatalf("Verify error: %v", err)
	}

	plain := newTestIssuer(t)
	rawNoIssuer, _, err := plain.Issue("u-1", "Alice", false)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if _, err := issuer.Verify(rawNoIssuer); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed for missing issuer claim, got %v", err)
	}
}
