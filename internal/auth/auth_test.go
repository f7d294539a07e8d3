package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/chetan-code/concentraction/internal/apperrors"
	"github.com/chetan-code/concentraction/internal/models"
	"github.com/chetan-code/concentraction/internal/repository"
)

func TestHasherRoundTrip(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	hashed, err := h.Hash("longenough")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hashed == "longenough" || !strings.HasPrefix(hashed, "$2") {
		t.Fatalf("unexpected hash %q", hashed)
	}
	if !h.Verify("longenough", hashed) {
		t.Fatal("expected secret to verify")
	}
	if h.Verify("wrong-secret", hashed) {
		t.Fatal("expected wrong secret to fail")
	}
	if h.Verify("longenough", "not-a-hash") {
		t.Fatal("expected malformed hash to fail")
	}
}

func TestHasherSaltsEachHash(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	a, _ := h.Hash("same")
	b, _ := h.Hash("same")
	if a == b {
		t.Fatal("expected distinct salted hashes")
	}
}

func TestNewHasherDefaultCost(t *testing.T) {
	h := NewHasher(0)
	if h.cost != bcrypt.DefaultCost {
		t.Fatalf("cost = %d, want %d", h.cost, bcrypt.DefaultCost)
	}
}

func TestHasherRejectsOversizedSecret(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	if _, err := h.Hash(strings.Repeat("x", 100)); err == nil {
		t.Fatal("expected error for secret over 72 bytes")
	}
}

func TestTokenCodecRoundTrip(t *testing.T) {
	codec := NewTokenCodec([]byte("test-secret"), 0)

	token, err := codec.Sign("acc-1")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	got, err := codec.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got != "acc-1" {
		t.Fatalf("Verify = %q, want %q", got, "acc-1")
	}
}

func TestTokenCodecRejections(t *testing.T) {
	codec := NewTokenCodec([]byte("test-secret"), 0)
	other := NewTokenCodec([]byte("other-secret"), 0)
	foreign, _ := other.Sign("acc-1")

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &models.Claims{AccountID: "acc-1"})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	empty, _ := codec.Sign("")

	tests := []struct {
		name  string
		token string
	}{
		{"malformed", "not.a.token"},
		{"wrong secret", foreign},
		{"none algorithm", unsigned},
		{"empty id", empty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Verify(tt.token)
			if !apperrors.HasCode(err, apperrors.CodeInvalidToken) {
				t.Fatalf("expected invalid token, got %v", err)
			}
		})
	}
}

func TestTokenCodecExpiry(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	codec := NewTokenCodec([]byte("test-secret"), time.Hour).WithClock(func() time.Time { return now })

	token, err := codec.Sign("acc-1")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := codec.Verify(token); err != nil {
		t.Fatalf("verify fresh token: %v", err)
	}

	now = now.Add(2 * time.Hour)
	_, err = codec.Verify(token)
	if !apperrors.HasCode(err, apperrors.CodeInvalidToken) {
		t.Fatalf("expected expired token to be invalid, got %v", err)
	}
	if !errors.Is(err, jwt.ErrTokenExpired) {
		t.Fatalf("expected jwt.ErrTokenExpired in chain, got %v", err)
	}
}

func TestTokenCodecRequiresSecret(t *testing.T) {
	if _, err := NewTokenCodec(nil, 0).Sign("acc-1"); err == nil {
		t.Fatal("expected error without secret")
	}
}

type failingFinder struct{ err error }

func (f failingFinder) FindByID(context.Context, string) (models.Account, error) {
	return models.Account{}, f.err
}

func TestGateAuthenticate(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	acc, err := store.Insert(ctx, models.Account{Username: "ada", PasswordHash: "h", Email: "a@b.com"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	codec := NewTokenCodec([]byte("test-secret"), 0)
	gate := NewGate(codec, store)

	t.Run("empty token is anonymous", func(t *testing.T) {
		id, err := gate.Authenticate(ctx, "")
		if err != nil || id != nil {
			t.Fatalf("Authenticate(\"\") = %v, %v; want nil, nil", id, err)
		}
	})

	t.Run("valid token resolves account", func(t *testing.T) {
		token, _ := codec.Sign(acc.ID)
		id, err := gate.Authenticate(ctx, token)
		if err != nil {
			t.Fatalf("authenticate: %v", err)
		}
		if id.ID() != acc.ID || id.Account().Email != "a@b.com" {
			t.Fatalf("unexpected identity %+v", id.Account())
		}
	})

	t.Run("bad token is unauthenticated", func(t *testing.T) {
		_, err := gate.Authenticate(ctx, "garbage")
		if !apperrors.HasCode(err, apperrors.CodeUnauthenticated) {
			t.Fatalf("expected unauthenticated, got %v", err)
		}
	})

	t.Run("bearer prefix is not stripped", func(t *testing.T) {
		token, _ := codec.Sign(acc.ID)
		_, err := gate.Authenticate(ctx, "Bearer "+token)
		if !apperrors.HasCode(err, apperrors.CodeUnauthenticated) {
			t.Fatalf("expected unauthenticated, got %v", err)
		}
	})

	t.Run("stale account is unauthenticated", func(t *testing.T) {
		token, _ := codec.Sign("deleted-account")
		_, err := gate.Authenticate(ctx, token)
		if !apperrors.HasCode(err, apperrors.CodeUnauthenticated) {
			t.Fatalf("expected unauthenticated, got %v", err)
		}
	})

	t.Run("store failure propagates", func(t *testing.T) {
		down := apperrors.New(apperrors.CodeStoreUnavailable, "down")
		g := NewGate(codec, failingFinder{err: down})
		token, _ := codec.Sign(acc.ID)
		_, err := g.Authenticate(ctx, token)
		if !apperrors.HasCode(err, apperrors.CodeStoreUnavailable) {
			t.Fatalf("expected store unavailable, got %v", err)
		}
		if apperrors.HasCode(err, apperrors.CodeUnauthenticated) {
			t.Fatal("store failure must not read as unauthenticated")
		}
	})
}

func TestIdentityIsReadOnly(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	acc, _ := store.Insert(ctx, models.Account{Username: "ada", PasswordHash: "h", Email: "a@b.com"})
	store.PushTask(ctx, acc.ID, models.Task{Name: "t", Category: models.CategoryWork, Status: models.StatusTodo})
	codec := NewTokenCodec([]byte("test-secret"), 0)
	token, _ := codec.Sign(acc.ID)

	id, err := NewGate(codec, store).Authenticate(ctx, token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	snapshot := id.Account()
	snapshot.Email = "changed"
	snapshot.Tasks[0].Name = "changed"

	if got := id.Account(); got.Email != "a@b.com" || got.Tasks[0].Name != "t" {
		t.Fatalf("identity mutated through snapshot: %+v", got)
	}
}

func TestIdentityContext(t *testing.T) {
	if IdentityFromContext(context.Background()) != nil {
		t.Fatal("expected nil identity on empty context")
	}
	if IdentityFromContext(nil) != nil {
		t.Fatal("expected nil identity on nil context")
	}
	id := &Identity{account: models.Account{ID: "acc-1"}}
	ctx := WithIdentity(nil, id)
	if got := IdentityFromContext(ctx); got == nil || got.ID() != "acc-1" {
		t.Fatalf("IdentityFromContext = %v", got)
	}
}
