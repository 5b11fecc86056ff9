package telegram

import (
	"errors"
	"net/url"
	"strconv"
	"testing"
	"time"
)

func signedInitData(t *testing.T, v *Verifier, authDate time.Time, user string) string {
	t.Helper()
	values := url.Values{}
	values.Set("auth_date", strconv.FormatInt(authDate.Unix(), 10))
	values.Set("query_id", "AAE")
	values.Set("user", user)
	values.Set("hash", v.Sign(values))
	return values.Encode()
}

func TestVerifierAcceptsSignedPayload(t *testing.T) {
	v, err := NewVerifier("123:abc", 24*time.Hour)
	if err != nil {
		t.Fatalf("verifier: %v", err)
	}
	raw := signedInitData(t, v, time.Now(), `{"id":42,"username":"alice","first_name":"Alice","last_name":"Smith"}`)

	data, err := v.Verify(raw)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	user := data.User
	if data.QueryID != "AAE" || data.AuthDate.IsZero() {
		t.Fatalf("unexpected envelope %+v", data)
	}
	if user.ID != 42 || user.Username != "alice" || user.FullName() != "Alice Smith" {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestVerifierRejectsTampering(t *testing.T) {
	v, _ := NewVerifier("123:abc", 24*time.Hour)
	raw := signedInitData(t, v, time.Now(), `{"id":42}`)
	values, _ := url.ParseQuery(raw)
	values.Set("user", `{"id":43}`)

	if _, err := v.Verify(values.Encode()); !errors.Is(err, ErrBadHash) {
		t.Fatalf("expected bad hash, got %v", err)
	}
}

func TestVerifierRejectsOtherBot(t *testing.T) {
	signer, _ := NewVerifier("123:abc", 24*time.Hour)
	verifier, _ := NewVerifier("999:zzz", 24*time.Hour)
	raw := signedInitData(t, signer, time.Now(), `{"id":42}`)

	if _, err := verifier.Verify(raw); !errors.Is(err, ErrBadHash) {
		t.Fatalf("expected bad hash, got %v", err)
	}
}

func TestVerifierRejectsStale(t *testing.T) {
	v, _ := NewVerifier("123:abc", time.Hour)
	raw := signedInitData(t, v, time.Now().Add(-2*time.Hour), `{"id":42}`)

	if _, err := v.Verify(raw); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected expired, got %v", err)
	}
}

func TestVerifierRejectsMissingHashAndBadAuthDate(t *testing.T) {
	v, _ := NewVerifier("123:abc", time.Hour)
	if _, err := v.Verify("auth_date=1&user=%7B%7D"); !errors.Is(err, ErrMissingHash) {
		t.Fatalf("expected missing hash, got %v", err)
	}

	values := url.Values{}
	values.Set("auth_date", "yesterday")
	values.Set("user", `{"id":1}`)
	values.Set("hash", v.Sign(values))
	if _, err := v.Verify(values.Encode()); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected malformed auth_date, got %v", err)
	}
}

func TestNewVerifierRequiresToken(t *testing.T) {
	if _, err := NewVerifier(" ", time.Hour); err == nil {
		t.Fatal("expected error for empty token")
	}
}
