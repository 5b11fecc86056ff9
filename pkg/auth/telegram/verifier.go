// Package telegram verifies Mini App launch parameters.
package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMissingHash = errors.New("init data hash missing")
	ErrBadHash     = errors.New("init data hash mismatch")
	ErrExpired     = errors.New("init data expired")
	ErrMalformed   = errors.New("init data malformed")
)

// User is the identity carried inside Mini App initData.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
}

// InitData is the verified payload.
type InitData struct {
	User     User
	AuthDate time.Time
	QueryID  string
}

// Verifier checks the HMAC signature Telegram attaches to Mini App launch
// parameters.
type Verifier struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time
}

// NewVerifier derives the WebApp secret from the bot token.
func NewVerifier(botToken string, maxAge time.Duration) (*Verifier, error) {
	if strings.TrimSpace(botToken) == "" {
		return nil, fmt.Errorf("bot token is required")
	}
	mac := hmac.New(sha256.New, []byte("WebAppData"))
	mac.Write([]byte(botToken))
	return &Verifier{
		secret: mac.Sum(nil),
		maxAge: maxAge,
		now:    time.Now,
	}, nil
}

// Verify validates the raw initData query string and returns the user.
func (v *Verifier) Verify(initData string) (InitData, error) {
	values, err := url.ParseQuery(strings.TrimSpace(initData))
	if err != nil {
		return InitData{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	hash := values.Get("hash")
	if hash == "" {
		return InitData{}, ErrMissingHash
	}
	values.Del("hash")

	authDate := values.Get("auth_date")
	if authDate == "" || strings.TrimLeft(authDate, "0123456789") != "" {
		return InitData{}, fmt.Errorf("%w: auth_date", ErrMalformed)
	}

	expected := v.sign(dataCheckString(values))
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(hash))) {
		return InitData{}, ErrBadHash
	}

	ts, err := strconv.ParseInt(authDate, 10, 64)
	if err != nil {
		return InitData{}, fmt.Errorf("%w: auth_date", ErrMalformed)
	}
	issued := time.Unix(ts, 0).UTC()
	if v.maxAge > 0 && v.now().Sub(issued) > v.maxAge {
		return InitData{}, ErrExpired
	}

	var user User
	if err := json.Unmarshal([]byte(values.Get("user")), &user); err != nil {
		return InitData{}, fmt.Errorf("%w: user", ErrMalformed)
	}
	if user.ID == 0 {
		return InitData{}, fmt.Errorf("%w: user id", ErrMalformed)
	}
	return InitData{User: user, AuthDate: issued, QueryID: values.Get("query_id")}, nil
}

// Sign produces the hash Telegram would attach to values. Exposed for
// tests and local tooling.
func (v *Verifier) Sign(values url.Values) string {
	return v.sign(dataCheckString(values))
}

func (v *Verifier) sign(data string) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

func dataCheckString(values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		if k == "hash" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+values.Get(k))
	}
	return strings.Join(pairs, "\n")
}
