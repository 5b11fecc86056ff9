package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/venueops-backend/api/responses"
	pkgerrors "github.com/angelmondragon/venueops-backend/pkg/errors"
	"github.com/angelmondragon/venueops-backend/pkg/logger"
)

const (
	// DefaultIdempotencyTTL covers venue, invite and comment creation.
	DefaultIdempotencyTTL = 24 * time.Hour
	// MoneyIdempotencyTTL covers adjustments and disputes.
	MoneyIdempotencyTTL = 7 * 24 * time.Hour

	idempotencyHeader   = "Idempotency-Key"
	replayedHeader      = "Idempotent-Replayed"
	maxIdempotencyKey   = 200
	inFlightTTL         = time.Minute
	reservationAttempts = 2
)

type idempotencyStore interface {
	Get(context.Context, string) (string, error)
	SetNX(context.Context, string, any, time.Duration) (bool, error)
	Set(context.Context, string, any, time.Duration) error
	Del(context.Context, ...string) error
	IdempotencyKey(scope, id string) string
}

type idempotencyRecord struct {
	Pending     bool   `json:"pending,omitempty"`
	RequestHash string `json:"request_hash"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        string `json:"body,omitempty"`
}

// Idempotency replays the stored 2xx response when a client repeats a POST
// with the same Idempotency-Key. Requests without the header run normally.
// While the first request is still running, repeats get IDEMPOTENCY_KEY_REUSED.
func Idempotency(store idempotencyStore, logg *logger.Logger, ttl time.Duration) func(http.Handler) http.Handler {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if clientKey == "" || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			if len(clientKey) > maxIdempotencyKey {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key too long").
					WithField("max", maxIdempotencyKey))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			hash := hashBody(body)
			key := store.IdempotencyKey(UserIDFromContext(ctx)+"|"+r.Method+"|"+r.URL.Path, clientKey)

			existing, err := reserve(ctx, store, key, hash)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			if existing != nil {
				switch {
				case existing.RequestHash != hash:
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
				case existing.Pending:
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "a request with this idempotency key is still in progress"))
				default:
					replay(w, existing)
				}
				return
			}

			capture := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(capture, r)
			if capture.status == 0 {
				capture.status = http.StatusOK
			}

			// release on failure so the client can retry with the same key
			if capture.status < 200 || capture.status >= 300 {
				if err := store.Del(ctx, key); err != nil {
					logError(ctx, logg, "idempotency.release_failed", err)
				}
				return
			}
			payload, err := json.Marshal(idempotencyRecord{
				RequestHash: hash,
				Status:      capture.status,
				ContentType: capture.Header().Get("Content-Type"),
				Body:        base64.StdEncoding.EncodeToString(capture.body.Bytes()),
			})
			if err == nil {
				err = store.Set(ctx, key, string(payload), ttl)
			}
			if err != nil {
				logError(ctx, logg, "idempotency.persist_failed", err)
			}
		})
	}
}

// reserve claims key with a pending marker. It returns the stored record when
// another request already holds the key.
func reserve(ctx context.Context, store idempotencyStore, key, hash string) (*idempotencyRecord, error) {
	marker, err := json.Marshal(idempotencyRecord{Pending: true, RequestHash: hash})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode idempotency marker")
	}
	for attempt := 0; attempt < reservationAttempts; attempt++ {
		claimed, err := store.SetNX(ctx, key, string(marker), inFlightTTL)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve idempotency key")
		}
		if claimed {
			return nil, nil
		}
		stored, err := store.Get(ctx, key)
		if errors.Is(err, redis.Nil) {
			// expired between SETNX and GET
			continue
		}
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency key")
		}
		var record idempotencyRecord
		if err := json.Unmarshal([]byte(stored), &record); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record")
		}
		return &record, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeDependency, "could not reserve idempotency key")
}

func replay(w http.ResponseWriter, record *idempotencyRecord) {
	body, err := base64.StdEncoding.DecodeString(record.Body)
	if err != nil {
		body = nil
	}
	if record.ContentType != "" {
		w.Header().Set("Content-Type", record.ContentType)
	}
	w.Header().Set(replayedHeader, "true")
	w.WriteHeader(record.Status)
	_, _ = w.Write(body)
}

func hashBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (r *responseCapture) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseCapture) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func logError(ctx context.Context, logg *logger.Logger, msg string, err error) {
	if logg == nil || err == nil {
		return
	}
	logg.Error(ctx, msg, err)
}
