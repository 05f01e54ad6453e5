package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/api/responses"
	pkgerrors "github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/errors"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/logger"
	pkgredis "github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/redis"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	ReplayedHeader       = "Idempotent-Replayed"

	defaultIdempotencyTTL  = 24 * time.Hour
	criticalIdempotencyTTL = 7 * 24 * time.Hour

	// Bodies are buffered for fingerprinting, so they are capped before the
	// handler's own limits apply. JSON routes match the validators' cap; the
	// relay cap covers the default attachment budget plus multipart framing.
	jsonBodyLimit  = 1 << 20
	relayBodyLimit = 16 << 20
)

// replayable lists the POST routes that honour Idempotency-Key. A zero TTL
// means the TTL passed to Idempotency; money-moving routes keep a week.
var replayable = map[string]time.Duration{
	"POST /api/payments/create-order": criticalIdempotencyTTL,
	"POST /api/payments/verify":       criticalIdempotencyTTL,
	"POST /api/purchases/store":       criticalIdempotencyTTL,
	"POST /api/projects":              0,
	"POST /api/mappings":              0,
	"POST /send-email":                0,
}

var bodyLimits = map[string]int64{
	"POST /send-email": relayBodyLimit,
}

type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body"`
	Fingerprint string `json:"fingerprint"`
}

// Idempotency replays the first stored response when a client retries a
// replayable route with the same Idempotency-Key and body. A different body
// under the same key is rejected with IDEMPOTENCY_KEY_REUSED. 5xx responses
// are never stored.
func Idempotency(store pkgredis.IdempotencyStore, ttl time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientKey := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
			keep, ok := routeTTL(r.Method, normalizedPath(r))
			if !ok || store == nil || clientKey == "" {
				next.ServeHTTP(w, r)
				return
			}
			if keep <= 0 {
				keep = ttl
			}

			ctx := r.Context()
			body, err := readCapped(w, r)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			fingerprint := fingerprintBody(body)
			redisKey := store.IdempotencyKey(callerScope(r), clientKey)

			prior, err := lookupResponse(r, store, redisKey)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			if prior != nil {
				if prior.Fingerprint != fingerprint {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
					return
				}
				prior.replay(w)
				return
			}

			capture := &bodyRecorder{statusRecorder: statusRecorder{ResponseWriter: w}}
			next.ServeHTTP(capture, r)

			status := capture.status
			if status == 0 {
				status = http.StatusOK
			}
			if status >= http.StatusInternalServerError {
				return
			}
			saved := storedResponse{
				Status:      status,
				ContentType: capture.Header().Get("Content-Type"),
				Body:        capture.body.Bytes(),
				Fingerprint: fingerprint,
			}
			payload, err := json.Marshal(saved)
			if err == nil {
				_, err = store.SetNX(ctx, redisKey, string(payload), keep)
			}
			if err != nil && logg != nil {
				logg.Error(ctx, "persist idempotent response", err)
			}
		})
	}
}

func readCapped(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	limit := routeBodyLimit(r.Method, normalizedPath(r))
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return nil, pkgerrors.New(pkgerrors.CodeTooLarge, "request body too large").
			WithDetails(map[string]int64{"limitBytes": limit})
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body")
	}
	return body, nil
}

func lookupResponse(r *http.Request, store pkgredis.IdempotencyStore, key string) (*storedResponse, error) {
	raw, err := store.Get(r.Context(), key)
	switch {
	case errors.Is(err, redis.Nil), err == nil && raw == "":
		return nil, nil
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency key")
	}
	var prior storedResponse
	if err := json.Unmarshal([]byte(raw), &prior); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode stored response")
	}
	return &prior, nil
}

func (s *storedResponse) replay(w http.ResponseWriter) {
	if s.ContentType != "" {
		w.Header().Set("Content-Type", s.ContentType)
	}
	w.Header().Set(ReplayedHeader, "true")
	w.WriteHeader(s.Status)
	_, _ = w.Write(s.Body)
}

// callerScope keeps one caller's keys from colliding with another's on the
// same route. Anonymous callers share the empty email.
func callerScope(r *http.Request) string {
	return EmailFromContext(r.Context()) + "|" + r.Method + "|" + normalizedPath(r)
}

func fingerprintBody(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// normalizedPath uses the raw path because this middleware runs before nested
// routers finish matching.
func normalizedPath(r *http.Request) string {
	path := r.URL.Path
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}

func routeTTL(method, path string) (time.Duration, bool) {
	ttl, ok := replayable[method+" "+path]
	return ttl, ok
}

func routeBodyLimit(method, path string) int64 {
	if limit, ok := bodyLimits[method+" "+path]; ok {
		return limit
	}
	return jsonBodyLimit
}

type bodyRecorder struct {
	statusRecorder
	body bytes.Buffer
}

func (b *bodyRecorder) Write(p []byte) (int, error) {
	b.body.Write(p)
	return b.statusRecorder.Write(p)
}
