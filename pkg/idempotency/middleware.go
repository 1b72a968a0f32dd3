package idempotency

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/GlebRadaev/akalimo/pkg/auth"
	"github.com/GlebRadaev/akalimo/pkg/utils"
	"go.uber.org/zap"
)

const (
	HeaderKey = "Idempotency-Key"
	HeaderHit = "X-Idempotency-Hit"

	processingMarker = "PROCESSING"
	lockTTL          = 10 * time.Second
	resultTTL        = 24 * time.Hour
)

type storedResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body,omitempty"`
}

type responseRecorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// Middleware makes state-changing requests carrying an Idempotency-Key replay
// the first outcome instead of running twice. Keys are scoped to the caller.
// Store failures let the request through.
func Middleware(store Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get(HeaderKey)
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			key := auth.UserIDFromContext(ctx).String() + ":" + r.URL.Path + ":" + header

			val, found, err := store.Get(ctx, key)
			if err != nil {
				zap.L().Warn("idempotency store unavailable", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if found {
				replay(w, val)
				return
			}

			acquired, err := store.Acquire(ctx, key, lockTTL)
			if err != nil {
				zap.L().Warn("idempotency store unavailable", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if !acquired {
				utils.RespondWithError(w, http.StatusConflict, "request with this idempotency key is in progress")
				return
			}

			rec := &responseRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			// server errors are not cached so the client may retry
			if rec.status == 0 || rec.status >= http.StatusInternalServerError {
				if err := store.Release(ctx, key); err != nil {
					zap.L().Warn("failed to release idempotency key", zap.Error(err))
				}
				return
			}

			stored := storedResponse{Status: rec.status}
			if json.Valid(rec.body.Bytes()) {
				stored.Body = bytes.TrimSpace(rec.body.Bytes())
			}
			payload, _ := json.Marshal(stored)
			if err := store.Complete(ctx, key, string(payload), resultTTL); err != nil {
				zap.L().Warn("failed to store idempotent response", zap.Error(err))
			}
		})
	}
}

func replay(w http.ResponseWriter, val string) {
	w.Header().Set(HeaderHit, "true")
	if val == processingMarker {
		utils.RespondWithError(w, http.StatusConflict, "request with this idempotency key is in progress")
		return
	}

	var stored storedResponse
	if err := json.Unmarshal([]byte(val), &stored); err != nil || stored.Status == 0 {
		utils.RespondWithError(w, http.StatusConflict, "request already processed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(stored.Status)
	if len(stored.Body) > 0 {
		_, _ = w.Write(stored.Body)
	}
}
