package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/cardshop/cardshop/internal/assets"
	"github.com/cardshop/cardshop/internal/model"
	"github.com/cardshop/cardshop/internal/prompt"
	"github.com/cardshop/cardshop/internal/reconcile"
	"github.com/cardshop/cardshop/internal/resilience"
	"github.com/cardshop/cardshop/internal/store"
)

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondErr maps a domain error onto an HTTP status and writes it.
func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := classifyError(err)
	if status >= http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", chimw.GetReqID(r.Context())),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	respondError(w, status, msg)
}

func classifyError(err error) (int, string) {
	var exhausted *resilience.ExhaustedError
	switch {
	case eris.Is(err, model.ErrValidation),
		eris.Is(err, prompt.ErrNoImages),
		eris.Is(err, assets.ErrUnsupportedType):
		return http.StatusBadRequest, err.Error()
	case eris.Is(err, store.ErrNotFound), eris.Is(err, assets.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case eris.Is(err, store.ErrExists):
		return http.StatusConflict, err.Error()
	case errors.As(err, &exhausted):
		return http.StatusServiceUnavailable, exhausted.Error()
	case eris.Is(err, resilience.ErrNoCandidates):
		return http.StatusServiceUnavailable, "no models configured"
	case eris.Is(err, reconcile.ErrParse):
		return http.StatusBadGateway, "model returned an unreadable response"
	case resilience.IsTransient(err):
		return http.StatusBadGateway, "model service unreachable, try again"
	}
	var me *resilience.ModelError
	if errors.As(err, &me) {
		return http.StatusBadGateway, me.Error()
	}
	return http.StatusInternalServerError, "internal error"
}

// decodeJSON reads an optional JSON body into v. An empty body leaves v as is.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return eris.Wrap(model.ErrValidation, "invalid request body")
	}
	return nil
}

// decodeRequiredJSON reads a JSON body that must be present. An empty body or
// a bare null is a validation error, so a full-record write never starts
// from a zero value.
func decodeRequiredJSON(r *http.Request, v any) error {
	errMissing := eris.Wrap(model.ErrValidation, "request body required")
	if r.Body == nil || r.ContentLength == 0 {
		return errMissing
	}

	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return errMissing
		}
		return eris.Wrap(model.ErrValidation, "invalid request body")
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return errMissing
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return eris.Wrap(model.ErrValidation, "invalid request body")
	}
	return nil
}

// requestLogger logs one line per request through zap.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		level := zap.InfoLevel
		switch {
		case status >= 500:
			level = zap.ErrorLevel
		case status >= 400:
			level = zap.WarnLevel
		}
		if ce := zap.L().Check(level, "request"); ce != nil {
			ce.Write(
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", chimw.GetReqID(r.Context())),
			)
		}
	})
}
