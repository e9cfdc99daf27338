package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"tidsregistrering/internal/apperr"
	"tidsregistrering/internal/auth"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

func respondJSON(w http.ResponseWriter, v interface{}) {
	respondStatus(w, http.StatusOK, v)
}

func respondStatus(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

type errorBody struct {
	Error   string         `json:"error"`
	Kind    string         `json:"kind,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// respondError maps business errors to their status codes. Anything else is
// logged and reported as a generic failure.
func respondError(w http.ResponseWriter, r *http.Request, lg *zap.SugaredLogger, err error) {
	if e, ok := apperr.As(err); ok {
		status := http.StatusUnprocessableEntity
		switch e.Kind {
		case apperr.KindNotFound:
			status = http.StatusNotFound
		case apperr.KindForbidden:
			status = http.StatusForbidden
		}
		respondStatus(w, status, errorBody{Error: e.Message, Kind: e.Kind.String(), Details: e.Details})
		return
	}
	lg.Errorw("request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"identity", auth.Identity(r.Context()),
		"error", err,
	)
	respondStatus(w, http.StatusInternalServerError, errorBody{Error: "the operation failed, please try again"})
}

func badRequest(w http.ResponseWriter, msg string) {
	respondStatus(w, http.StatusBadRequest, errorBody{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			badRequest(w, "request body is empty")
		} else {
			badRequest(w, "invalid JSON body: "+err.Error())
		}
		return false
	}
	return true
}

func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(w, "invalid id")
		return 0, false
	}
	return id, true
}

// parseDate reads a YYYY-MM-DD value as a local calendar day. Blank input
// yields nil.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
