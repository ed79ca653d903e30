package httputil

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/AdamBeresnev/tournament-portal/internal/bracket"
)

func InternalServerError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func BadRequest(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("bad request", "message", msg, "error", err)
	} else {
		slog.Warn("bad request", "message", msg)
	}
	http.Error(w, msg, http.StatusBadRequest)
}

func NotFound(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("not found", "message", msg, "error", err)
	} else {
		slog.Warn("not found", "message", msg)
	}
	http.Error(w, msg, http.StatusNotFound)
}

func Forbidden(w http.ResponseWriter, msg string, err error) {
	slog.Warn("forbidden", "message", msg, "error", err)
	http.Error(w, msg, http.StatusForbidden)
}

func Conflict(w http.ResponseWriter, msg string, err error) {
	slog.Warn("conflict", "message", msg, "error", err)
	http.Error(w, msg, http.StatusConflict)
}

// Status maps a domain error to the HTTP status it should be answered with
func Status(err error) int {
	switch {
	case errors.Is(err, bracket.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, bracket.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, bracket.ErrInvalidWinner),
		errors.Is(err, bracket.ErrInvalidScore),
		errors.Is(err, bracket.ErrMatchNotReady),
		errors.Is(err, bracket.ErrInsufficientParticipants),
		errors.Is(err, bracket.ErrUnsupportedFormat),
		errors.Is(err, bracket.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, bracket.ErrMatchCompleted),
		errors.Is(err, bracket.ErrAlreadyAdvanced),
		errors.Is(err, bracket.ErrResultsRecorded),
		errors.Is(err, bracket.ErrRegistrationClosed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error answers with the status matching err. Client errors echo the error text,
// anything else is logged and hidden behind a generic 500.
func Error(w http.ResponseWriter, msg string, err error) {
	switch Status(err) {
	case http.StatusNotFound:
		NotFound(w, err.Error(), err)
	case http.StatusForbidden:
		Forbidden(w, err.Error(), err)
	case http.StatusBadRequest:
		BadRequest(w, err.Error(), err)
	case http.StatusConflict:
		Conflict(w, err.Error(), err)
	default:
		InternalServerError(w, msg, err)
	}
}
