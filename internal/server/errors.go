package server

import (
	"errors"

	"github.com/kstaniek/go-fftp/internal/metrics"
)

// Sentinel errors used for wrapping so callers can classify via errors.Is.
var (
	ErrConfig   = errors.New("config")
	ErrListen   = errors.New("listen")
	ErrIO       = errors.New("io")
	ErrNotFound = errors.New("not_found")
	ErrEscape   = errors.New("path_escape")
	ErrContext  = errors.New("context_cancelled")
)

// mapErrToMetric maps wrapped sentinel errors to metrics labels.
func mapErrToMetric(err error) string {
	switch {
	case errors.Is(err, ErrIO):
		return metrics.ErrIO
	case errors.Is(err, ErrListen):
		return metrics.ErrListen
	case errors.Is(err, ErrEscape):
		return metrics.ErrPathEscape
	case errors.Is(err, ErrNotFound):
		return metrics.ErrNotFound
	case errors.Is(err, ErrContext):
		return "context"
	default:
		return "other"
	}
}
