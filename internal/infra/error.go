package infra

import (
	"errors"
	"log/slog"
	"sort"
	"strings"

	"restaurant-ordering/internal/pkg/errs"
)

type RepositoryErrorKind string

type RepositoryError struct {
	Kind   RepositoryErrorKind
	msg    string
	fields map[string]string // field-level validation messages from the store
	err    error             // wrapped low-level error
}

func (e RepositoryError) Error() string {
	s := string(e.Kind) + ": " + e.msg
	if d := e.Details(); d != "" {
		s += " (" + d + ")"
	}
	if e.err != nil {
		s += ": " + e.err.Error()
	}
	return s
}

func (e RepositoryError) Unwrap() error {
	return e.err
}

func (e RepositoryError) Message() string {
	return e.msg
}

func (e RepositoryError) Fields() map[string]string {
	return e.fields
}

// Details joins field-level messages into one string, ordered by field name.
func (e RepositoryError) Details() string {
	if len(e.fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(e.fields))
	for k := range e.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.fields[k])
	}
	return strings.Join(parts, "; ")
}

func WrapRepoErr(slogger *slog.Logger, kind RepositoryErrorKind, msg string, err error) error {
	logArgs := []any{
		slog.String("kind", string(kind)),
	}
	if err != nil {
		logArgs = append(logArgs, slog.String("error", err.Error()))
	}

	if kind == KindNotFound {
		slogger.Debug("Repository error: "+msg, logArgs...)
	} else {
		slogger.Error("Repository error: "+msg, logArgs...)
	}

	if err != nil {
		err = errs.Wrap(err, msg)
	}

	return RepositoryError{Kind: kind, msg: msg, err: err}
}

// NewValidationErr carries field-level messages reported by the store.
func NewValidationErr(msg string, fields map[string]string) error {
	return RepositoryError{Kind: KindValidation, msg: msg, fields: fields}
}

func NotFound(msg string) error {
	return RepositoryError{Kind: KindNotFound, msg: msg}
}

func Conflict(msg string) error {
	return RepositoryError{Kind: KindConflict, msg: msg}
}

func IsKind(err error, kind RepositoryErrorKind) bool {
	var e RepositoryError
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

func IsNotFound(err error) bool {
	return IsKind(err, KindNotFound)
}

// DetailsOf returns the joined field-level messages of a repository error, if any.
func DetailsOf(err error) string {
	var e RepositoryError
	if errors.As(err, &e) {
		return e.Details()
	}
	return ""
}

// Infrastructure-specific error kinds
const (
	KindNotFound   RepositoryErrorKind = "NOT_FOUND"
	KindDBFailure  RepositoryErrorKind = "DB_FAILURE"
	KindValidation RepositoryErrorKind = "VALIDATION"
	KindConflict   RepositoryErrorKind = "CONFLICT"
)
