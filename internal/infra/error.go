package infra

import (
	"log/slog"

	"slot-reservation/internal/pkg/errs"
	"slot-reservation/internal/usecase/shared"
)

type RepositoryErrorKind string

type RepositoryError struct {
	Kind RepositoryErrorKind
	msg  string
	err  error // wrapped low-level error
}

func (e RepositoryError) Error() string {
	if e.err != nil {
		return string(e.Kind) + ": " + e.msg + ": " + e.err.Error()
	}
	return string(e.Kind) + ": " + e.msg
}

func (e RepositoryError) Unwrap() error {
	return e.err
}

// WrapRepoErr defaults to KindDBFailure when no kind is given. NOT_FOUND and UNAVAILABLE are
// marked with shared.ErrNotFound and shared.ErrUnavailable.
func WrapRepoErr(msg string, err error, kind ...RepositoryErrorKind) error {
	k := KindDBFailure
	if len(kind) > 0 {
		k = kind[0]
	}

	switch k {
	case KindDBFailure:
		slog.Error("Repository error: "+msg, slog.String("kind", string(k)), slog.Any("error", err))
	case KindUnavailable:
		slog.Warn("Repository error: "+msg, slog.String("kind", string(k)), slog.Any("error", err))
	}

	if err != nil {
		err = errs.Wrap(err, msg)
	}

	repoErr := RepositoryError{Kind: k, msg: msg, err: err}
	switch k {
	case KindNotFound:
		return errs.Mark(repoErr, shared.ErrNotFound)
	case KindUnavailable:
		return errs.Mark(repoErr, shared.ErrUnavailable)
	default:
		return repoErr
	}
}

func IsKind(err error, kind RepositoryErrorKind) bool {
	var e RepositoryError
	if errs.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// Infrastructure-specific error kinds
const (
	KindNotFound    RepositoryErrorKind = "NOT_FOUND"
	KindDBFailure   RepositoryErrorKind = "DB_FAILURE"
	KindUnavailable RepositoryErrorKind = "UNAVAILABLE"
	KindCorrupted   RepositoryErrorKind = "CORRUPTED"
)
