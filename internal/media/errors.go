package media

import (
	"errors"
	"fmt"

	"mediahub/internal/imagegen"
	"mediahub/internal/models"
)

// Kind classifies assembler failures.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindRemote     Kind = "remote"
	KindFilesystem Kind = "filesystem"
)

// Error is returned by every Assembler operation. The message is the
// underlying error's message, unchanged.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// KindOf returns the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var mediaErr *Error
	if errors.As(err, &mediaErr) {
		return mediaErr.Kind
	}
	return ""
}

func makeError(kind Kind, err error) error {
	if err == nil {
		err = fmt.Errorf("%s error", kind)
	}
	var existing *Error
	if errors.As(err, &existing) && existing.Kind != "" {
		return err
	}
	return &Error{Kind: kind, Err: err}
}

func validationError(err error) error {
	return makeError(KindValidation, err)
}

func notFound(err error) error {
	return makeError(KindNotFound, err)
}

func filesystemError(err error) error {
	return makeError(KindFilesystem, err)
}

// remoteError classifies a Record/Option Store failure. A missing record
// reported by the store becomes a not-found error.
func remoteError(err error) error {
	if errors.Is(err, models.ErrMediaNotFound) {
		return notFound(err)
	}
	return makeError(KindRemote, err)
}

// imageError classifies a generator failure.
func imageError(err error) error {
	if errors.Is(err, imagegen.ErrUnsupportedType) || errors.Is(err, imagegen.ErrInvalidCrop) {
		return validationError(err)
	}
	return filesystemError(err)
}
