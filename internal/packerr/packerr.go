// Package packerr defines the error kinds reported while managing and
// exporting a modpack. Every *Error unwraps to the sentinel of its kind so
// callers can use errors.Is.
package packerr

import (
	"errors"
	"fmt"
)

// Severity classifies how serious a reported error is.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityNotice
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityNotice:
		return "notice"
	default:
		return "error"
	}
}

// Sentinel errors, one per kind.
var (
	ErrFileNotFound       = errors.New("file not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrCouldNotRead       = errors.New("could not read")
	ErrCouldNotSave       = errors.New("could not save")
	ErrDownloadFailed     = errors.New("download failed")
	ErrHashMismatch       = errors.New("hash mismatch")
	ErrNoHashes           = errors.New("no hashes")
	ErrNotRedistributable = errors.New("not redistributable")
	ErrNoFilesOnPlatform  = errors.New("no files on platform")
	ErrNoFiles            = errors.New("no files")
	ErrKindMismatch       = errors.New("kind mismatch")
	ErrLinkMismatch       = errors.New("link mismatch")
	ErrAlreadyAdded       = errors.New("already added")
	ErrIllegalPath        = errors.New("illegal path")
	ErrNotFound           = errors.New("not found")
	ErrMissingPackName    = errors.New("pack name is not set")
	ErrMissingMCVersion   = errors.New("minecraft version is not set")
)

// Error is a pack error of a given kind. Kind is always one of the
// sentinels above; Err optionally carries the underlying cause.
type Error struct {
	Kind     error
	Severity Severity
	Subject  string
	Detail   string
	Err      error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Subject != "" {
		msg = fmt.Sprintf("%s: %s", e.Subject, msg)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// SeverityOf returns the severity of err. Errors that are not *Error are
// treated as SeverityError.
func SeverityOf(err error) Severity {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Severity
	}
	return SeverityError
}

// IsFatal reports whether err should be counted as a failure rather than
// a warning or notice. A nil error is not fatal.
func IsFatal(err error) bool {
	return err != nil && SeverityOf(err) == SeverityError
}

func newError(kind error, sev Severity, subject, detail string, cause error) *Error {
	return &Error{Kind: kind, Severity: sev, Subject: subject, Detail: detail, Err: cause}
}

func FileNotFound(path string) *Error {
	return newError(ErrFileNotFound, SeverityError, path, "", nil)
}

// AlreadyExists is a notice: the output was produced by an earlier run.
func AlreadyExists(path string) *Error {
	return newError(ErrAlreadyExists, SeverityNotice, path, "", nil)
}

func CouldNotRead(path string, cause error) *Error {
	return newError(ErrCouldNotRead, SeverityError, path, "", cause)
}

func CouldNotSave(path string, cause error) *Error {
	return newError(ErrCouldNotSave, SeverityError, path, "", cause)
}

func DownloadFailed(url string, cause error) *Error {
	return newError(ErrDownloadFailed, SeverityError, url, "", cause)
}

func HashMismatch(path, algo, expected, actual string) *Error {
	return newError(ErrHashMismatch, SeverityError, path,
		fmt.Sprintf("%s expected %s, got %s", algo, expected, actual), nil)
}

// NoHashes is a warning: the content could not be verified.
func NoHashes(path string) *Error {
	return newError(ErrNoHashes, SeverityWarning, path, "", nil)
}

func NotRedistributable(subject string) *Error {
	return newError(ErrNotRedistributable, SeverityError, subject, "", nil)
}

func NoFilesOnPlatform(subject, platform string) *Error {
	return newError(ErrNoFilesOnPlatform, SeverityError, subject, platform, nil)
}

func NoFiles(subject string) *Error {
	return newError(ErrNoFiles, SeverityError, subject, "", nil)
}

func KindMismatch(subject, left, right string) *Error {
	return newError(ErrKindMismatch, SeverityError, subject, fmt.Sprintf("%s != %s", left, right), nil)
}

func LinkMismatch(subject string) *Error {
	return newError(ErrLinkMismatch, SeverityError, subject, "", nil)
}

// AlreadyAdded is a notice.
func AlreadyAdded(subject string) *Error {
	return newError(ErrAlreadyAdded, SeverityNotice, subject, "", nil)
}

func IllegalPath(path string) *Error {
	return newError(ErrIllegalPath, SeverityError, path, "", nil)
}

func NotFound(subject string) *Error {
	return newError(ErrNotFound, SeverityError, subject, "", nil)
}
