// Package apperrors defines the error kinds surfaced by dbkeeper commands.
// Every failure that reaches the command layer carries a Kind so callers can
// decide on exit codes without string matching.
package apperrors

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Kind classifies a failure.
type Kind string

const (
	KindEnvironmentViolation Kind = "environment_violation"
	KindConfirmationDeclined Kind = "confirmation_declined"
	KindCatalogQuery         Kind = "catalog_query_failure"
	KindMutation             Kind = "mutation_failure"
	KindMigration            Kind = "migration_failure"
	KindCreation             Kind = "creation_failure"
	KindArchive              Kind = "archive_failure"
	KindUpload               Kind = "upload_failure"
	KindConfiguration        Kind = "configuration_failure"
	KindConnection           Kind = "connection_failure"
)

// Sentinels for errors.Is checks.
var (
	ErrEnvironmentViolation = errors.New("environment violation")
	ErrConfirmationDeclined = errors.New("confirmation declined")
	ErrCatalogQuery         = errors.New("catalog query failed")
	ErrMutation             = errors.New("table mutation failed")
	ErrMigration            = errors.New("migration failed")
	ErrCreation             = errors.New("database creation failed")
	ErrArchive              = errors.New("archive failed")
	ErrUpload               = errors.New("upload failed")
	ErrConfiguration        = errors.New("invalid configuration")
	ErrConnection           = errors.New("connection failed")
)

var sentinels = map[Kind]error{
	KindEnvironmentViolation: ErrEnvironmentViolation,
	KindConfirmationDeclined: ErrConfirmationDeclined,
	KindCatalogQuery:         ErrCatalogQuery,
	KindMutation:             ErrMutation,
	KindMigration:            ErrMigration,
	KindCreation:             ErrCreation,
	KindArchive:              ErrArchive,
	KindUpload:               ErrUpload,
	KindConfiguration:        ErrConfiguration,
	KindConnection:           ErrConnection,
}

// Error is a classified failure with optional context.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
	Details map[string]interface{}
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		if s, ok := sentinels[e.Kind]; ok {
			msg = s.Error()
		} else {
			msg = string(e.Kind)
		}
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind, then the wrapped chain.
func (e *Error) Is(target error) bool {
	if s, ok := sentinels[e.Kind]; ok && s == target {
		return true
	}
	if t, ok := target.(*Error); ok {
		return t.Kind == e.Kind && (t.Op == "" || t.Op == e.Op)
	}
	return false
}

// WithDetail attaches a key/value pair and returns the same error.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a classified error. The message becomes a stack-carrying cause,
// so Error() reads "op: <kind text>: message".
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Err: pkgerrors.New(message)}
}

// Wrap classifies err. The cause is annotated with the caller's stack so
// verbose output can print it with %+v.
func Wrap(kind Kind, op string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: pkgerrors.WithStack(err)}
}

// Wrapf is Wrap with a message.
func Wrapf(kind Kind, op string, err error, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...), Err: pkgerrors.WithStack(err)}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsDeclined reports whether err is a confirmation decline, which commands
// treat as success.
func IsDeclined(err error) bool {
	return errors.Is(err, ErrConfirmationDeclined)
}

// Format supports %+v by printing the message followed by the cause's stack.
func (e *Error) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			fmt.Fprint(s, e.Error())
			if e.Err != nil {
				fmt.Fprintf(s, "\n%+v", e.Err)
			}
			return
		}
		fmt.Fprint(s, e.Error())
	case 's':
		fmt.Fprint(s, e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}
