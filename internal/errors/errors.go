// Package errors provides the error taxonomy of the catalog engine.
// Callers check categories with errors.Is against the sentinel values
// and extract details with errors.As on the typed errors.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
var New = errors.New

// Is and As are re-exported so callers need a single errors import.
var (
	Is = errors.Is
	As = errors.As
)

var (
	// ErrIO indicates a file could not be read or written completely
	ErrIO = errors.New("i/o failure")

	// ErrFormat indicates a persisted catalog is unparsable or of an unsupported version
	ErrFormat = errors.New("bad catalog format")

	// ErrConfiguration indicates a catalog does not belong to the directory being operated on
	ErrConfiguration = errors.New("configuration mismatch")

	// ErrDuplicateKey indicates a strict insert hit an existing key
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrUserCancelled indicates a destructive step was declined
	ErrUserCancelled = errors.New("cancelled by user")

	// ErrNotFound indicates a requested record does not exist
	ErrNotFound = errors.New("not found")

	// ErrSizeMismatch indicates two entries share a content hash but disagree on size
	ErrSizeMismatch = errors.New("size mismatch for equal content hash")
)

// IOError records a failed file operation on a single path.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

func (e *IOError) Is(target error) bool {
	return target == ErrIO
}

// NewIOError creates a new IOError
func NewIOError(op, path string, err error) *IOError {
	return &IOError{Op: op, Path: path, Err: err}
}

// FormatError is fatal to the read of one persisted catalog.
type FormatError struct {
	Source  string
	Message string
	Err     error
}

func (e *FormatError) Error() string {
	msg := e.Message
	if e.Source != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Source)
	}
	if e.Err != nil {
		return fmt.Sprintf("catalog format error: %s: %v", msg, e.Err)
	}
	return "catalog format error: " + msg
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

// NewFormatError creates a new FormatError
func NewFormatError(source, message string, err error) *FormatError {
	return &FormatError{Source: source, Message: message, Err: err}
}

// ConfigurationError signals that stored state and the requested operation disagree,
// e.g. a catalog recorded for another base directory.
type ConfigurationError struct {
	Expected string
	Actual   string
	Message  string
}

func (e *ConfigurationError) Error() string {
	if e.Expected != "" || e.Actual != "" {
		return fmt.Sprintf("configuration error: %s (expected %q, got %q)", e.Message, e.Expected, e.Actual)
	}
	return "configuration error: " + e.Message
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// NewConfigurationError creates a new ConfigurationError
func NewConfigurationError(message, expected, actual string) *ConfigurationError {
	return &ConfigurationError{Message: message, Expected: expected, Actual: actual}
}

// DuplicateKeyError is raised by strict inserts on an existing key.
type DuplicateKeyError struct {
	Kind string
	Key  string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate %s: %s", e.Kind, e.Key)
}

func (e *DuplicateKeyError) Is(target error) bool {
	return target == ErrDuplicateKey
}

// NewDuplicateKeyError creates a new DuplicateKeyError
func NewDuplicateKeyError(kind, key string) *DuplicateKeyError {
	return &DuplicateKeyError{Kind: kind, Key: key}
}

// UserCancelledError aborts a destructive step only.
type UserCancelledError struct {
	Action string
}

func (e *UserCancelledError) Error() string {
	return fmt.Sprintf("%s not confirmed", e.Action)
}

func (e *UserCancelledError) Is(target error) bool {
	return target == ErrUserCancelled
}

// NewUserCancelledError creates a new UserCancelledError
func NewUserCancelledError(action string) *UserCancelledError {
	return &UserCancelledError{Action: action}
}

// IsIO checks if an error is a per-file I/O failure
func IsIO(err error) bool {
	return errors.Is(err, ErrIO)
}

// IsFormat checks if an error is a catalog format error
func IsFormat(err error) bool {
	return errors.Is(err, ErrFormat)
}

// IsConfiguration checks if an error is a configuration error
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsDuplicateKey checks if an error is a duplicate key error
func IsDuplicateKey(err error) bool {
	return errors.Is(err, ErrDuplicateKey)
}

// IsUserCancelled checks if an error stems from a declined confirmation
func IsUserCancelled(err error) bool {
	return errors.Is(err, ErrUserCancelled)
}
