package store

import (
	"errors"
	"fmt"
)

// ArgumentErrorCode categorizes malformed calls to the store API.
type ArgumentErrorCode string

const (
	// ErrCodeBadKey indicates an empty or otherwise unusable key.
	ErrCodeBadKey ArgumentErrorCode = "BAD_KEY"

	// ErrCodeReservedKey indicates an attempt to write under the
	// engine's reserved namespace.
	ErrCodeReservedKey ArgumentErrorCode = "RESERVED_KEY"

	// ErrCodeBadValue indicates a value that cannot round-trip through
	// the serializer (function, channel, complex number).
	ErrCodeBadValue ArgumentErrorCode = "BAD_VALUE"

	// ErrCodeBadCallback indicates a nil subscription callback.
	ErrCodeBadCallback ArgumentErrorCode = "BAD_CALLBACK"

	// ErrCodeBadDocument indicates a nil or non-mapping bulk document.
	ErrCodeBadDocument ArgumentErrorCode = "BAD_DOCUMENT"
)

// ArgumentError reports a malformed call. The store's state, in memory
// and on disk, is unchanged when one is returned.
type ArgumentError struct {
	Code    ArgumentErrorCode
	Key     string
	Message string
}

func (e *ArgumentError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s: %s (key=%q)", e.Code, e.Message, e.Key)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsArgumentError reports whether err is an ArgumentError, unwrapping as
// needed.
func IsArgumentError(err error) bool {
	var ae *ArgumentError
	return errors.As(err, &ae)
}

// IsReservedKeyError reports whether err is the reserved-namespace guard
// firing.
func IsReservedKeyError(err error) bool {
	var ae *ArgumentError
	return errors.As(err, &ae) && ae.Code == ErrCodeReservedKey
}

func badKey(key, message string) *ArgumentError {
	return &ArgumentError{Code: ErrCodeBadKey, Key: key, Message: message}
}

func reservedKey(key string) *ArgumentError {
	return &ArgumentError{
		Code:    ErrCodeReservedKey,
		Key:     key,
		Message: fmt.Sprintf("the %s namespace is managed by the store and cannot be written directly", InternalKey),
	}
}

func badValue(key string, value any) *ArgumentError {
	return &ArgumentError{
		Code:    ErrCodeBadValue,
		Key:     key,
		Message: fmt.Sprintf("value of type %T cannot be serialized", value),
	}
}
