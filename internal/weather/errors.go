package weather

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDataType matches any *InvalidDataTypeError.
	ErrInvalidDataType = errors.New("invalid data type")
	// ErrInvalidLanguage matches any *InvalidLanguageError.
	ErrInvalidLanguage = errors.New("invalid language")
)

// InvalidDataTypeError rejects an unrecognized data type before any network call.
type InvalidDataTypeError struct {
	Value string
}

func (e *InvalidDataTypeError) Error() string {
	return fmt.Sprintf("invalid data type %q", e.Value)
}

func (e *InvalidDataTypeError) Is(target error) bool {
	return target == ErrInvalidDataType
}

// InvalidLanguageError rejects an unrecognized language before any network call.
type InvalidLanguageError struct {
	Value string
}

func (e *InvalidLanguageError) Error() string {
	return fmt.Sprintf("invalid language %q", e.Value)
}

func (e *InvalidLanguageError) Is(target error) bool {
	return target == ErrInvalidLanguage
}

// UpstreamHTTPError is a non-2xx response from the upstream API.
type UpstreamHTTPError struct {
	StatusCode int
	Status     string
}

func (e *UpstreamHTTPError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("HTTP %s", e.Status)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// UpstreamTransportError covers connection, timeout, circuit-open and body decoding failures.
type UpstreamTransportError struct {
	Op  string
	Err error
}

func (e *UpstreamTransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamTransportError) Unwrap() error {
	return e.Err
}

// FetchExhaustedError is returned once every retry attempt has failed.
type FetchExhaustedError struct {
	DataType DataType
	Language Language
	Attempts int
	LastErr  error
}

func (e *FetchExhaustedError) Error() string {
	return fmt.Sprintf("failed to fetch %s (%s) after %d attempts: %v", e.DataType, e.Language, e.Attempts, e.LastErr)
}

func (e *FetchExhaustedError) Unwrap() error {
	return e.LastErr
}
