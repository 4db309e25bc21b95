// internal/errors/errors.go
package errors

import "fmt"

// ErrInvalidPeriod is returned when a period is not one of daily, weekly or monthly.
type ErrInvalidPeriod struct {
	Period string
}

func (e *ErrInvalidPeriod) Error() string {
	return fmt.Sprintf("invalid period: %q, expected daily, weekly or monthly", e.Period)
}

// ErrInvalidLanguage is returned when a language filter is not in the known-language set.
type ErrInvalidLanguage struct {
	Language string
}

func (e *ErrInvalidLanguage) Error() string {
	return fmt.Sprintf("invalid language: %q", e.Language)
}

// UpstreamFetchError wraps a transport or decoding failure talking to an upstream source.
// It never reaches callers of the fetcher; it only appears in logs.
type UpstreamFetchError struct {
	Source string
	Err    error
}

func (e *UpstreamFetchError) Error() string {
	return fmt.Sprintf("fetching from %s: %v", e.Source, e.Err)
}

func (e *UpstreamFetchError) Unwrap() error { return e.Err }

// StorageWriteError is returned when a snapshot cannot be written.
type StorageWriteError struct {
	Path string
	Err  error
}

func (e *StorageWriteError) Error() string {
	return fmt.Sprintf("writing snapshot %s: %v", e.Path, e.Err)
}

func (e *StorageWriteError) Unwrap() error { return e.Err }

// StorageReadError is returned when a snapshot is missing or cannot be decoded.
type StorageReadError struct {
	Path string
	Err  error
}

func (e *StorageReadError) Error() string {
	return fmt.Sprintf("reading snapshot %s: %v", e.Path, e.Err)
}

func (e *StorageReadError) Unwrap() error { return e.Err }

// NotifyDeliveryError wraps a messaging transport failure.
type NotifyDeliveryError struct {
	Destination string
	Err         error
}

func (e *NotifyDeliveryError) Error() string {
	return fmt.Sprintf("delivering message to %s: %v", e.Destination, e.Err)
}

func (e *NotifyDeliveryError) Unwrap() error { return e.Err }
