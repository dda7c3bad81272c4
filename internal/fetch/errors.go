package fetch

import "fmt"

// ErrorKind classifies a failed download
type ErrorKind int

const (
	KindNetwork ErrorKind = iota
	KindStatus
	KindEncoding
	KindTooLarge
	// KindCanceled means the image arrived but nobody was left to take it
	KindCanceled
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindStatus:
		return "status"
	case KindEncoding:
		return "encoding"
	case KindTooLarge:
		return "too_large"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Error is a failed download or decode
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("HTTP error: %d", e.StatusCode)
	case KindEncoding:
		return fmt.Sprintf("encoding error: %v", e.Err)
	case KindTooLarge:
		return fmt.Sprintf("image too large: %v", e.Err)
	case KindCanceled:
		return fmt.Sprintf("download canceled: %v", e.Err)
	default:
		return fmt.Sprintf("network error: %v", e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}
