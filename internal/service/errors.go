package service

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrLocationUnresolved is returned when neither the typed location nor
	// IP geolocation yields coordinates.
	ErrLocationUnresolved = errors.New("location could not be resolved")

	// ErrNothingToSave is returned when there is no generated story to keep.
	ErrNothingToSave = errors.New("no story to save, generate a story first")

	// ErrIndexOutOfRange is matched by every IndexError.
	ErrIndexOutOfRange = errors.New("index out of range")
)

// IndexError reports a 1-based position outside the list.
type IndexError struct {
	Noun  string // "story" or "postcard"
	Index int
	Count int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("Invalid %s number. Please enter a number between 1 and %d.", e.Noun, e.Count)
}

func (e *IndexError) Is(target error) bool { return target == ErrIndexOutOfRange }

// ErrorKey maps an error to the key of its poetic user-facing message.
func ErrorKey(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrLocationUnresolved):
		return "location_error"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout_error"
	case errors.Is(err, ErrNothingToSave):
		return "story_generation_error"
	}
	return "generic_error"
}
