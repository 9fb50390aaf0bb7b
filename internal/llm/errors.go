package llm

import "errors"

var (
	// ErrUnavailable indicates the model backend is unreachable or not configured.
	ErrUnavailable = errors.New("llm backend unavailable")

	// ErrTimeout indicates the LLM request exceeded the configured timeout.
	ErrTimeout = errors.New("llm request timed out")

	// ErrInvalidOutput indicates the LLM response could not be parsed
	// into the expected structured format.
	ErrInvalidOutput = errors.New("invalid llm output format")

	// ErrRetryExhausted indicates all retry attempts have been exhausted.
	ErrRetryExhausted = errors.New("llm retry attempts exhausted")

	// ErrEmptyResponse indicates the model returned no text.
	ErrEmptyResponse = errors.New("empty response from llm")

	// ErrBlocked indicates the provider refused the prompt or the answer
	// on safety grounds.
	ErrBlocked = errors.New("llm response blocked by safety filter")
)
