package ai

import (
	"errors"
	"fmt"
	"time"
)

// AuthError indicates authentication/authorization failures (401/403).
type AuthError struct{ *APIError }

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.APIError.Error())
}

// RateLimitError indicates 429 responses and may include a Retry-After.
type RateLimitError struct {
	*APIError
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited: wait about %ds before retrying: %s", int(e.RetryAfter.Seconds()), e.APIError.Error())
	}
	return fmt.Sprintf("rate limited: %s", e.APIError.Error())
}

// ModelNotFoundError indicates the requested model is not loaded or pulled.
type ModelNotFoundError struct{ *APIError }

func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("model not found: %s", e.APIError.Error())
}

// BadRequestError indicates a 400 validation problem.
type BadRequestError struct{ *APIError }

func (e *BadRequestError) Error() string { return fmt.Sprintf("bad request: %s", e.APIError.Error()) }

// ServerError indicates 5xx errors from the runtime.
type ServerError struct{ *APIError }

func (e *ServerError) Error() string { return fmt.Sprintf("runtime error: %s", e.APIError.Error()) }

// UnreachableError indicates the target runtime is not reachable (e.g., local Ollama down).
type UnreachableError struct {
	Host string
	Err  error
}

func (e *UnreachableError) Error() string {
	if e == nil {
		return "unreachable"
	}
	if e.Host != "" {
		return fmt.Sprintf("endpoint unreachable at %s: %v", e.Host, e.Err)
	}
	return fmt.Sprintf("endpoint unreachable: %v", e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// Hint returns a short Spanish remediation line for err, or "" when none applies.
func Hint(err error) string {
	var (
		unreachable *UnreachableError
		notFound    *ModelNotFoundError
		auth        *AuthError
	)
	switch {
	case errors.As(err, &unreachable):
		return "Verifica que el runtime local (Ollama o LM Studio) esté en ejecución."
	case errors.As(err, &notFound):
		return "Descarga o carga el modelo configurado en llm_model."
	case errors.As(err, &auth):
		return "Revisa la API key del servidor compatible con OpenAI."
	}
	return ""
}
