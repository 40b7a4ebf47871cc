package discord

import (
	"errors"
	"fmt"
)

// Sentinel errors for missing Discord resources
var (
	ErrMessageNotFound = errors.New("discord message not found")
	ErrChannelNotFound = errors.New("discord channel not found")
	ErrUnauthorized    = errors.New("discord token rejected")
)

// JSON error codes returned by the Discord API
// https://discord.com/developers/docs/topics/opcodes-and-status-codes#json
const (
	codeUnknownChannel = 10003
	codeUnknownMessage = 10008
)

// APIError is a non-2xx response from the Discord API
type APIError struct {
	StatusCode int     `json:"-"`
	Code       int     `json:"code"`
	Message    string  `json:"message"`
	RetryAfter float64 `json:"retry_after,omitempty"`
	sentinel   error
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("discord API error: status=%d code=%d message=%s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("discord API error: status=%d message=%s", e.StatusCode, e.Message)
}

// Unwrap exposes the matching sentinel so callers can use errors.Is
func (e *APIError) Unwrap() error {
	return e.sentinel
}
