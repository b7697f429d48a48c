package gemini

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidJSON marks a model response that could not be decoded even
// after stripping markdown fences.
var ErrInvalidJSON = errors.New("invalid JSON from AI model")

// decodeJSON parses a model response into T. Models occasionally wrap
// structured output in ```json fences despite the response MIME type, so
// fences are stripped before decoding.
func decodeJSON[T any](raw string) (T, error) {
	var v T

	clean := strings.ReplaceAll(raw, "```json", "")
	clean = strings.ReplaceAll(clean, "```", "")
	clean = strings.TrimSpace(clean)

	if err := json.Unmarshal([]byte(clean), &v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return v, nil
}
