// Package outputparser extracts structured values from LLM responses.
// Models rarely return bare JSON even when asked to, so extraction
// tolerates code fences and surrounding prose.
package outputparser

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseError reports a response that could not be parsed.
type ParseError struct {
	Message string
	Output  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("output parser error: %s (output: %s)", e.Message, e.Output)
}

// NewParseError creates a new ParseError.
func NewParseError(message, output string) *ParseError {
	return &ParseError{
		Message: message,
		Output:  output,
	}
}

// ExtractJSON extracts the JSON payload from text. It checks fenced code
// blocks first, then falls back to the outermost object or array.
func ExtractJSON(text string) string {
	// Look for JSON in code blocks
	codeBlockStart := strings.Index(text, "```json")
	if codeBlockStart != -1 {
		start := codeBlockStart + 7
		end := strings.Index(text[start:], "```")
		if end != -1 {
			return strings.TrimSpace(text[start : start+end])
		}
	}

	// Look for code blocks without language
	codeBlockStart = strings.Index(text, "```")
	if codeBlockStart != -1 {
		start := codeBlockStart + 3
		end := strings.Index(text[start:], "```")
		if end != -1 {
			return strings.TrimSpace(text[start : start+end])
		}
	}

	// Find JSON object
	start := strings.Index(text, "{")
	if start != -1 {
		end := strings.LastIndex(text, "}")
		if end > start {
			return text[start : end+1]
		}
	}

	// Find JSON array
	start = strings.Index(text, "[")
	if start != -1 {
		end := strings.LastIndex(text, "]")
		if end > start {
			return text[start : end+1]
		}
	}

	return ""
}

// ParseFloatArray parses a JSON array of numbers from an LLM response.
func ParseFloatArray(output string) ([]float64, error) {
	jsonStr := ExtractJSON(output)
	if jsonStr == "" {
		return nil, NewParseError("no JSON found in output", output)
	}

	var values []float64
	if err := json.Unmarshal([]byte(jsonStr), &values); err != nil {
		return nil, NewParseError(fmt.Sprintf("not a JSON number array: %v", err), output)
	}
	return values, nil
}
