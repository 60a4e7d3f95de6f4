package webhook

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"unicode/utf16"
	"unicode/utf8"
)

const emailField = "email"

// maxDepth is the deepest array/object nesting accepted.
const maxDepth = 127

// Payload is the validated webhook body.
type Payload struct {
	Email string
}

// Reason says why a request was rejected.
type Reason int

const (
	ReasonMethodNotAllowed Reason = iota + 1
	ReasonMalformedJSON
	ReasonMissingField
	ReasonWrongType
)

func (r Reason) String() string {
	switch r {
	case ReasonMethodNotAllowed:
		return "method_not_allowed"
	case ReasonMalformedJSON:
		return "malformed_json"
	case ReasonMissingField:
		return "missing_field"
	case ReasonWrongType:
		return "wrong_type"
	default:
		return "unknown"
	}
}

// ValidationError is a client input error. Each Reason maps to one fixed
// status code and response body.
type ValidationError struct {
	Field  string
	Reason Reason
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid request: %s", e.Reason)
	}
	return fmt.Sprintf("invalid request: field %q: %s", e.Field, e.Reason)
}

// StatusCode is the HTTP status the error is reported with.
func (e *ValidationError) StatusCode() int {
	if e.Reason == ReasonMethodNotAllowed {
		return http.StatusMethodNotAllowed
	}
	return http.StatusBadRequest
}

// Message is the exact response body for the error.
func (e *ValidationError) Message() string {
	switch e.Reason {
	case ReasonMethodNotAllowed:
		return "Method Not Allowed"
	case ReasonMalformedJSON:
		return "Invalid JSON format in request body"
	case ReasonMissingField:
		return fmt.Sprintf("JSON object must contain the key %q", e.Field)
	case ReasonWrongType:
		return fmt.Sprintf("JSON object must contain a string value for the key %q", e.Field)
	default:
		return http.StatusText(e.StatusCode())
	}
}

// Response renders the error as the reply to send back.
func (e *ValidationError) Response() Response {
	return textResponse(e.StatusCode(), e.Message())
}

// Decode checks the method and body of a webhook request and extracts the
// payload. Checks run in order and the first failure is returned as a
// *ValidationError:
//
//   - method must be POST
//   - body must be UTF-8 encoded JSON
//   - the top-level value must be an object with an "email" key
//     (any non-object top level counts as a missing key)
//   - the "email" value must be a JSON string
func Decode(method string, body []byte) (Payload, error) {
	if method != http.MethodPost {
		return Payload{}, &ValidationError{Reason: ReasonMethodNotAllowed}
	}

	// encoding/json silently replaces invalid UTF-8 and unpaired surrogate
	// escapes with U+FFFD, and nests far deeper than other parsers allow.
	if !utf8.Valid(body) || !wellFormed(body) {
		return Payload{}, &ValidationError{Reason: ReasonMalformedJSON}
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return Payload{}, &ValidationError{Reason: ReasonMalformedJSON}
	}

	obj, _ := doc.(map[string]any)
	raw, ok := obj[emailField]
	if !ok {
		return Payload{}, &ValidationError{Field: emailField, Reason: ReasonMissingField}
	}

	email, ok := raw.(string)
	if !ok {
		return Payload{}, &ValidationError{Field: emailField, Reason: ReasonWrongType}
	}

	return Payload{Email: email}, nil
}

// wellFormed reports false when body nests arrays or objects deeper than
// maxDepth or has a \u escape that is an unpaired UTF-16 surrogate. Other
// syntax errors are left to encoding/json.
func wellFormed(body []byte) bool {
	depth := 0
	inString := false
	for i := 0; i < len(body); i++ {
		c := body[i]
		if !inString {
			switch c {
			case '"':
				inString = true
			case '[', '{':
				depth++
				if depth > maxDepth {
					return false
				}
			case ']', '}':
				depth--
			}
			continue
		}

		switch c {
		case '"':
			inString = false
		case '\\':
			if i+1 >= len(body) {
				return true
			}
			if body[i+1] != 'u' {
				i++
				continue
			}
			r, ok := hexEscape(body, i)
			if !ok {
				return true
			}
			i += 5
			switch {
			case utf16.IsSurrogate(r) && r < 0xDC00:
				lo, ok := hexEscape(body, i+1)
				if !ok || lo < 0xDC00 || lo > 0xDFFF {
					return false
				}
				i += 6
			case utf16.IsSurrogate(r):
				return false
			}
		}
	}
	return true
}

// hexEscape decodes the \uXXXX escape starting at body[i].
func hexEscape(body []byte, i int) (rune, bool) {
	if i+6 > len(body) || body[i] != '\\' || body[i+1] != 'u' {
		return 0, false
	}
	v, err := strconv.ParseUint(string(body[i+2:i+6]), 16, 16)
	if err != nil {
		return 0, false
	}
	return rune(v), true
}
