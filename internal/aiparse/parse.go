package aiparse

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrEmpty is returned when the model produced nothing usable at all.
// Callers should treat this as a failed generation and retry upstream.
var ErrEmpty = errors.New("empty model response")

// UnrecoverableError means both the strict parse and the repair pass failed.
// Raw keeps the original model output for diagnostics.
type UnrecoverableError struct {
	Raw string
	Err error
}

func (e *UnrecoverableError) Error() string {
	return fmt.Sprintf("unrecoverable model response: %v. Response: %s", e.Err, e.Raw)
}

func (e *UnrecoverableError) Unwrap() error {
	return e.Err
}

// Parse turns a raw model response into a generic JSON value
// (map[string]any / []any / string / float64 / bool / nil).
//
// Models are told to return bare JSON but routinely wrap it in markdown
// fences, use typographic quotes, leave trailing commas or prose around the
// payload. Parse strips the noise, tries a strict decode, and falls back to
// a tolerant repair pass before giving up.
func Parse(raw string) (any, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, ErrEmpty
	}

	text = stripFences(text)
	text = normalizeQuotes(text)

	var v any
	if err := json.Unmarshal([]byte(text), &v); err == nil {
		return v, nil
	}

	text = trimToPayload(text)
	if err := json.Unmarshal([]byte(text), &v); err == nil {
		return v, nil
	}

	repaired := repair(text)
	if err := json.Unmarshal([]byte(repaired), &v); err != nil {
		return nil, &UnrecoverableError{Raw: raw, Err: err}
	}
	return v, nil
}

// stripFences removes a leading ```/```json fence line and everything from
// the last fence marker onward, keeping only the interior.
func stripFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	} else {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
	}
	if end := strings.LastIndex(text, "```"); end >= 0 {
		text = text[:end]
	}
	return strings.TrimSpace(text)
}

var quoteReplacer = strings.NewReplacer(
	"“", `"`, // left double
	"”", `"`, // right double
	"„", `"`, // low double
	"‘", "'", // left single
	"’", "'", // right single
)

func normalizeQuotes(text string) string {
	return quoteReplacer.Replace(text)
}

// trimToPayload slices from the first opening brace/bracket to the last
// closing one, dropping prose the model wrapped around the JSON. If no
// closing delimiter follows, the tail is kept so the repair pass can close
// the structure itself.
func trimToPayload(text string) string {
	start := strings.IndexAny(text, "{[")
	if start == -1 {
		return text
	}
	end := strings.LastIndexAny(text, "}]")
	if end > start {
		return text[start : end+1]
	}
	return text[start:]
}

// repair rewrites near-valid JSON into valid JSON: trailing commas are
// dropped, bare keys and bare string values are quoted, single-quoted
// strings become double-quoted, raw newlines inside strings are escaped,
// and unterminated strings/containers are closed at end of input.
func repair(text string) string {
	var out strings.Builder
	runes := []rune(text)
	var stack []rune
	inString := false
	var quote rune

	i := 0
	for i < len(runes) {
		c := runes[i]

		if inString {
			switch {
			case c == '\\':
				out.WriteRune(c)
				if i+1 < len(runes) {
					out.WriteRune(runes[i+1])
					i++
				}
			case c == quote:
				inString = false
				out.WriteRune('"')
			case c == '"' && quote == '\'':
				out.WriteString(`\"`)
			case c == '\n':
				out.WriteString(`\n`)
			case c == '\r':
				// swallow, the matching \n handles it
			case c == '\t':
				out.WriteString(`\t`)
			default:
				out.WriteRune(c)
			}
			i++
			continue
		}

		switch {
		case c == '"' || c == '\'':
			inString = true
			quote = c
			out.WriteRune('"')
			i++
		case c == '{' || c == '[':
			stack = append(stack, c)
			out.WriteRune(c)
			i++
		case c == '}' || c == ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			out.WriteRune(c)
			i++
		case c == ',':
			j := i + 1
			for j < len(runes) && unicode.IsSpace(runes[j]) {
				j++
			}
			if j >= len(runes) || runes[j] == '}' || runes[j] == ']' {
				i++ // trailing comma, drop it
				continue
			}
			out.WriteRune(c)
			i++
		case unicode.IsLetter(c) || c == '_':
			j := i
			for j < len(runes) && isBarewordRune(runes[j]) {
				j++
			}
			word := string(runes[i:j])
			k := j
			for k < len(runes) && unicode.IsSpace(runes[k]) {
				k++
			}
			switch {
			case k < len(runes) && runes[k] == ':':
				// bare object key
				out.WriteRune('"')
				out.WriteString(word)
				out.WriteRune('"')
			case word == "true" || word == "false" || word == "null":
				out.WriteString(word)
			default:
				out.WriteRune('"')
				out.WriteString(word)
				out.WriteRune('"')
			}
			i = j
		default:
			out.WriteRune(c)
			i++
		}
	}

	if inString {
		out.WriteRune('"')
	}
	for n := len(stack) - 1; n >= 0; n-- {
		if stack[n] == '{' {
			out.WriteRune('}')
		} else {
			out.WriteRune(']')
		}
	}
	return out.String()
}

func isBarewordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-'
}
