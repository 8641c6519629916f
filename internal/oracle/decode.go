package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// DecodeError reports an oracle answer that could not be turned into the
// expected structure. It is never retried.
type DecodeError struct {
	Operation string
	Raw       string
	Err       error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s response: %v", e.Operation, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// SchemaError lists the JSON schema violations of an answer.
type SchemaError struct {
	Errors []string
}

func (e *SchemaError) Error() string {
	return "schema validation failed: " + strings.Join(e.Errors, "; ")
}

var (
	jsonFenceRegex = regexp.MustCompile("```(?:json)?[ \\t]*\\n([\\s\\S]*?)\\n?```")
	codeFenceRegex = regexp.MustCompile("(?s)^```[a-zA-Z0-9_+-]*[ \\t]*\\n(.*?)\\n?```$")
)

// RequestDecoded performs the task and decodes the answer as T. The raw
// answer is returned alongside the value, also on decode failure.
func RequestDecoded[T any](ctx context.Context, r TaskRequester, task Task, schema string) (T, string, error) {
	var zero T

	raw, err := r.Request(ctx, task)
	if err != nil {
		return zero, "", err
	}

	v, err := Decode[T](raw, schema)
	if err != nil {
		return zero, raw, &DecodeError{Operation: task.Operation, Raw: raw, Err: err}
	}
	return v, raw, nil
}

// Decode extracts JSON from text, validates it against schema when one is
// given, and unmarshals it into T.
func Decode[T any](text, schema string) (T, error) {
	var v T

	payload, ok := ExtractJSON(text)
	if !ok {
		return v, fmt.Errorf("no JSON content found")
	}

	if schema != "" {
		if err := validate(payload, schema); err != nil {
			return v, err
		}
	}

	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		return v, fmt.Errorf("unmarshal: %w", err)
	}
	return v, nil
}

func validate(payload, schema string) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewStringLoader(payload),
	)
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return &SchemaError{Errors: msgs}
	}
	return nil
}

// ExtractJSON finds the JSON payload in an oracle answer: the whole text if
// it is valid JSON, else the first fenced block, else the first object or
// array that parses.
func ExtractJSON(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", false
	}
	if json.Valid([]byte(trimmed)) {
		return trimmed, true
	}

	if m := jsonFenceRegex.FindStringSubmatch(trimmed); len(m) > 1 {
		block := strings.TrimSpace(m[1])
		if json.Valid([]byte(block)) {
			return block, true
		}
	}

	return extractFirstJSONValue(trimmed)
}

// extractFirstJSONValue tolerates leading prose before the payload.
func extractFirstJSONValue(text string) (string, bool) {
	for i := 0; i < len(text); i++ {
		if text[i] != '{' && text[i] != '[' {
			continue
		}
		decoder := json.NewDecoder(strings.NewReader(text[i:]))
		decoder.UseNumber()

		var raw json.RawMessage
		if err := decoder.Decode(&raw); err == nil {
			return strings.TrimSpace(string(raw)), true
		}
	}
	return "", false
}

// ExtractCode strips a single markdown fence wrapping the whole answer.
// Anything else is returned unchanged.
func ExtractCode(text string) string {
	trimmed := strings.TrimSpace(text)
	if m := codeFenceRegex.FindStringSubmatch(trimmed); len(m) > 1 {
		return m[1]
	}
	return text
}
