package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// DecodeJSON unmarshals body into v. Python services emit bare NaN,
// Infinity and -Infinity tokens which encoding/json rejects. NaN is read as
// null. Infinity and -Infinity are read as the out-of-range literals 1e999
// and -1e999, so they decode to a json.Number whose Float64 is ±Inf
// (see NumberValue). Decoding them into a float64 field fails.
func DecodeJSON(body []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(replaceNonFinite(body)))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// Longest token first, so -Infinity is not read as - and Infinity.
var nonFiniteTokens = []struct {
	token, replacement []byte
}{
	{[]byte("-Infinity"), []byte("-1e999")},
	{[]byte("Infinity"), []byte("1e999")},
	{[]byte("NaN"), []byte("null")},
}

// NumberValue converts n to a float64. Overflowing literals, including the
// rewritten Infinity tokens, come back as ±Inf.
func NumberValue(n json.Number) (float64, error) {
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil && !math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid number %q: %w", n, err)
	}
	return f, nil
}

// replaceNonFinite rewrites non-finite number tokens outside of strings.
func replaceNonFinite(body []byte) []byte {
	if !bytes.Contains(body, []byte("NaN")) && !bytes.Contains(body, []byte("Infinity")) {
		return body
	}

	out := make([]byte, 0, len(body))
	inString := false
	escaped := false

	for i := 0; i < len(body); i++ {
		c := body[i]

		if inString {
			out = append(out, c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		if c == '"' {
			inString = true
			out = append(out, c)
			continue
		}

		matched := false
		for _, nf := range nonFiniteTokens {
			if bytes.HasPrefix(body[i:], nf.token) {
				out = append(out, nf.replacement...)
				i += len(nf.token) - 1
				matched = true
				break
			}
		}
		if !matched {
			out = append(out, c)
		}
	}

	return out
}
