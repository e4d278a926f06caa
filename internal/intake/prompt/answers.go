package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Answer is one question-identifier → answer-value pair as submitted by the form renderer.
type Answer struct {
	Key   string
	Value string
}

// Answers is an Answer Mapping in submission order. Order only affects how readable the
// generated narrative is, but the renderer emits questions in slide order so it is kept.
type Answers []Answer

// Pairs builds Answers from alternating keys and values. A trailing key without a value is ignored.
func Pairs(kv ...string) Answers {
	out := make(Answers, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, Answer{Key: kv[i], Value: kv[i+1]})
	}
	return out
}

// UnmarshalJSON reads a flat JSON object token by token so that key order survives.
// Scalars become text (numbers keep their literal form, booleans become "true"/"false",
// null becomes empty); arrays of scalars are joined with ", ". A repeated key keeps its
// first position and its last value.
func (a *Answers) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*a = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("answers must be a JSON object")
	}

	out := Answers{}
	index := map[string]int{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("answers: unexpected key token %v", keyTok)
		}
		var raw any
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("answers: field %q: %w", key, err)
		}
		val := renderValue(raw)
		if i, seen := index[key]; seen {
			out[i].Value = val
			continue
		}
		index[key] = len(out)
		out = append(out, Answer{Key: key, Value: val})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*a = out
	return nil
}

// MarshalJSON writes Answers back as a JSON object of strings in the same order.
func (a Answers) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, ans := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(ans.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(ans.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func renderValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := strings.TrimSpace(renderValue(item)); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
