package authstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// literalUndefined is what some storage writers persist for a missing
// value. It must be treated as absent, not as a decode failure.
const literalUndefined = "undefined"

var errProfilePayload = errors.New("malformed profile payload")

// absentPayload reports whether raw represents "nothing stored".
func absentPayload(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	return trimmed == "" || trimmed == literalUndefined || trimmed == "null"
}

// DecodeProfile parses a profile serialization as produced by the backend
// or by [EncodeProfile]. Shared with the HTTP collaborator client so both
// ends agree on the tolerated key casings.
func DecodeProfile(raw string) (*Profile, error) {
	return decodeProfile(raw)
}

// EncodeProfile renders the canonical profile serialization.
func EncodeProfile(p *Profile) (string, error) {
	return encodeProfile(p)
}

// decodeProfile parses the persisted profile serialization. The user id is
// accepted under the casings observed from the backend ("userId", "UserId",
// "userID"); unrecognized keys are preserved in Extra.
func decodeProfile(raw string) (*Profile, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()

	fields := map[string]any{}
	if err := dec.Decode(&fields); err != nil {
		return nil, errProfilePayload
	}

	p := &Profile{}
	for key, value := range fields {
		switch key {
		case "userId", "UserId", "userID":
			id, ok := asInt64(value)
			if !ok {
				return nil, errProfilePayload
			}
			p.UserID = id
		case "username", "Username", "userName":
			name, ok := value.(string)
			if !ok {
				return nil, errProfilePayload
			}
			p.Username = name
		default:
			if p.Extra == nil {
				p.Extra = map[string]any{}
			}
			p.Extra[key] = normalizeNumbers(value)
		}
	}

	if p.UserID == 0 && p.Username == "" {
		return nil, errProfilePayload
	}
	return p, nil
}

func encodeProfile(p *Profile) (string, error) {
	if p == nil {
		return "", errProfilePayload
	}

	fields := make(map[string]any, len(p.Extra)+2)
	for k, v := range p.Extra {
		fields[k] = v
	}
	fields["userId"] = p.UserID
	fields["username"] = p.Username

	data, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		id, err := n.Int64()
		return id, err == nil
	case float64:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}

// normalizeNumbers rewrites json.Number values into plain Go numerics so
// Extra compares cleanly after a save/load round trip.
func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		for k, vv := range t {
			t[k] = normalizeNumbers(vv)
		}
		return t
	case []any:
		for i, vv := range t {
			t[i] = normalizeNumbers(vv)
		}
		return t
	default:
		return v
	}
}
