package engine

import "github.com/goccy/go-json"

// EnumRef names an engine enumeration member by candidate attribute paths.
// The engine side resolves the first candidate that exists in its API, so a value
// that moved between namespaces across releases can be listed under both names.
type EnumRef struct {
	Candidates []string
}

// Enum builds an EnumRef from candidate paths, most current first.
func Enum(candidates ...string) EnumRef {
	return EnumRef{Candidates: candidates}
}

// Name returns the preferred candidate.
func (e EnumRef) Name() string {
	if len(e.Candidates) == 0 {
		return ""
	}
	return e.Candidates[0]
}

// MarshalJSON encodes the reference as {"$enum": [...]}.
func (e EnumRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string][]string{"$enum": e.Candidates})
}
