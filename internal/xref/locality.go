package xref

import (
	"fmt"
	"strings"

	"github.com/dgallion1/doclabel/internal/labels"
)

// Locality narrows a reference to part of its target, e.g. clause=3 or
// example=9-11.
type Locality struct {
	Type string `json:"type" yaml:"type"`
	From string `json:"from,omitempty" yaml:"from,omitempty"`
	To   string `json:"to,omitempty" yaml:"to,omitempty"`
}

// LocalityStack is an ordered list of qualifiers.
type LocalityStack []Locality

const customPrefix = "locality:"

// knownTypes are the qualifier types accepted without the locality: prefix.
var knownTypes = map[string]bool{
	"section": true, "clause": true, "part": true, "paragraph": true,
	"chapter": true, "page": true, "whole": true, "table": true,
	"annex": true, "figure": true, "note": true, "list": true,
	"example": true, "volume": true, "issue": true, "time": true,
	"anchor": true, "formula": true,
}

// IsLocalityKey reports whether the key=value part of a reference qualifier
// names a locality rather than literal text.
func IsLocalityKey(part string) bool {
	part = strings.TrimSpace(part)
	key, _, _ := strings.Cut(part, "=")
	key = strings.ToLower(strings.TrimSpace(key))
	return knownTypes[key] || strings.HasPrefix(key, customPrefix)
}

// ParseLocalities parses comma-separated qualifiers of the form
// type=from[-to], "whole", anchor=text or locality:name=from[-to].
func ParseLocalities(raw string) (LocalityStack, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var stack LocalityStack
	for _, part := range strings.Split(raw, ",") {
		l, err := parseLocality(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("locality %q: %w", raw, err)
		}
		stack = append(stack, l)
	}
	return stack, nil
}

func parseLocality(part string) (Locality, error) {
	if part == "" {
		return Locality{}, fmt.Errorf("empty qualifier")
	}
	rawKey, value, hasValue := strings.Cut(part, "=")
	rawKey = strings.TrimSpace(rawKey)
	key := strings.ToLower(rawKey)
	value = strings.TrimSpace(value)

	switch {
	case key == "whole":
		if hasValue {
			return Locality{}, fmt.Errorf("whole takes no value")
		}
		return Locality{Type: key}, nil
	case strings.HasPrefix(key, customPrefix):
		name := strings.TrimSpace(rawKey[len(customPrefix):])
		if name == "" {
			return Locality{}, fmt.Errorf("custom locality has no name")
		}
		key = customPrefix + name
	case !knownTypes[key]:
		return Locality{}, fmt.Errorf("unknown locality type %q", key)
	}
	if !hasValue || value == "" {
		return Locality{}, fmt.Errorf("%s has no value", key)
	}
	if key == "anchor" {
		return Locality{Type: key, From: value}, nil
	}

	from, to, isRange := cutRange(value)
	if isRange && (from == "" || to == "" || strings.ContainsAny(to, "-–")) {
		return Locality{}, fmt.Errorf("malformed range %q", value)
	}
	return Locality{Type: key, From: from, To: to}, nil
}

func cutRange(value string) (from, to string, ok bool) {
	if i := strings.IndexAny(value, "-–"); i >= 0 {
		sep := len("-")
		if strings.HasPrefix(value[i:], "–") {
			sep = len("–")
		}
		return strings.TrimSpace(value[:i]), strings.TrimSpace(value[i+sep:]), true
	}
	return value, "", false
}

// Render formats the stack. With droploc the type keywords are omitted.
func (s LocalityStack) Render(vocab labels.Vocabulary, droploc bool) string {
	parts := make([]string, 0, len(s))
	for _, l := range s {
		if r := l.render(vocab, droploc); r != "" {
			parts = append(parts, r)
		}
	}
	return strings.Join(parts, vocab.Delimiter)
}

func (l Locality) render(vocab labels.Vocabulary, droploc bool) string {
	switch {
	case l.Type == "whole":
		return vocab.Locator("whole")
	case l.Type == "anchor":
		return l.From
	}
	value := l.From
	if l.To != "" {
		value += vocab.RangeSeparator + l.To
	}
	if droploc {
		return value
	}
	label := vocab.Locator(l.Type)
	if name, ok := strings.CutPrefix(l.Type, customPrefix); ok {
		label = name
	}
	return label + " " + value
}
