// Package labels holds the localized vocabulary used when classifying
// sections and rendering labels: locator keywords, obligation words,
// section-title variants and the unresolved-reference marker.
package labels

import (
	_ "embed"
	"fmt"
	"maps"
	"os"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/dgallion1/doclabel/internal/doctree"
)

//go:embed default.yaml
var defaultYAML []byte

// Vocabulary is the set of localized strings the engine renders with.
type Vocabulary struct {
	Locale         string                    `yaml:"locale"`
	Locators       map[string]string         `yaml:"locators"`
	Obligations    map[string]string         `yaml:"obligations"`
	Sections       map[doctree.Role][]string `yaml:"sections"`
	Unresolved     string                    `yaml:"unresolved"`
	RangeSeparator string                    `yaml:"range_separator"`
	Delimiter      string                    `yaml:"delimiter"`
}

var (
	defaultOnce  sync.Once
	defaultVocab Vocabulary
)

// Default returns a copy of the embedded English vocabulary.
func Default() Vocabulary {
	defaultOnce.Do(func() {
		if err := yaml.Unmarshal(defaultYAML, &defaultVocab); err != nil {
			panic(fmt.Sprintf("labels: embedded vocabulary: %v", err))
		}
	})
	return defaultVocab.clone()
}

// Parse overlays the YAML document in data on the default vocabulary.
// Keys missing from data keep their default values.
func Parse(data []byte) (Vocabulary, error) {
	v := Default()
	var overlay Vocabulary
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return Vocabulary{}, fmt.Errorf("parse vocabulary: %w", err)
	}
	if overlay.Locale != "" {
		v.Locale = overlay.Locale
	}
	maps.Copy(v.Locators, overlay.Locators)
	maps.Copy(v.Obligations, overlay.Obligations)
	maps.Copy(v.Sections, overlay.Sections)
	if overlay.Unresolved != "" {
		if !strings.Contains(overlay.Unresolved, "%s") {
			return Vocabulary{}, fmt.Errorf("parse vocabulary: unresolved marker %q has no %%s verb", overlay.Unresolved)
		}
		v.Unresolved = overlay.Unresolved
	}
	if overlay.RangeSeparator != "" {
		v.RangeSeparator = overlay.RangeSeparator
	}
	if overlay.Delimiter != "" {
		v.Delimiter = overlay.Delimiter
	}
	return v, nil
}

// Load reads a vocabulary file. An empty path yields the default vocabulary.
func Load(path string) (Vocabulary, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Vocabulary{}, fmt.Errorf("read vocabulary: %w", err)
	}
	return Parse(data)
}

func (v Vocabulary) clone() Vocabulary {
	out := v
	out.Locators = maps.Clone(v.Locators)
	out.Obligations = maps.Clone(v.Obligations)
	out.Sections = make(map[doctree.Role][]string, len(v.Sections))
	for role, titles := range v.Sections {
		out.Sections[role] = append([]string(nil), titles...)
	}
	if out.Locators == nil {
		out.Locators = map[string]string{}
	}
	if out.Obligations == nil {
		out.Obligations = map[string]string{}
	}
	return out
}

// Locator returns the keyword for a locality or anchor kind, falling back to
// the type name with its first letter upper-cased.
func (v Vocabulary) Locator(typ string) string {
	if s, ok := v.Locators[strings.ToLower(typ)]; ok {
		return s
	}
	return Capitalize(typ)
}

// Obligation returns the localized obligation word.
func (v Vocabulary) Obligation(o string) string {
	if s, ok := v.Obligations[strings.ToLower(o)]; ok {
		return s
	}
	return o
}

// UnresolvedMarker returns the placeholder shown for a missing target.
func (v Vocabulary) UnresolvedMarker(id string) string {
	return fmt.Sprintf(v.Unresolved, id)
}

// SectionRole matches a section title against the section vocabulary.
func (v Vocabulary) SectionRole(title string) (doctree.Role, bool) {
	n := Normalize(title)
	if n == "" {
		return doctree.RoleNone, false
	}
	for _, role := range roleOrder {
		for _, variant := range v.Sections[role] {
			if Normalize(variant) == n {
				return role, true
			}
		}
	}
	return doctree.RoleNone, false
}

// IsAnnexTitle reports whether title starts with the annex keyword followed
// by a letter designation, e.g. "Annex B (informative) Tests".
func (v Vocabulary) IsAnnexTitle(title string) bool {
	kw := Normalize(v.Locator("annex"))
	n := Normalize(title)
	rest, ok := strings.CutPrefix(n, kw+" ")
	if !ok || rest == "" {
		return false
	}
	word, _, _ := strings.Cut(rest, " ")
	for _, r := range word {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return len(word) <= 2
}

// roleOrder fixes the lookup order so that overlapping variants resolve the
// same way on every run.
var roleOrder = []doctree.Role{
	doctree.RoleScope,
	doctree.RoleNormRefs,
	doctree.RoleTerms,
	doctree.RoleSymbols,
	doctree.RoleBibliography,
	doctree.RoleIntroduction,
	doctree.RoleForeword,
}

// Normalize lower-cases s, turns punctuation into spaces and collapses
// whitespace runs.
func Normalize(s string) string {
	var b strings.Builder
	space := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		space = true
	}
	return b.String()
}

// Capitalize upper-cases the first letter of s.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// Lowercase lower-cases the first letter of s.
func Lowercase(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
