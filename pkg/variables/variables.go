// Package variables extracts and substitutes the dynamic placeholders used in
// prompt templates and API tool configuration. Two syntaxes are recognized:
// @name and {{name}}.
package variables

import (
	"regexp"
	"sort"
	"strings"
)

var (
	atPattern    = regexp.MustCompile(`@\w+`)
	bracePattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)
)

// Set is an unordered collection of variable names.
type Set map[string]struct{}

// NewSet creates a set holding the given names.
func NewSet(names ...string) Set {
	s := make(Set, len(names))
	for _, name := range names {
		s.Add(name)
	}

	return s
}

func (s Set) Add(name string) {
	s[name] = struct{}{}
}

func (s Set) Has(name string) bool {
	_, ok := s[name]

	return ok
}

// Union adds every name of other into s.
func (s Set) Union(other Set) {
	for name := range other {
		s.Add(name)
	}
}

// Sorted returns the names in lexical order.
func (s Set) Sorted() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Extract returns every variable referenced in text.
func Extract(text string) Set {
	found := make(Set)

	for _, match := range atPattern.FindAllString(text, -1) {
		found.Add(match[1:])
	}

	for _, match := range bracePattern.FindAllStringSubmatch(text, -1) {
		name := strings.TrimSpace(match[1])
		if name == "" {
			continue
		}

		found.Add(name)
	}

	return found
}

// Collect returns the variables referenced by an API call configuration: the
// endpoint URL, header values, parameter values and the request body.
// Header and parameter keys are never scanned.
func Collect(endpoint string, headers, parameters map[string]string, body string) Set {
	found := Extract(endpoint)

	for _, value := range parameters {
		found.Union(Extract(value))
	}

	for _, value := range headers {
		found.Union(Extract(value))
	}

	if body != "" {
		found.Union(Extract(body))
	}

	return found
}

// Substitute replaces @name and {{name}} for every supplied name.
// Placeholders without a supplied value are left verbatim.
func Substitute(text string, values map[string]string) string {
	result := text

	for _, name := range sortedKeys(values) {
		quoted := regexp.QuoteMeta(name)
		value := values[name]

		at := regexp.MustCompile(`@` + quoted + `\b`)
		result = at.ReplaceAllLiteralString(result, value)

		brace := regexp.MustCompile(`\{\{\s*` + quoted + `\s*\}\}`)
		result = brace.ReplaceAllLiteralString(result, value)
	}

	return result
}

// SubstituteMap applies Substitute to every value of m and returns a new map.
func SubstituteMap(m map[string]string, values map[string]string) map[string]string {
	if m == nil {
		return nil
	}

	out := make(map[string]string, len(m))
	for key, value := range m {
		out[key] = Substitute(value, values)
	}

	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
