// Package transform rewrites staged text files before they are archived.
package transform

import (
	"bytes"
	"maps"
	"path"
	"slices"
	"strings"
	"unicode/utf8"
)

// skippedExtensions are never treated as text, whatever their content.
var skippedExtensions = []string{".jar", ".zip", ".mrpack", ".png", ".jpg", ".ogg"}

// Replacer substitutes @key@ tokens with variable values.
type Replacer struct {
	r *strings.Replacer
}

// NewReplacer builds a Replacer for vars. Keys are used without the
// surrounding @ signs. Longer keys are replaced first.
func NewReplacer(vars map[string]string) *Replacer {
	keys := slices.Collect(maps.Keys(vars))
	slices.SortFunc(keys, func(a, b string) int {
		if len(a) != len(b) {
			return len(b) - len(a)
		}
		return strings.Compare(a, b)
	})
	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, "@"+k+"@", vars[k])
	}
	return &Replacer{r: strings.NewReplacer(pairs...)}
}

// Apply returns content with every token replaced and whether anything
// changed. Binary content is returned unchanged.
func (r *Replacer) Apply(content []byte) ([]byte, bool) {
	if IsBinary(content) {
		return content, false
	}
	out := r.r.Replace(string(content))
	if out == string(content) {
		return content, false
	}
	return []byte(out), true
}

// Eligible reports whether a file with this name may be rewritten.
func Eligible(name string) bool {
	return !slices.Contains(skippedExtensions, strings.ToLower(path.Ext(name)))
}

// IsBinary reports whether content is not valid UTF-8 or contains a NUL.
func IsBinary(content []byte) bool {
	return !utf8.Valid(content) || bytes.IndexByte(content, 0) >= 0
}

// MergeVars merges the builtin pack variables with user variables. User
// variables cannot shadow builtin ones.
func MergeVars(builtin, user map[string]string) map[string]string {
	merged := make(map[string]string, len(builtin)+len(user))
	maps.Copy(merged, user)
	maps.Copy(merged, builtin)
	return merged
}
