package preproc

import (
	"regexp"
	"strings"
)

// expandMacros performs a single-pass, word-boundary substitution of
// every defined macro over line, in one combined pass. Using one
// combined alternation (rather than one regexp per macro applied in
// sequence) guarantees the replacement text of an earlier macro is
// never itself rescanned for later macro names, matching spec.md §4.3's
// no-rescan substitution rule and keeping expansion deterministic
// despite map iteration order being unspecified in Go.
func (p *Preprocessor) expandMacros(line string) string {
	if len(p.macroOrder) == 0 {
		return line
	}
	pattern := p.combinedPattern()
	return pattern.ReplaceAllStringFunc(line, func(match string) string {
		return p.macros[match]
	})
}

// combinedPattern builds one regexp alternating every macro name,
// longest first so a macro whose name is a prefix of another's doesn't
// shadow it, each wrapped in \b word boundaries.
func (p *Preprocessor) combinedPattern() *regexp.Regexp {
	names := append([]string{}, p.macroOrder...)
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			if len(names[j]) > len(names[i]) {
				names[i], names[j] = names[j], names[i]
			}
		}
	}
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = regexp.QuoteMeta(n)
	}
	return regexp.MustCompile(`\b(` + strings.Join(quoted, "|") + `)\b`)
}
