package tts

import (
	"fmt"
	"strings"
	"unicode"
)

// SymbolPolicy decides what happens to characters outside the model's
// supported symbol set.
type SymbolPolicy string

const (
	// SymbolDrop removes unsupported characters.
	SymbolDrop SymbolPolicy = "drop"
	// SymbolReplace turns unsupported characters into spaces.
	SymbolReplace SymbolPolicy = "replace"
	// SymbolStrict rejects input containing unsupported characters.
	SymbolStrict SymbolPolicy = "strict"
)

func ParseSymbolPolicy(s string) (SymbolPolicy, error) {
	switch SymbolPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case SymbolDrop:
		return SymbolDrop, nil
	case SymbolReplace, "":
		return SymbolReplace, nil
	case SymbolStrict:
		return SymbolStrict, nil
	default:
		return "", fmt.Errorf("invalid symbol policy %q (expected drop|replace|strict)", s)
	}
}

// substitutions maps typographic characters the model never saw in
// training onto plain equivalents. Outputs must themselves be
// supported so normalization stays idempotent.
var substitutions = map[rune]string{
	'‘': "'", '’': "'", '‚': "'",
	'“': `"`, '”': `"`, '„': `"`,
	'–': "-", '—': "-", '―': "-",
	'…': "...",
	'\u00a0': " ", // no-break space
	'\u200b': "",  // zero-width space
	'\ufeff': "",  // byte order mark
}

// Normalizer sanitizes request text before it reaches the model.
// Pure and deterministic: no I/O, no randomness, and running the
// output through Normalize again returns it unchanged.
type Normalizer struct {
	MaxLength int
	Policy    SymbolPolicy
}

// Normalize collapses whitespace, applies the symbol policy, and
// re-validates length. Empty or oversized results are rejected with a
// *ValidationError.
func (n Normalizer) Normalize(text string) (string, error) {
	policy := n.Policy
	if policy == "" {
		policy = SymbolReplace
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if sub, ok := substitutions[r]; ok {
			b.WriteString(sub)
			continue
		}
		switch {
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		case supportedRune(r):
			b.WriteRune(r)
		default:
			switch policy {
			case SymbolDrop:
				// skip
			case SymbolReplace:
				b.WriteByte(' ')
			case SymbolStrict:
				return "", invalidf("input", "unsupported character %q", r)
			}
		}
	}

	out := strings.Join(strings.Fields(b.String()), " ")

	if out == "" {
		return "", invalidf("input", "text is empty after normalization")
	}
	if n.MaxLength > 0 && len([]rune(out)) > n.MaxLength {
		return "", invalidf("input", "text exceeds maximum length of %d characters", n.MaxLength)
	}
	return out, nil
}

// supportedRune reports whether the model's symbol set covers r.
// Letters (all scripts), digits, combining marks, punctuation, and a
// small set of spoken symbols are in; control characters, emoji, and
// other pictographs are out.
func supportedRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsMark(r) || unicode.IsPunct(r) {
		return true
	}
	switch r {
	case '+', '=', '$', '%', '<', '>', '|', '~', '^', '€', '£', '¥':
		return true
	}
	return false
}
