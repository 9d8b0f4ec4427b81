package normalize

import (
	"html"
	"strings"
	"unicode"
)

// mojibakeRepairs fixes a fixed set of UTF-8-read-as-Latin-1 artifact
// sequences that survive entity decoding. Replacer pairs match in argument
// order, so three-rune sequences come before the bare "Â" rule that shares
// their prefix. The right-quote artifact ends in the invisible control
// U+009D, spelled as an escape so the third rune is visible in source.
var mojibakeRepairs = strings.NewReplacer(
	"â€™", "’",
	"â€˜", "‘",
	"â€œ", "“",
	"â€“", "–",
	"â€”", "—",
	"â€¦", "…",
	"â€\u009d", "”",
	"Ã¡", "á",
	"Ã©", "é",
	"Ã­", "í",
	"Ã³", "ó",
	"Ãº", "ú",
	"Ã±", "ñ",
	"Ã‘", "Ñ",
	"Â¿", "¿",
	"Â¡", "¡",
	"Â", "",
)

// mojibakeMarkers are leftovers that flag a title as unrecoverable when they
// are still present after repair.
var mojibakeMarkers = []string{"â€", "Ã", "Â", "�"}

// placeholderTitles are generic labels some providers emit instead of a real
// headline, compared by normalized key.
var placeholderTitles = map[string]struct{}{
	"sintitulo": {},
	"sintítulo": {},
	"notitle":   {},
	"untitled":  {},
	"pendiente": {},
	"vernota":   {},
}

// DecodeEntities resolves named and numeric HTML character references and
// repairs known mis-decoded sequences.
func DecodeEntities(s string) string {
	decoded := html.UnescapeString(s)
	// Double-escaped feeds ("&amp;#243;") need a second pass.
	if strings.Contains(decoded, "&") {
		decoded = html.UnescapeString(decoded)
	}
	return mojibakeRepairs.Replace(decoded)
}

// Key builds a normalized comparison key: lowercased with every
// non-alphanumeric rune removed. Used for header names, lookup keys and
// exact-match grouping.
func Key(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// StripTitleSuffix removes one trailing ` | Outlet`-style brand suffix.
func StripTitleSuffix(title string) string {
	trimmed := strings.TrimSpace(title)
	if i := strings.LastIndex(trimmed, " | "); i > 0 {
		return strings.TrimSpace(trimmed[:i])
	}
	return trimmed
}

// CleanTitle decodes entities and strips the trailing brand suffix. The raw
// value must be preserved by the caller before cleanup.
func CleanTitle(raw string) string {
	return StripTitleSuffix(strings.TrimSpace(DecodeEntities(raw)))
}

// TitleKey is the exact-match grouping key for titles: suffix stripped,
// entities decoded, lowercased, all non-alphanumerics removed. Punctuation
// and spacing differences never break a match.
func TitleKey(raw string) string {
	return Key(CleanTitle(raw))
}

// IsProblematicTitle reports whether a raw title is unusable for
// deduplication: blank, a generic placeholder, carrying unrecovered
// mis-encoded sequences, or nothing but a brand suffix. Such records cannot
// be trusted as winners and are eliminated before grouping.
func IsProblematicTitle(raw string) bool {
	decoded := strings.TrimSpace(DecodeEntities(raw))
	if strings.HasPrefix(decoded, "|") {
		// Suffix leftover with no headline in front of it.
		return true
	}
	cleaned := StripTitleSuffix(decoded)
	if cleaned == "" {
		return true
	}
	key := Key(cleaned)
	if key == "" {
		return true
	}
	if _, ok := placeholderTitles[key]; ok {
		return true
	}
	for _, marker := range mojibakeMarkers {
		if strings.Contains(cleaned, marker) {
			return true
		}
	}
	return false
}

// summaryNoise marks inline fragments collapsed to a single space before
// whitespace folding.
var summaryNoise = strings.NewReplacer(
	"<br>", " ",
	"<br/>", " ",
	"<br />", " ",
	"[...]", " ",
	"[…]", " ",
)

// CleanSummary normalizes a summary: entities decoded, markup and ellipsis
// markers collapsed, whitespace folded, leading boilerplate before the first
// uppercase letter dropped, and a single trailing "..." guaranteed.
func CleanSummary(raw string) string {
	s := DecodeEntities(raw)
	s = summaryNoise.Replace(s)
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}

	if start := strings.IndexFunc(s, unicode.IsUpper); start > 0 {
		s = s[start:]
	}

	s = strings.TrimRight(s, " .,;:-…¡!¿?")
	if s == "" {
		return ""
	}
	return s + "..."
}
