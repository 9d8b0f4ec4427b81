// Package lookup rewrites outlet, region and company-mention fields through
// externally supplied name dictionaries.
package lookup

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/johnathanacortesd/LimpiarV/internal/report"
)

// Dictionary is a case-insensitive, whitespace-trimmed name rename map.
type Dictionary map[string]string

// NewDictionary builds a Dictionary from raw key/value pairs, dropping pairs
// with a blank side.
func NewDictionary(pairs map[string]string) Dictionary {
	dict := make(Dictionary, len(pairs))
	for k, v := range pairs {
		key := dictKey(k)
		value := strings.TrimSpace(v)
		if key == "" || value == "" {
			continue
		}
		dict[key] = value
	}
	return dict
}

// Get looks a name up under dictionary key normalization.
func (d Dictionary) Get(name string) (string, bool) {
	if len(d) == 0 {
		return "", false
	}
	v, ok := d[dictKey(name)]
	return v, ok
}

func dictKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Stats counts the rewrites a mapping pass performed.
type Stats struct {
	InternetMapped int `json:"internet_mapped"`
	RegionsMapped  int `json:"regions_mapped"`
	MentionsMapped int `json:"mentions_mapped"`
}

// Mapper applies the three dictionaries to a batch of records. Mapping is
// idempotent: lookups always key off the current field value and never
// reintroduce a raw one.
type Mapper struct {
	Internet Dictionary
	Regions  Dictionary
	Mentions Dictionary

	// SubstringMentions enables containment matching when an exact mention
	// lookup misses. Off by default: short names make it false-positive
	// prone.
	SubstringMentions bool

	// DomainFallback derives a display name from the link's root domain for
	// internet outlets absent from the rename dictionary.
	DomainFallback bool

	logger zerolog.Logger
}

func NewMapper(internet, regions, mentions Dictionary, logger zerolog.Logger) *Mapper {
	return &Mapper{
		Internet:       internet,
		Regions:        regions,
		Mentions:       mentions,
		DomainFallback: true,
		logger:         logger,
	}
}

// Apply rewrites mention, outlet and region on every record in place and
// returns the rewrite counts. A lookup miss is never an error; every field
// has a defined default.
func (m *Mapper) Apply(records []report.Record) Stats {
	var stats Stats
	for i := range records {
		rec := &records[i]

		if mapped, ok := m.mapMention(rec.Mention); ok {
			rec.Mention = mapped
			stats.MentionsMapped++
		}

		if rec.MediaType == report.MediaInternet {
			if renamed, ok := m.Internet.Get(rec.Outlet); ok {
				rec.Outlet = renamed
				stats.InternetMapped++
			} else if m.DomainFallback {
				if derived := domainDisplayName(rec.LinkNote, rec.LinkStream); derived != "" {
					rec.Outlet = derived
					stats.InternetMapped++
				}
			}
		}

		if region, ok := m.Regions.Get(rec.Outlet); ok {
			rec.Region = region
			stats.RegionsMapped++
		} else {
			rec.Region = report.DefaultRegion
		}
	}

	m.logger.Info().
		Int("internet_mapped", stats.InternetMapped).
		Int("regions_mapped", stats.RegionsMapped).
		Int("mentions_mapped", stats.MentionsMapped).
		Msg("lookup mapping applied")
	return stats
}

func (m *Mapper) mapMention(mention string) (string, bool) {
	if strings.TrimSpace(mention) == "" || len(m.Mentions) == 0 {
		return "", false
	}
	if mapped, ok := m.Mentions.Get(mention); ok {
		if mapped == mention {
			return "", false
		}
		return mapped, true
	}
	if !m.SubstringMentions {
		return "", false
	}

	key := dictKey(mention)
	for original, mapped := range m.Mentions {
		if strings.Contains(key, original) || strings.Contains(original, key) {
			if mapped == mention {
				return "", false
			}
			return mapped, true
		}
	}
	return "", false
}

// domainDisplayName extracts a capitalized root domain from whichever link
// carries a URL: scheme and "www." stripped, cut at the first slash.
func domainDisplayName(links ...report.Link) string {
	for _, link := range links {
		if !link.HasURL() {
			continue
		}
		host := strings.TrimSpace(link.URL)
		for _, scheme := range []string{"https://", "http://"} {
			host = strings.TrimPrefix(host, scheme)
		}
		host = strings.TrimPrefix(host, "www.")
		if i := strings.IndexByte(host, '/'); i >= 0 {
			host = host[:i]
		}
		host = strings.TrimSpace(host)
		if host == "" {
			continue
		}
		// The first rune may be multibyte (IDN hosts), so capitalize the
		// rune rather than the first byte.
		r, size := utf8.DecodeRuneInString(host)
		return string(unicode.ToUpper(r)) + host[size:]
	}
	return ""
}
