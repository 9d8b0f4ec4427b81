package report

import (
	"fmt"
	"strings"
	"time"
)

// MediaType is the canonical media classification of a record. Raw labels
// that have no canonical form pass through unchanged, so the type stays a
// string rather than a closed integer enum.
type MediaType string

const (
	MediaTV       MediaType = "Tv"
	MediaRadio    MediaType = "Radio"
	MediaPress    MediaType = "Prensa"
	MediaMagazine MediaType = "Revista"
	MediaInternet MediaType = "Internet"
	MediaOther    MediaType = "Otro"
)

// UsesAirTime reports whether the media type carries an air time that
// matters for duplicate matching. Everything except internet does: two
// broadcasts or print editions at different times on the same day are
// distinct items.
func (m MediaType) UsesAirTime() bool {
	return m != MediaInternet
}

// KeepStatus is the survival state of a record. The only legal transition is
// Conserve -> Eliminate; there is no path back.
type KeepStatus string

const (
	StatusConserve  KeepStatus = "Conservar"
	StatusEliminate KeepStatus = "Eliminar"
)

// Duplicate sentinels written onto eliminated records.
const (
	DuplicateTone    = "Duplicada"
	DuplicateTopic   = "-"
	DefaultRegion    = "Online"
	orphanRefFormat  = "Eliminada sin par - Fila %d"
	winnerRefFormat  = "Fila Original %d"
)

// Link is a display-text / URL pair extracted from a spreadsheet cell.
type Link struct {
	Text string
	URL  string
}

func (l Link) HasURL() bool {
	return strings.TrimSpace(l.URL) != ""
}

func (l Link) Empty() bool {
	return strings.TrimSpace(l.Text) == "" && !l.HasURL()
}

// Record is one news mention: a row of the input report, or one of its
// mention expansions. Records are never removed from the batch; elimination
// is a status flag so full provenance survives into the output.
type Record struct {
	ID            string
	OriginalTitle string
	Title         string
	Outlet        string
	MediaType     MediaType
	Section       string
	Region        string

	// Date holds the calendar date; AirTime holds the time of day on a
	// throwaway reference date. Parse failures leave the zero value.
	Date    time.Time
	AirTime time.Time

	Mention string
	Summary string

	// LinkNote is the article/note link; LinkStream the streaming or image
	// link. Their roles are reassigned per media type during normalization.
	LinkNote   Link
	LinkStream Link

	Tone         string
	Topic        string
	GeneralTopic string

	Status            KeepStatus
	ExactDuplicate    bool
	PossibleDuplicate bool
	KeptRef           string

	// RowIndex is the 1-based position among the loaded data rows. Assigned
	// once at ingestion, it is the final tie-break and the output sort key.
	RowIndex int

	// TitleRepaired is true when cleanup changed the title; Problematic is
	// true when the raw title cannot identify the story at all.
	TitleRepaired bool
	Problematic   bool
}

// When combines date and air time into a single instant for recency
// comparisons.
func (r *Record) When() time.Time {
	if r.Date.IsZero() {
		return r.Date
	}
	return time.Date(
		r.Date.Year(), r.Date.Month(), r.Date.Day(),
		r.AirTime.Hour(), r.AirTime.Minute(), r.AirTime.Second(), 0, time.UTC,
	)
}

// RefLabel is the reference other records use to point at this record when
// it survives a duplicate group.
func (r *Record) RefLabel() string {
	if strings.TrimSpace(r.ID) != "" {
		return strings.TrimSpace(r.ID)
	}
	return fmt.Sprintf(winnerRefFormat, r.RowIndex)
}

// Eliminate transitions the record to Eliminate and writes the duplicate
// sentinels. It is a no-op on records already eliminated, which keeps the
// first recorded reference and makes the transition one-way.
func (r *Record) Eliminate(keptRef string) {
	if r.Status == StatusEliminate {
		return
	}
	r.Status = StatusEliminate
	r.KeptRef = keptRef
	r.Tone = DuplicateTone
	r.Topic = DuplicateTopic
	r.GeneralTopic = DuplicateTopic
}

// OrphanRef is the synthesized reference for records eliminated before any
// group produced a winner to point at.
func (r *Record) OrphanRef() string {
	return fmt.Sprintf(orphanRefFormat, r.RowIndex)
}

// Expand fans a record out into one copy per semicolon-separated company
// mention. A record with no mentions is returned unchanged as a single
// element. All fields except Mention are identical across copies.
func Expand(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		mentions := SplitMentions(rec.Mention)
		if len(mentions) == 0 {
			out = append(out, rec)
			continue
		}
		for _, mention := range mentions {
			clone := rec
			clone.Mention = mention
			out = append(out, clone)
		}
	}
	return out
}

// SplitMentions splits a raw company-mentions field on semicolons, trimming
// whitespace and dropping empty segments.
func SplitMentions(raw string) []string {
	parts := strings.Split(raw, ";")
	mentions := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		mentions = append(mentions, trimmed)
	}
	return mentions
}
