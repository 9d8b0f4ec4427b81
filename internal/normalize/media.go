package normalize

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/johnathanacortesd/LimpiarV/internal/report"
)

// mediaLabels maps raw source media labels to their canonical type, keyed by
// normalized key. Unrecognized labels pass through as typed.
var mediaLabels = map[string]report.MediaType{
	"aire":     report.MediaTV,
	"air":      report.MediaTV,
	"cable":    report.MediaTV,
	"tv":       report.MediaTV,
	"am":       report.MediaRadio,
	"fm":       report.MediaRadio,
	"radio":    report.MediaRadio,
	"diario":   report.MediaPress,
	"prensa":   report.MediaPress,
	"online":   report.MediaInternet,
	"internet": report.MediaInternet,
	"revista":  report.MediaMagazine,
	"otro":     report.MediaOther,
}

// CanonicalMediaType resolves a raw free-text media label.
func CanonicalMediaType(raw string) report.MediaType {
	if mt, ok := mediaLabels[Key(raw)]; ok {
		return mt
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return report.MediaOther
	}
	return report.MediaType(trimmed)
}

// Apply runs field normalization over the whole batch in place: title and
// summary cleanup, media type canonicalization and link role reassignment.
// It is the only stage that writes OriginalTitle, Title, Summary, MediaType,
// Problematic and TitleRepaired.
func Apply(records []report.Record, logger zerolog.Logger) {
	problematic := 0
	for i := range records {
		rec := &records[i]

		raw := rec.Title
		rec.OriginalTitle = strings.TrimSpace(raw)
		rec.Problematic = IsProblematicTitle(raw)
		rec.Title = CleanTitle(raw)
		rec.TitleRepaired = rec.Title != rec.OriginalTitle

		rec.Summary = CleanSummary(rec.Summary)
		rec.MediaType = CanonicalMediaType(string(rec.MediaType))
		assignLinkRoles(rec)

		if rec.Problematic {
			problematic++
			logger.Warn().
				Int("row", rec.RowIndex).
				Str("title", rec.OriginalTitle).
				Msg("title is unusable for deduplication")
		}
	}

	logger.Info().
		Int("records", len(records)).
		Int("problematic_titles", problematic).
		Msg("field normalization applied")
}

// assignLinkRoles rearranges the note and streaming links so downstream
// consumers always find the canonical link for the media type in LinkNote.
func assignLinkRoles(rec *report.Record) {
	switch rec.MediaType {
	case report.MediaInternet:
		rec.LinkNote, rec.LinkStream = rec.LinkStream, rec.LinkNote
	case report.MediaPress, report.MediaMagazine:
		if !rec.LinkNote.HasURL() && rec.LinkStream.HasURL() {
			rec.LinkNote = rec.LinkStream
		}
		rec.LinkStream = report.Link{}
	case report.MediaRadio, report.MediaTV:
		rec.LinkStream = report.Link{}
	}
}
