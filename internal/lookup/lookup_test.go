package lookup

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/johnathanacortesd/LimpiarV/internal/report"
)

func newTestMapper() *Mapper {
	return NewMapper(
		NewDictionary(map[string]string{"eltiempo.com": "El Tiempo Digital"}),
		NewDictionary(map[string]string{"El Tiempo Digital": "Bogotá", "Caracol Radio": "Nacional"}),
		NewDictionary(map[string]string{"acme s.a.": "Acme", "globex corp": "Globex"}),
		zerolog.Nop(),
	)
}

func TestMapperRenamesInternetOutlets(t *testing.T) {
	t.Parallel()

	records := []report.Record{
		{MediaType: report.MediaInternet, Outlet: " ELTIEMPO.COM ", Mention: "Acme S.A."},
		{MediaType: report.MediaRadio, Outlet: "eltiempo.com"},
	}
	stats := newTestMapper().Apply(records)

	if records[0].Outlet != "El Tiempo Digital" {
		t.Fatalf("internet outlet not renamed: %q", records[0].Outlet)
	}
	if records[0].Region != "Bogotá" {
		t.Fatalf("region must key off the renamed outlet, got %q", records[0].Region)
	}
	if records[0].Mention != "Acme" {
		t.Fatalf("mention not canonicalized: %q", records[0].Mention)
	}
	if records[1].Outlet != "eltiempo.com" {
		t.Fatalf("non-internet outlets must never be renamed, got %q", records[1].Outlet)
	}
	if records[1].Region != report.DefaultRegion {
		t.Fatalf("unmapped outlet must default to %q, got %q", report.DefaultRegion, records[1].Region)
	}
	if stats.InternetMapped != 1 || stats.MentionsMapped != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestMapperDomainFallback(t *testing.T) {
	t.Parallel()

	records := []report.Record{{
		MediaType: report.MediaInternet,
		Outlet:    "infobae.com",
		LinkNote:  report.Link{Text: "Ver nota", URL: "https://www.infobae.com/economia/2026/08/10/acme"},
	}}
	newTestMapper().Apply(records)

	if records[0].Outlet != "Infobae.com" {
		t.Fatalf("domain fallback not applied: %q", records[0].Outlet)
	}
}

func TestMapperDomainFallbackDisabled(t *testing.T) {
	t.Parallel()

	m := newTestMapper()
	m.DomainFallback = false
	records := []report.Record{{
		MediaType: report.MediaInternet,
		Outlet:    "infobae.com",
		LinkNote:  report.Link{URL: "https://www.infobae.com/x"},
	}}
	m.Apply(records)

	if records[0].Outlet != "infobae.com" {
		t.Fatalf("outlet must stay as typed when the fallback is off, got %q", records[0].Outlet)
	}
}

func TestMapperIsIdempotent(t *testing.T) {
	t.Parallel()

	m := newTestMapper()
	records := []report.Record{
		{MediaType: report.MediaInternet, Outlet: "eltiempo.com", Mention: "ACME S.A."},
		{MediaType: report.MediaRadio, Outlet: "Caracol Radio", Mention: "desconocida"},
	}
	m.Apply(records)
	once := make([]report.Record, len(records))
	copy(once, records)

	m.Apply(records)
	for i := range records {
		if records[i].Outlet != once[i].Outlet || records[i].Region != once[i].Region || records[i].Mention != once[i].Mention {
			t.Fatalf("second pass changed record %d: %+v vs %+v", i, records[i], once[i])
		}
	}
}

func TestSubstringMentionMatchingIsOptIn(t *testing.T) {
	t.Parallel()

	m := newTestMapper()
	records := []report.Record{{Mention: "Planta de Globex Corp en Cali"}}
	m.Apply(records)
	if records[0].Mention != "Planta de Globex Corp en Cali" {
		t.Fatalf("substring matching must be off by default, got %q", records[0].Mention)
	}

	m.SubstringMentions = true
	m.Apply(records)
	if records[0].Mention != "Globex" {
		t.Fatalf("substring matching not applied, got %q", records[0].Mention)
	}
}

func TestDomainDisplayName(t *testing.T) {
	t.Parallel()

	got := domainDisplayName(report.Link{}, report.Link{URL: "http://www.semana.com/nacion/articulo"})
	if got != "Semana.com" {
		t.Fatalf("unexpected display name: %q", got)
	}
	if got := domainDisplayName(report.Link{Text: "sin url"}); got != "" {
		t.Fatalf("expected empty name without URLs, got %q", got)
	}
	// Hosts starting with a multibyte rune capitalize whole runes.
	if got := domainDisplayName(report.Link{URL: "https://ñandu.com/noticias"}); got != "Ñandu.com" {
		t.Fatalf("unexpected display name for accented host: %q", got)
	}
}
