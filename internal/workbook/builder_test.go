package workbook

import (
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/johnathanacortesd/LimpiarV/internal/report"
)

func sampleRecords() []report.Record {
	kept := report.Record{
		RowIndex:  1,
		ID:        "N-1",
		Title:     "Acme crece",
		Outlet:    "El Tiempo",
		MediaType: report.MediaInternet,
		Summary:   "La empresa crece...",
		Status:    report.StatusConserve,
		LinkNote:  report.Link{Text: "Ver nota", URL: "https://example.com/n/1"},
	}
	gone := report.Record{
		RowIndex:  2,
		ID:        "N-2",
		Title:     "Acme crece",
		Outlet:    "El Tiempo",
		MediaType: report.MediaInternet,
		Status:    report.StatusConserve,
	}
	gone.ExactDuplicate = true
	gone.Eliminate("N-1")
	return []report.Record{gone, kept}
}

func TestBuildReport(t *testing.T) {
	t.Parallel()

	f, err := BuildReport(sampleRecords(), BuildOptions{})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}

	rows, err := f.GetRows(ReportSheet)
	if err != nil {
		t.Fatalf("read built sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != ColID || len(rows[0]) != len(reportColumns) {
		t.Fatalf("unexpected header row: %v", rows[0])
	}

	// Default order restores the original row order.
	if rows[1][0] != "N-1" || rows[2][0] != "N-2" {
		t.Fatalf("expected original row order, got %v / %v", rows[1][0], rows[2][0])
	}

	statusCol := columnOf("Estado") - 1
	if rows[2][statusCol] != string(report.StatusEliminate) {
		t.Fatalf("unexpected status cell: %q", rows[2][statusCol])
	}
	toneCol := columnOf(ColTone) - 1
	if rows[2][toneCol] != report.DuplicateTone {
		t.Fatalf("eliminated row must carry the duplicate tone, got %q", rows[2][toneCol])
	}

	axis, err := excelize.CoordinatesToCellName(columnOf(ColLinkNote), 2)
	if err != nil {
		t.Fatalf("coordinates: %v", err)
	}
	hasLink, target, err := f.GetCellHyperLink(ReportSheet, axis)
	if err != nil {
		t.Fatalf("read hyperlink: %v", err)
	}
	if !hasLink || target != "https://example.com/n/1" {
		t.Fatalf("hyperlink not rehydrated: %t %q", hasLink, target)
	}
}

func TestBuildReportSortByTitle(t *testing.T) {
	t.Parallel()

	records := []report.Record{
		{RowIndex: 1, ID: "N-1", Title: "Zeta", Outlet: "A", Status: report.StatusConserve},
		{RowIndex: 2, ID: "N-2", Title: "Alfa", Outlet: "B", Status: report.StatusConserve},
	}
	f, err := BuildReport(records, BuildOptions{SortByTitle: true})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	rows, err := f.GetRows(ReportSheet)
	if err != nil {
		t.Fatalf("read built sheet: %v", err)
	}
	if rows[1][0] != "N-2" || rows[2][0] != "N-1" {
		t.Fatalf("expected alphabetical order, got %v / %v", rows[1][0], rows[2][0])
	}
}

func TestDigestContainsOnlyKeptRecords(t *testing.T) {
	t.Parallel()

	f, err := BuildDigest(sampleRecords(), BuildOptions{})
	if err != nil {
		t.Fatalf("build digest: %v", err)
	}
	rows, err := f.GetRows(DigestSheet)
	if err != nil {
		t.Fatalf("read digest: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 kept record, got %d rows", len(rows))
	}
	if rows[1][0] != "Acme crece La empresa crece..." {
		t.Fatalf("unexpected digest text: %q", rows[1][0])
	}
}

func TestBuildReportWithDigestSheet(t *testing.T) {
	t.Parallel()

	f, err := BuildReport(sampleRecords(), BuildOptions{IncludeDigest: true})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	rows, err := f.GetRows(DigestSheet)
	if err != nil {
		t.Fatalf("read digest sheet: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected digest sheet with one kept record, got %d rows", len(rows))
	}
}
