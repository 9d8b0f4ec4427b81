package workbook

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/johnathanacortesd/LimpiarV/internal/report"
)

const (
	// ReportSheet holds the cleaned report; DigestSheet the condensed
	// title+summary text of kept records for downstream classification.
	ReportSheet = "Informe Depurado"
	DigestSheet = "Resumen Texto"

	xlsxDateFormat = "2006-01-02"
	xlsxTimeFormat = "15:04"
)

// reportColumns is the fixed output column order.
var reportColumns = []string{
	ColID, ColDate, ColTime, ColOutlet, ColMediaType, ColSection, ColRegion,
	ColTitle, "Título Original", ColSummary, ColLinkNote, ColLinkStream,
	ColMentions, ColTone, ColTopic, ColGeneral,
	"Estado", "Duplicada Exacta", "Posible Duplicada", "Título Reparado",
	"Título Problemático", "Referencia Conservada", "Fila Original",
}

// BuildOptions controls output ordering and the digest sheet.
type BuildOptions struct {
	// SortByTitle re-sorts the output by title then outlet instead of the
	// default original row order.
	SortByTitle bool

	// IncludeDigest appends the digest sheet to the same workbook.
	IncludeDigest bool
}

// BuildReport assembles the output workbook: the fixed column order with
// hyperlink cells rehydrated into real document links.
func BuildReport(records []report.Record, opts BuildOptions) (*excelize.File, error) {
	ordered := orderedCopy(records, opts.SortByTitle)

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", ReportSheet); err != nil {
		return nil, fmt.Errorf("rename report sheet: %w", err)
	}

	if err := writeRow(f, ReportSheet, 1, toAny(reportColumns)); err != nil {
		return nil, err
	}

	linkStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "1265BE", Underline: "single"},
	})
	if err != nil {
		return nil, fmt.Errorf("create hyperlink style: %w", err)
	}

	for i, rec := range ordered {
		rowNum := i + 2
		cells := []any{
			rec.ID,
			formatDate(rec),
			formatTime(rec),
			rec.Outlet,
			string(rec.MediaType),
			rec.Section,
			rec.Region,
			rec.Title,
			rec.OriginalTitle,
			rec.Summary,
			rec.LinkNote.Text,
			rec.LinkStream.Text,
			rec.Mention,
			rec.Tone,
			rec.Topic,
			rec.GeneralTopic,
			string(rec.Status),
			boolCell(rec.ExactDuplicate),
			boolCell(rec.PossibleDuplicate),
			boolCell(rec.TitleRepaired),
			boolCell(rec.Problematic),
			rec.KeptRef,
			rec.RowIndex,
		}
		if err := writeRow(f, ReportSheet, rowNum, cells); err != nil {
			return nil, err
		}

		if err := setLinkCell(f, linkStyle, rowNum, columnOf(ColLinkNote), rec.LinkNote); err != nil {
			return nil, err
		}
		if err := setLinkCell(f, linkStyle, rowNum, columnOf(ColLinkStream), rec.LinkStream); err != nil {
			return nil, err
		}
	}

	if opts.IncludeDigest {
		if err := addDigestSheet(f, ordered); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// BuildDigest builds the standalone digest workbook of kept records only.
func BuildDigest(records []report.Record, opts BuildOptions) (*excelize.File, error) {
	ordered := orderedCopy(records, opts.SortByTitle)

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", DigestSheet); err != nil {
		return nil, fmt.Errorf("rename digest sheet: %w", err)
	}
	if err := writeDigestRows(f, DigestSheet, ordered); err != nil {
		return nil, err
	}
	return f, nil
}

func addDigestSheet(f *excelize.File, ordered []report.Record) error {
	if _, err := f.NewSheet(DigestSheet); err != nil {
		return fmt.Errorf("add digest sheet: %w", err)
	}
	return writeDigestRows(f, DigestSheet, ordered)
}

// writeDigestRows emits one concatenated title+summary row per kept record.
func writeDigestRows(f *excelize.File, sheet string, ordered []report.Record) error {
	if err := writeRow(f, sheet, 1, []any{"Resumen"}); err != nil {
		return err
	}
	rowNum := 2
	for _, rec := range ordered {
		if rec.Status != report.StatusConserve {
			continue
		}
		text := strings.TrimSpace(rec.Title + " " + rec.Summary)
		if err := writeRow(f, sheet, rowNum, []any{text}); err != nil {
			return err
		}
		rowNum++
	}
	return nil
}

func orderedCopy(records []report.Record, byTitle bool) []report.Record {
	ordered := make([]report.Record, len(records))
	copy(ordered, records)
	if byTitle {
		sort.SliceStable(ordered, func(a, b int) bool {
			if ordered[a].Title != ordered[b].Title {
				return ordered[a].Title < ordered[b].Title
			}
			if ordered[a].Outlet != ordered[b].Outlet {
				return ordered[a].Outlet < ordered[b].Outlet
			}
			return ordered[a].RowIndex < ordered[b].RowIndex
		})
		return ordered
	}
	sort.SliceStable(ordered, func(a, b int) bool {
		return ordered[a].RowIndex < ordered[b].RowIndex
	})
	return ordered
}

func writeRow(f *excelize.File, sheet string, rowNum int, cells []any) error {
	start, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("row %d coordinates: %w", rowNum, err)
	}
	if err := f.SetSheetRow(sheet, start, &cells); err != nil {
		return fmt.Errorf("write row %d: %w", rowNum, err)
	}
	return nil
}

func setLinkCell(f *excelize.File, styleID, rowNum, colNum int, link report.Link) error {
	if !link.HasURL() {
		return nil
	}
	axis, err := excelize.CoordinatesToCellName(colNum, rowNum)
	if err != nil {
		return fmt.Errorf("link cell coordinates: %w", err)
	}
	text := strings.TrimSpace(link.Text)
	if text == "" {
		text = link.URL
	}
	if err := f.SetCellValue(ReportSheet, axis, text); err != nil {
		return fmt.Errorf("set link text %s: %w", axis, err)
	}
	if err := f.SetCellHyperLink(ReportSheet, axis, link.URL, "External"); err != nil {
		return fmt.Errorf("set hyperlink %s: %w", axis, err)
	}
	if err := f.SetCellStyle(ReportSheet, axis, axis, styleID); err != nil {
		return fmt.Errorf("style hyperlink %s: %w", axis, err)
	}
	return nil
}

// columnOf is the 1-based position of an output column.
func columnOf(name string) int {
	for i, col := range reportColumns {
		if col == name {
			return i + 1
		}
	}
	return 0
}

func formatDate(rec report.Record) string {
	if rec.Date.IsZero() {
		return ""
	}
	return rec.Date.Format(xlsxDateFormat)
}

func formatTime(rec report.Record) string {
	if rec.AirTime.IsZero() {
		return ""
	}
	return rec.AirTime.Format(xlsxTimeFormat)
}

func boolCell(v bool) string {
	if v {
		return "Sí"
	}
	return "No"
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
