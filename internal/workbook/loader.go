// Package workbook reads the news report and lookup sheets from xlsx files
// and writes the cleaned report back out. It is the only package that talks
// to the spreadsheet container.
package workbook

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/johnathanacortesd/LimpiarV/internal/lookup"
	"github.com/johnathanacortesd/LimpiarV/internal/normalize"
	"github.com/johnathanacortesd/LimpiarV/internal/report"
)

// Input header names. Matching is whitespace/case/punctuation-insensitive,
// so these are the display forms used in error messages.
const (
	ColID         = "ID"
	ColDate       = "Fecha"
	ColTime       = "Hora"
	ColOutlet     = "Medio"
	ColMediaType  = "Tipo de Medio"
	ColSection    = "Sección - Programa"
	ColRegion     = "Región"
	ColTitle      = "Título"
	ColSummary    = "Resumen - Aclaración"
	ColLinkNote   = "Link Nota"
	ColLinkStream = "Link (Streaming - Imagen)"
	ColMentions   = "Menciones - Empresa"
	ColTone       = "Tono"
	ColTopic      = "Tema"
	ColGeneral    = "Tema General"
)

// ErrSchema marks input workbooks whose shape is wrong: no sheet, no data
// rows, or a required column missing. Callers match it with errors.Is to
// tell bad uploads from internal failures.
var ErrSchema = errors.New("report schema")

// requiredColumns must be present in the main report; a missing one is a
// schema error for the whole batch.
var requiredColumns = []string{
	ColDate, ColTime, ColOutlet, ColMediaType, ColTitle,
	ColSummary, ColLinkNote, ColLinkStream, ColMentions,
}

var dateLayouts = []string{
	"2006-01-02", "02/01/2006", "2/1/2006", "02-01-2006", "01-02-06", "2006/01/02",
}

var timeLayouts = []string{
	"15:04:05", "15:04", "3:04 PM", "3:04:05 PM",
}

// hyperlinkFormula matches HYPERLINK("url", "display") style cell formulas.
var hyperlinkFormula = regexp.MustCompile(`(?i)HYPERLINK\(\s*"([^"]+)"(?:\s*[,;]\s*"([^"]*)")?\s*\)`)

// LoadRecords reads the first sheet of the main report into records. One
// record per non-blank row; cell parse failures degrade to zero values and
// are logged, never fatal.
func LoadRecords(f *excelize.File, logger zerolog.Logger) ([]report.Record, error) {
	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrSchema)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: sheet %q has no data rows", ErrSchema, sheet)
	}

	cols, err := indexHeaders(rows[0])
	if err != nil {
		return nil, err
	}

	records := make([]report.Record, 0, len(rows)-1)
	for rowNum := 2; rowNum <= len(rows); rowNum++ {
		row := rows[rowNum-1]
		if rowIsBlank(row) {
			continue
		}

		rec := report.Record{
			ID:           cols.value(row, ColID),
			Outlet:       cols.value(row, ColOutlet),
			MediaType:    report.MediaType(cols.value(row, ColMediaType)),
			Section:      cols.value(row, ColSection),
			Region:       cols.value(row, ColRegion),
			Title:        cols.value(row, ColTitle),
			Summary:      cols.value(row, ColSummary),
			Mention:      cols.value(row, ColMentions),
			Tone:         cols.value(row, ColTone),
			Topic:        cols.value(row, ColTopic),
			GeneralTopic: cols.value(row, ColGeneral),
			Status:       report.StatusConserve,
			RowIndex:     len(records) + 1,
		}

		rec.Date = parseCellDate(cols.value(row, ColDate), rowNum, logger)
		rec.AirTime = parseCellTime(cols.value(row, ColTime), rowNum, logger)
		rec.LinkNote = extractLink(f, sheet, rowNum, cols, ColLinkNote, row)
		rec.LinkStream = extractLink(f, sheet, rowNum, cols, ColLinkStream, row)

		records = append(records, rec)
	}

	logger.Info().Str("sheet", sheet).Int("records", len(records)).Msg("report loaded")
	return records, nil
}

type headerIndex map[string]int

func indexHeaders(headers []string) (headerIndex, error) {
	idx := make(headerIndex, len(headers))
	for i, h := range headers {
		key := normalize.Key(h)
		if key == "" {
			continue
		}
		if _, exists := idx[key]; !exists {
			idx[key] = i
		}
	}
	for _, col := range requiredColumns {
		if _, ok := idx[normalize.Key(col)]; !ok {
			return nil, fmt.Errorf("%w: required column %q is missing", ErrSchema, col)
		}
	}
	return idx, nil
}

func (h headerIndex) column(name string) (int, bool) {
	i, ok := h[normalize.Key(name)]
	return i, ok
}

// value reads a cell by header name; rows shorter than the header are read
// as blanks.
func (h headerIndex) value(row []string, name string) string {
	i, ok := h.column(name)
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func rowIsBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// extractLink resolves a link cell with this precedence: native cell
// hyperlink, HYPERLINK formula, plain display text.
func extractLink(f *excelize.File, sheet string, rowNum int, cols headerIndex, name string, row []string) report.Link {
	colIdx, ok := cols.column(name)
	if !ok {
		return report.Link{}
	}
	text := cols.value(row, name)

	axis, err := excelize.CoordinatesToCellName(colIdx+1, rowNum)
	if err != nil {
		return report.Link{Text: text}
	}

	if hasLink, target, err := f.GetCellHyperLink(sheet, axis); err == nil && hasLink && strings.TrimSpace(target) != "" {
		return report.Link{Text: text, URL: strings.TrimSpace(target)}
	}

	if formula, err := f.GetCellFormula(sheet, axis); err == nil && formula != "" {
		if m := hyperlinkFormula.FindStringSubmatch(formula); m != nil {
			display := text
			if len(m) > 2 && m[2] != "" {
				display = m[2]
			}
			return report.Link{Text: display, URL: m[1]}
		}
	}

	return report.Link{Text: text}
}

func parseCellDate(raw string, rowNum int, logger zerolog.Logger) time.Time {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, trimmed); err == nil {
			return ts
		}
	}
	logger.Warn().Int("row", rowNum).Str("value", raw).Msg("unparseable date, using minimum value")
	return time.Time{}
}

func parseCellTime(raw string, rowNum int, logger zerolog.Logger) time.Time {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, trimmed); err == nil {
			return ts
		}
	}
	logger.Warn().Int("row", rowNum).Str("value", raw).Msg("unparseable time, using minimum value")
	return time.Time{}
}

// LoadDictionary reads a two-column lookup sheet (key column, value column,
// header row skipped) into a Dictionary. Rows with a blank side are
// excluded.
func LoadDictionary(f *excelize.File) (lookup.Dictionary, error) {
	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("lookup workbook has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read lookup sheet %q: %w", sheet, err)
	}

	pairs := make(map[string]string)
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) < 2 {
			continue
		}
		pairs[row[0]] = row[1]
	}
	return lookup.NewDictionary(pairs), nil
}
