package httpapi

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/johnathanacortesd/LimpiarV/internal/auth"
	"github.com/johnathanacortesd/LimpiarV/internal/pipeline"
	"github.com/johnathanacortesd/LimpiarV/internal/workbook"
)

var reportHeaders = []any{
	workbook.ColID, workbook.ColDate, workbook.ColTime, workbook.ColOutlet,
	workbook.ColMediaType, workbook.ColSection, workbook.ColTitle,
	workbook.ColSummary, workbook.ColLinkNote, workbook.ColLinkStream,
	workbook.ColMentions,
}

func reportBytes(t *testing.T, rows [][]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", &reportHeaders); err != nil {
		t.Fatalf("write headers: %v", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			t.Fatalf("row coordinates: %v", err)
		}
		rowCopy := row
		if err := f.SetSheetRow(sheet, cell, &rowCopy); err != nil {
			t.Fatalf("write row: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("serialize workbook: %v", err)
	}
	return buf.Bytes()
}

type multipartRequest struct {
	body        *bytes.Buffer
	writer      *multipart.Writer
	contentType string
}

func newMultipartRequest(t *testing.T) *multipartRequest {
	t.Helper()

	body := &bytes.Buffer{}
	return &multipartRequest{body: body, writer: multipart.NewWriter(body)}
}

func (m *multipartRequest) addFile(t *testing.T, field, filename string, content []byte) {
	t.Helper()

	part, err := m.writer.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file %s: %v", field, err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write form file %s: %v", field, err)
	}
}

func (m *multipartRequest) addValue(t *testing.T, field, value string) {
	t.Helper()

	if err := m.writer.WriteField(field, value); err != nil {
		t.Fatalf("write form field %s: %v", field, err)
	}
}

func (m *multipartRequest) build(t *testing.T) *http.Request {
	t.Helper()

	if err := m.writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/process", m.body)
	req.Header.Set(echo.HeaderContentType, m.writer.FormDataContentType())
	return req
}

func newTestServer(opts Options) *Server {
	if opts.Pipeline == (pipeline.Options{}) {
		opts.Pipeline = pipeline.DefaultOptions()
	}
	return NewServer(zerolog.Nop(), opts)
}

func TestHandleHealth(t *testing.T) {
	t.Parallel()

	e := newTestServer(Options{}).buildEcho()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp jsendResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "success" {
		t.Fatalf("unexpected status: %q", resp.Status)
	}
}

func TestHandleProcess(t *testing.T) {
	t.Parallel()

	req := newMultipartRequest(t)
	req.addFile(t, partReport, "informe.xlsx", reportBytes(t, [][]any{
		{"N-1", "2026-08-10", "", "El Tiempo", "Online", "", "Acme abre planta", "resumen uno.", "", "", "Acme"},
		{"N-2", "2026-08-10", "", "El Tiempo", "Online", "", "Acme abre planta", "resumen dos.", "", "", "Acme"},
	}))

	e := newTestServer(Options{}).buildEcho()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req.build(t))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != xlsxContentType {
		t.Fatalf("unexpected content type: %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd == "" {
		t.Fatalf("expected attachment disposition")
	}

	var summary pipeline.Summary
	if err := json.Unmarshal([]byte(rec.Header().Get(headerProcessSummary)), &summary); err != nil {
		t.Fatalf("decode summary header: %v", err)
	}
	if summary.TotalRows != 2 || summary.ToEliminate != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	out, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("response body is not an xlsx workbook: %v", err)
	}
	rows, err := out.GetRows(workbook.ReportSheet)
	if err != nil {
		t.Fatalf("read output sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus two rows, got %d", len(rows))
	}
}

func TestHandleProcessWithOptionsPart(t *testing.T) {
	t.Parallel()

	req := newMultipartRequest(t)
	req.addFile(t, partReport, "informe.xlsx", reportBytes(t, [][]any{
		{"N-1", "2026-08-10", "", "El Tiempo", "Online", "", "Zebra", "resumen.", "", "", "Acme"},
	}))
	req.addValue(t, partOptions, `{"include_digest":false}`)

	e := newTestServer(Options{}).buildEcho()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req.build(t))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	out, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	if _, err := out.GetRows(workbook.DigestSheet); err == nil {
		t.Fatalf("digest sheet must be absent when disabled")
	}
}

func TestHandleProcessRejectsBadOptions(t *testing.T) {
	t.Parallel()

	req := newMultipartRequest(t)
	req.addFile(t, partReport, "informe.xlsx", reportBytes(t, nil))
	req.addValue(t, partOptions, `{"similarity_threshold":7}`)

	e := newTestServer(Options{}).buildEcho()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req.build(t))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleProcessRequiresReport(t *testing.T) {
	t.Parallel()

	req := newMultipartRequest(t)
	req.addValue(t, partOptions, `{}`)

	e := newTestServer(Options{}).buildEcho()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req.build(t))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleProcessRejectsIncompleteReport(t *testing.T) {
	t.Parallel()

	f := excelize.NewFile()
	headers := []any{workbook.ColID, workbook.ColDate, workbook.ColOutlet}
	if err := f.SetSheetRow(f.GetSheetName(0), "A1", &headers); err != nil {
		t.Fatalf("write headers: %v", err)
	}
	row := []any{"N-1", "2026-08-10", "El Tiempo"}
	if err := f.SetSheetRow(f.GetSheetName(0), "A2", &row); err != nil {
		t.Fatalf("write row: %v", err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("serialize workbook: %v", err)
	}

	req := newMultipartRequest(t)
	req.addFile(t, partReport, "informe.xlsx", buf.Bytes())

	e := newTestServer(Options{}).buildEcho()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req.build(t))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("schema errors must be a client fault, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleProcessRejectsNonWorkbook(t *testing.T) {
	t.Parallel()

	req := newMultipartRequest(t)
	req.addFile(t, partReport, "informe.xlsx", []byte("not an xlsx"))

	e := newTestServer(Options{}).buildEcho()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req.build(t))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAccessPasswordGate(t *testing.T) {
	t.Parallel()

	hash, err := auth.HashPassword("secreto123")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	e := newTestServer(Options{AccessPasswordHash: hash}).buildEcho()

	body := reportBytes(t, [][]any{
		{"N-1", "2026-08-10", "", "El Tiempo", "Online", "", "Acme", "resumen.", "", "", "Acme"},
	})

	req := newMultipartRequest(t)
	req.addFile(t, partReport, "informe.xlsx", body)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req.build(t))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without password, got %d", rec.Code)
	}

	req = newMultipartRequest(t)
	req.addFile(t, partReport, "informe.xlsx", body)
	httpReq := req.build(t)
	httpReq.Header.Set(headerAccessPassword, "secreto123")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httpReq)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with password, got %d: %s", rec.Code, rec.Body.String())
	}

	// Health stays open so load balancers can probe without the secret.
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected open health endpoint, got %d", rec.Code)
	}
}
