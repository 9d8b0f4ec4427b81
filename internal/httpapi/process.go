package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"

	"github.com/johnathanacortesd/LimpiarV/internal/globaltime"
	"github.com/johnathanacortesd/LimpiarV/internal/pipeline"
	"github.com/johnathanacortesd/LimpiarV/internal/workbook"
	payloadschema "github.com/johnathanacortesd/LimpiarV/schema"
)

const (
	partReport      = "report"
	partInternetMap = "internet_map"
	partRegionMap   = "region_map"
	partMentionsMap = "mentions_map"
	partOptions     = "options"

	headerProcessSummary = "X-Process-Summary"

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// handleProcess accepts a multipart upload with the raw report and optional
// dictionary workbooks, runs the cleaning pipeline and streams the cleaned
// workbook back as an attachment. The run summary travels in a response
// header so the body stays a plain file download.
func (s *Server) handleProcess(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return failValidation(c, map[string]string{"body": "multipart form is required"})
	}
	defer func() { _ = form.RemoveAll() }()

	opts, err := s.requestOptions(c, form)
	if err != nil {
		return failValidation(c, map[string]string{partOptions: err.Error()})
	}

	in, openErr := s.openInputs(form)
	if openErr != nil {
		return failValidation(c, map[string]string{openErr.part: openErr.Error()})
	}
	defer in.close()

	svc := pipeline.NewService(s.logger, opts)
	out, summary, err := svc.Run(in.inputs())
	if err != nil {
		if isDataError(err) {
			return failValidation(c, map[string]string{partReport: err.Error()})
		}
		s.logger.Error().Err(err).Msg("cleaning run failed")
		return internalError(c, "Failed to process report")
	}

	buf, err := out.WriteToBuffer()
	if err != nil {
		s.logger.Error().Err(err).Msg("workbook serialization failed")
		return internalError(c, "Failed to build output workbook")
	}

	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		s.logger.Error().Err(err).Msg("summary serialization failed")
		return internalError(c, "Failed to build run summary")
	}

	filename := fmt.Sprintf("Informe_Depurado_%s.xlsx", globaltime.Now().Format("20060102_1504"))
	header := c.Response().Header()
	header.Set(headerProcessSummary, string(summaryJSON))
	header.Set("Access-Control-Expose-Headers", headerProcessSummary+", Content-Disposition")
	header.Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (s *Server) requestOptions(c echo.Context, form *multipart.Form) (pipeline.Options, error) {
	raw, err := optionsPayload(c, form)
	if err != nil {
		return pipeline.Options{}, err
	}
	if len(raw) == 0 {
		return s.opts.Pipeline, nil
	}
	return payloadschema.ValidateRunOptions(raw)
}

// optionsPayload accepts the options JSON either as a plain form value or as
// an uploaded file part.
func optionsPayload(c echo.Context, form *multipart.Form) (json.RawMessage, error) {
	if value := strings.TrimSpace(c.FormValue(partOptions)); value != "" {
		return json.RawMessage(value), nil
	}
	headers := form.File[partOptions]
	if len(headers) == 0 {
		return nil, nil
	}
	file, err := headers[0].Open()
	if err != nil {
		return nil, fmt.Errorf("open options part: %w", err)
	}
	defer func() { _ = file.Close() }()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read options part: %w", err)
	}
	return raw, nil
}

type partError struct {
	part string
	err  error
}

func (e *partError) Error() string { return e.err.Error() }

type openedInputs struct {
	report      *excelize.File
	internetMap *excelize.File
	regionMap   *excelize.File
	mentionsMap *excelize.File
}

func (o *openedInputs) inputs() pipeline.Inputs {
	return pipeline.Inputs{
		Report:      o.report,
		InternetMap: o.internetMap,
		RegionMap:   o.regionMap,
		MentionsMap: o.mentionsMap,
	}
}

func (o *openedInputs) close() {
	for _, f := range []*excelize.File{o.report, o.internetMap, o.regionMap, o.mentionsMap} {
		if f != nil {
			_ = f.Close()
		}
	}
}

func (s *Server) openInputs(form *multipart.Form) (*openedInputs, *partError) {
	var in openedInputs

	report, err := openWorkbookPart(form, partReport)
	if err != nil {
		return nil, &partError{part: partReport, err: err}
	}
	if report == nil {
		return nil, &partError{part: partReport, err: fmt.Errorf("report workbook is required")}
	}
	in.report = report

	for _, dict := range []struct {
		name   string
		target **excelize.File
	}{
		{partInternetMap, &in.internetMap},
		{partRegionMap, &in.regionMap},
		{partMentionsMap, &in.mentionsMap},
	} {
		f, err := openWorkbookPart(form, dict.name)
		if err != nil {
			in.close()
			return nil, &partError{part: dict.name, err: err}
		}
		*dict.target = f
	}
	return &in, nil
}

func openWorkbookPart(form *multipart.Form, name string) (*excelize.File, error) {
	headers := form.File[name]
	if len(headers) == 0 {
		return nil, nil
	}

	file, err := headers[0].Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer func() { _ = file.Close() }()

	wb, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("%s is not a readable xlsx workbook", name)
	}
	return wb, nil
}

// isDataError tells malformed-input failures apart from server faults.
// Schema problems in the uploaded report belong to the client, not the log
// at error level.
func isDataError(err error) bool {
	return errors.Is(err, workbook.ErrSchema)
}
