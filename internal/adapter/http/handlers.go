package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/couchcryptid/disaster-funding-service/internal/adapter/export"
	"github.com/couchcryptid/disaster-funding-service/internal/dataset"
	"github.com/couchcryptid/disaster-funding-service/internal/domain"
	"github.com/couchcryptid/disaster-funding-service/internal/pipeline"
)

type errorResponse struct {
	Error  string       `json:"error"`
	Fields []fieldError `json:"fields,omitempty"`
}

type recordsResponse struct {
	Count   int                     `json:"count"`
	Records []domain.DisasterRecord `json:"records"`
}

func (s *Server) handleMeta(w http.ResponseWriter, r *http.Request) {
	meta, err := s.svc.Meta()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	render.JSON(w, r, meta)
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	c, _, err := s.validator.parseCriteria(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	records, err := s.svc.Records(c)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	render.JSON(w, r, recordsResponse{Count: len(records), Records: records})
}

func (s *Server) handleAggregates(w http.ResponseWriter, r *http.Request) {
	c, strategy, err := s.validator.parseCriteria(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.svc.Aggregates(c, strategy)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	render.JSON(w, r, res)
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	c, strategy, err := s.validator.parseCriteria(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	fc, res, err := s.svc.Map(c, strategy)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("X-Threshold-Strategy", string(res.Strategy))
	writeGeoJSON(w, fc)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	s.export(w, r, "csv", "text/csv; charset=utf-8", func(buf *bytes.Buffer, records []domain.DisasterRecord) error {
		return export.WriteCSV(buf, records, export.CSVOptions{BOMPrefix: true})
	})
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	s.export(w, r, "xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", func(buf *bytes.Buffer, records []domain.DisasterRecord) error {
		return export.WriteXLSX(buf, records)
	})
}

// export buffers the whole attachment so a failure can still be reported
// as a JSON error.
func (s *Server) export(w http.ResponseWriter, r *http.Request, format, contentType string, write func(*bytes.Buffer, []domain.DisasterRecord) error) {
	c, _, err := s.validator.parseCriteria(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	records, err := s.svc.Records(c)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := write(&buf, records); err != nil {
		s.metrics.Exports.WithLabelValues(format, "error").Inc()
		s.writeError(w, r, fmt.Errorf("export %s: %w", format, err))
		return
	}
	s.metrics.Exports.WithLabelValues(format, "success").Inc()
	writeAttachment(w, contentType, export.Filename(format, domain.Now()), buf.Bytes())
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	detail, err := s.svc.Event(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	render.JSON(w, r, detail)
}

func (s *Server) handleRegionSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.svc.RegionSummary(chi.URLParam(r, "region"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	render.JSON(w, r, summary)
}

func (s *Server) handleFactSheet(w http.ResponseWriter, r *http.Request) {
	ids, opts, err := s.validator.parseFactSheet(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	fs, err := s.svc.FactSheet(ids, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	render.JSON(w, r, fs)
}

func (s *Server) handleFactSheetPDF(w http.ResponseWriter, r *http.Request) {
	if s.pdf == nil {
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, errorResponse{Error: "pdf rendering disabled"})
		return
	}
	ids, opts, err := s.validator.parseFactSheet(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	fs, err := s.svc.FactSheet(ids, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	pdf, err := s.pdf.Render(r.Context(), fs)
	if err != nil {
		s.metrics.Exports.WithLabelValues("pdf", "error").Inc()
		s.writeError(w, r, fmt.Errorf("render pdf: %w", err))
		return
	}
	s.metrics.Exports.WithLabelValues("pdf", "success").Inc()
	writeAttachment(w, "application/pdf", "fact-sheet-"+fs.GeneratedAt.Format("20060102")+".pdf", pdf)
}

// writeError maps service errors to status codes. Unexpected errors are
// logged and reported as 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validationError
	status := http.StatusInternalServerError
	resp := errorResponse{Error: err.Error()}

	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
		resp.Fields = verr.Fields
	case errors.Is(err, dataset.ErrNotLoaded):
		status = http.StatusServiceUnavailable
	case errors.Is(err, pipeline.ErrUnknownEvent), errors.Is(err, pipeline.ErrUnknownRegion):
		status = http.StatusNotFound
	case errors.Is(err, pipeline.ErrNoEvents):
		status = http.StatusBadRequest
	default:
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}

	render.Status(r, status)
	render.JSON(w, r, resp)
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(body) //nolint:errcheck // client may have gone away
}

func writeGeoJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}
