package pages

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/welfaredesk/welfaredesk/internal/backend"
	"github.com/welfaredesk/welfaredesk/internal/resource"
	"github.com/welfaredesk/welfaredesk/report"
)

// exportRows reads up to ExportMax records matching the request's filters.
func (h *Handler[T]) exportRows(ctx context.Context, r *http.Request) (ExportPage, error) {
	q := h.listQuery(r)
	q.Page = 1
	q.Limit = h.deps.ExportMax
	page, err := h.store.List(ctx, q.Params())
	if err != nil {
		return ExportPage{}, err
	}
	total := page.Pagination.Total
	if total < len(page.Records) {
		total = len(page.Records)
	}
	return ExportPage{
		Schema:  h.view,
		Rows:    h.rows(page.Records),
		Options: h.options(ctx),
		Query:   q,
		Total:   total,
	}, nil
}

func (h *Handler[T]) exportCSV(w http.ResponseWriter, r *http.Request) {
	data, err := h.exportRows(r.Context(), r)
	if err != nil {
		h.deps.Logger.Error("export records", slog.String("resource", h.schema.Name), slog.Any("error", err))
		http.Error(w, "Failed to load "+h.schema.Title, http.StatusBadGateway)
		return
	}
	body, err := WriteCSV(data)
	if err != nil {
		h.serverError(w, "encode csv", err)
		return
	}
	if data.Total > len(data.Rows) {
		w.Header().Set("X-Export-Truncated", strconv.Itoa(data.Total))
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+h.filename("csv")+`"`)
	if _, err := w.Write(body); err != nil {
		h.deps.Logger.Warn("write csv", slog.Any("error", err))
	}
}

func (h *Handler[T]) exportPDF(w http.ResponseWriter, r *http.Request) {
	if h.deps.PDF == nil {
		http.Error(w, "PDF export is not available", http.StatusNotImplemented)
		return
	}
	data, err := h.exportRows(r.Context(), r)
	if err != nil {
		h.deps.Logger.Error("export records", slog.String("resource", h.schema.Name), slog.Any("error", err))
		http.Error(w, "Failed to load "+h.schema.Title, http.StatusBadGateway)
		return
	}
	var html bytes.Buffer
	if err := h.deps.Templates.RenderTo(&html, "pages/resource_pdf.html", h.deps.Templates.Page(r, h.schema.Title, data)); err != nil {
		h.serverError(w, "render pdf source", err)
		return
	}
	pdf, err := h.deps.PDF.RenderHTML(r.Context(), html.Bytes())
	if err != nil {
		if errors.Is(err, report.ErrUnavailable) {
			http.Error(w, "PDF export is not available", http.StatusNotImplemented)
			return
		}
		h.deps.Logger.Error("render pdf", slog.String("resource", h.schema.Name), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+h.filename("pdf")+`"`)
	if _, err := w.Write(pdf); err != nil {
		h.deps.Logger.Warn("write pdf", slog.Any("error", err))
	}
}

func (h *Handler[T]) filename(ext string) string {
	return h.schema.Name + "-" + time.Now().Format("20060102") + "." + ext
}

// WriteCSV renders every field of the exported rows, lookups resolved to
// their labels.
func WriteCSV(data ExportPage) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{"ID"}
	for _, f := range data.Schema.Fields {
		header = append(header, f.Label)
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, row := range data.Rows {
		record := []string{row.ID}
		for _, f := range data.Schema.Fields {
			record = append(record, cellText(f, row, data.Options))
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func cellText(f resource.Field, row Row, options map[string][]backend.Option) string {
	values := row.Values[f.Name]
	if !f.IsLookup() {
		return strings.Join(values, "; ")
	}
	labels := make([]string, 0, len(values))
	for _, id := range values {
		labels = append(labels, optionLabel(options[f.Lookup], id))
	}
	return strings.Join(labels, "; ")
}

func optionLabel(options []backend.Option, id string) string {
	for _, o := range options {
		if o.ID == id {
			return o.Label
		}
	}
	return id
}
