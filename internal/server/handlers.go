package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/matzehuels/guji/pkg/buildinfo"
	errs "github.com/matzehuels/guji/pkg/errors"
	"github.com/matzehuels/guji/pkg/layout"
	"github.com/matzehuels/guji/pkg/ocr"
	"github.com/matzehuels/guji/pkg/perm"
	"github.com/matzehuels/guji/pkg/pipeline"
	"github.com/matzehuels/guji/pkg/render"
)

// errorBody is the JSON shape of every error response and of the degraded
// field of an order response.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type orderResponse struct {
	Page        *ocr.Ordered       `json:"page"`
	Order       []int              `json:"order"`
	// Ranks[i] is the reading position of input detection i, for
	// numbering boxes drawn over the scan.
	Ranks       []int              `json:"ranks"`
	Columns     int                `json:"columns"`
	ColumnSizes []int              `json:"column_sizes,omitempty"`
	Tally       layout.Tally       `json:"tally"`
	Text        string             `json:"text"`
	Degraded    *errorBody         `json:"degraded,omitempty"`
	Stats       pipeline.Stats     `json:"stats"`
	Cache       pipeline.CacheInfo `json:"cache"`
}

func newOrderResponse(res *pipeline.Result) orderResponse {
	out := orderResponse{
		Page:        res.Ordered(),
		Order:       res.Order,
		Ranks:       perm.Inverse(res.Order),
		Columns:     res.Columns,
		ColumnSizes: res.ColumnSizes,
		Tally:       res.Tally,
		Text:        res.Text,
		Stats:       res.Stats,
		Cache:       res.CacheInfo,
	}
	if res.Degraded {
		out.Degraded = &errorBody{Code: string(errs.GetCode(res.Err)), Message: errs.UserMessage(res.Err)}
	}
	return out
}

type textResponse struct {
	Orientation ocr.Orientation `json:"orientation"`
	Text        string          `json:"text"`
	Degraded    *errorBody      `json:"degraded,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Get())
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	opts, err := s.options(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	page, err := readPage(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.runner.Order(r.Context(), page, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderResponse(res))
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	opts, err := s.options(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var pages []*ocr.Page
	if err := json.NewDecoder(r.Body).Decode(&pages); err != nil {
		s.writeError(w, errs.Wrap(errs.ErrCodeInvalidInput, err, "decode pages: %v", err))
		return
	}
	if len(pages) > s.cfg.MaxBatchPages {
		s.writeError(w, errs.New(errs.ErrCodeInvalidInput, "batch of %d pages exceeds %d", len(pages), s.cfg.MaxBatchPages))
		return
	}

	opts.Concurrency = s.cfg.BatchConcurrency
	results, err := s.runner.OrderDocument(r.Context(), pages, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]orderResponse, len(results))
	for i, res := range results {
		out[i] = newOrderResponse(res)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	opts, err := s.options(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	page, err := readPage(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.runner.Order(r.Context(), page, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := textResponse{Orientation: res.Orientation, Text: res.Text}
	if res.Degraded {
		out.Degraded = &errorBody{Code: string(errs.GetCode(res.Err)), Message: errs.UserMessage(res.Err)}
	}
	writeJSON(w, http.StatusOK, out)
}

var contentTypes = map[string]string{
	render.FormatDOT: "text/vnd.graphviz; charset=utf-8",
	render.FormatSVG: "image/svg+xml",
	render.FormatPNG: "image/png",
	render.FormatPDF: "application/pdf",
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = render.FormatSVG
	}
	if err := render.ValidateFormat(format); err != nil {
		s.writeError(w, err)
		return
	}
	opts, err := s.options(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	page, err := readPage(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.runner.Order(r.Context(), page, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	detailed, _ := strconv.ParseBool(r.URL.Query().Get("detailed"))
	data, err := s.runner.Graph(r.Context(), res, format, render.Options{Detailed: detailed})
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// options reads ordering options from the query string.
func (s *Server) options(r *http.Request) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := pipeline.Options{
		Layout:      s.cfg.Layout,
		Orientation: q.Get("orientation"),
		Separator:   q.Get("sep"),
		Logger:      s.logger,
	}
	if v := q.Get("refresh"); v != "" {
		refresh, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errs.New(errs.ErrCodeInvalidInput, "refresh must be a boolean, got %q", v)
		}
		opts.Refresh = refresh
	}
	if opts.Orientation != "" {
		if _, err := ocr.ParseOrientation(opts.Orientation); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

// writeError maps err to a status code and writes it as JSON.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		writeErr(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE",
			fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
	case errs.IsInputError(err), errs.Is(err, errs.ErrCodeUnsupported), errs.Is(err, errs.ErrCodeInvalidConfig):
		writeErr(w, http.StatusBadRequest, string(errs.GetCode(err)), errs.UserMessage(err))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeErr(w, http.StatusServiceUnavailable, string(errs.ErrCodeTimeout), "request cancelled")
	default:
		code := errs.GetCode(err)
		if code == "" {
			code = errs.ErrCodeInternal
		}
		s.logger.Error("request failed", "err", err)
		writeErr(w, http.StatusInternalServerError, string(code), errs.UserMessage(err))
	}
}

// readPage decodes the request body as a page. Decode failures are input
// errors.
func readPage(r *http.Request) (*ocr.Page, error) {
	page, err := ocr.ReadPage(r.Body)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "%v", err)
	}
	return page, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeErr(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Code: code, Message: message})
}
