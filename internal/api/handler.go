package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"darkzone_service/internal/core"
	"darkzone_service/internal/domain/model"
	"darkzone_service/internal/infrastructure/export"
	"darkzone_service/internal/logger"
)

// Pipeline is the part of core.DarkZoneService the handlers use.
type Pipeline interface {
	TrainModels(ctx context.Context, raw model.RawTable, codes []model.LitterCode, method core.AggregationMethod) (model.ModelSet, error)
	PredictDarkZones(ctx context.Context, raw model.RawTable, models model.ModelSet) (model.PredictionTable, error)
	ModelInfos() []model.ModelInfo
}

// ObservationSource loads raw observations for a date window.
type ObservationSource interface {
	LoadObservations(ctx context.Context, from, to time.Time) (model.RawTable, error)
}

type Handler struct {
	pipeline     Pipeline
	observations ObservationSource
	edges        core.EdgeGeometrySource
	aggregation  core.AggregationMethod
	maxBody      int64
	log          *zap.Logger
}

// NewHandler builds the handlers. observations may be nil, in which case
// requests must carry inline observations. edges locates KML placemarks.
func NewHandler(
	pipeline Pipeline,
	observations ObservationSource,
	edges core.EdgeGeometrySource,
	aggregation core.AggregationMethod,
	maxBody int64,
	log *zap.Logger,
) *Handler {
	if log == nil {
		log = logger.L()
	}
	return &Handler{
		pipeline:     pipeline,
		observations: observations,
		edges:        edges,
		aggregation:  aggregation,
		maxBody:      maxBody,
		log:          log,
	}
}

// ObservationWindow selects the input of a run: inline rows, or the
// observations between From (inclusive) and To (exclusive), "2006-01-02".
type ObservationWindow struct {
	Observations model.RawTable `json:"observations,omitempty"`
	From         string         `json:"from,omitempty"`
	To           string         `json:"to,omitempty"`
}

type TrainRequest struct {
	ObservationWindow
	Litters     []string `json:"litters"`
	Aggregation string   `json:"aggregation"`
}

type TrainResponse struct {
	Models []model.ModelInfo `json:"models"`
}

type PredictRequest struct {
	ObservationWindow
	// Format is "json" (default) or "kml".
	Format string `json:"format"`
}

type PredictResponse struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) Train(w http.ResponseWriter, r *http.Request) {
	var req TrainRequest
	if !h.decode(w, r, &req) {
		return
	}

	codes, err := parseLitters(req.Litters)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	method := h.aggregation
	if req.Aggregation != "" {
		if method, err = core.ParseAggregationMethod(req.Aggregation); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	raw, err := h.load(r.Context(), req.ObservationWindow)
	if err != nil {
		h.fail(w, "train", err)
		return
	}

	set, err := h.pipeline.TrainModels(r.Context(), raw, codes, method)
	if err != nil {
		h.fail(w, "train", err)
		return
	}

	resp := TrainResponse{Models: make([]model.ModelInfo, 0, len(set))}
	for _, code := range set.Codes() {
		resp.Models = append(resp.Models, set[code].Info())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	var req PredictRequest
	if !h.decode(w, r, &req) {
		return
	}
	format := strings.ToLower(req.Format)
	if format != "" && format != "json" && format != "kml" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unsupported format %q", req.Format))
		return
	}

	raw, err := h.load(r.Context(), req.ObservationWindow)
	if err != nil {
		h.fail(w, "predict", err)
		return
	}

	table, err := h.pipeline.PredictDarkZones(r.Context(), raw, nil)
	if err != nil {
		h.fail(w, "predict", err)
		return
	}

	if format == "kml" {
		h.writeKML(r.Context(), w, table)
		return
	}
	writeJSON(w, http.StatusOK, predictResponse(table))
}

func (h *Handler) Models(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, TrainResponse{Models: h.pipeline.ModelInfos()})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeKML(ctx context.Context, w http.ResponseWriter, table model.PredictionTable) {
	var boxes map[string]model.Bounds
	if h.edges != nil {
		edges, err := h.edges.LoadEdges(ctx)
		if err != nil {
			h.fail(w, "predict", fmt.Errorf("%w: edges: %v", model.ErrMissingFeed, err))
			return
		}
		boxes = export.EdgeBoxes(edges)
	}
	w.Header().Set("Content-Type", "application/vnd.google-earth.kml+xml")
	w.Header().Set("Content-Disposition", `attachment; filename="darkzones.kml"`)
	if err := export.WriteKML(w, table, boxes); err != nil {
		h.log.Error("failed to write kml", zap.Error(err))
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := r.Body
	if h.maxBody > 0 {
		body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

func (h *Handler) load(ctx context.Context, win ObservationWindow) (model.RawTable, error) {
	if len(win.Observations) > 0 {
		return win.Observations, nil
	}
	if h.observations == nil {
		return nil, fmt.Errorf("%w: no observations in request and no observation store configured", model.ErrMalformedInput)
	}
	from, err := parseDay(win.From)
	if err != nil {
		return nil, err
	}
	to, err := parseDay(win.To)
	if err != nil {
		return nil, err
	}
	raw, err := h.observations.LoadObservations(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: observations: %v", model.ErrMissingFeed, err)
	}
	return raw, nil
}

// fail maps pipeline errors to status codes.
func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrMalformedInput), errors.Is(err, model.ErrUnknownCategory):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrNoModels):
		status = http.StatusConflict
	case errors.Is(err, model.ErrMissingFeed):
		status = http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}
	if status >= http.StatusInternalServerError {
		h.log.Error(op+" failed", zap.Error(err))
	} else {
		h.log.Info(op+" rejected", zap.Error(err))
	}
	writeError(w, status, err)
}

func parseLitters(names []string) ([]model.LitterCode, error) {
	if len(names) == 0 {
		return []model.LitterCode{model.TotalLitter}, nil
	}
	codes := make([]model.LitterCode, 0, len(names))
	seen := make(map[model.LitterCode]struct{}, len(names))
	for _, name := range names {
		code, err := model.ParseLitterCode(name)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	return codes, nil
}

func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", model.ErrMalformedInput, s)
	}
	return d, nil
}

func predictResponse(table model.PredictionTable) PredictResponse {
	resp := PredictResponse{Columns: table.Columns(), Rows: make([]map[string]any, 0, len(table.Rows))}
	for _, row := range table.Rows {
		out := map[string]any{
			model.ColDate:       model.DateKey(row.Date),
			model.ColEdgeID:     row.EdgeID,
			model.ColEdgeOSMID:  row.EdgeOSMID,
			model.ColOSMHighway: row.OSMHighway,
			model.ColRowType:    row.RowType,
		}
		for _, code := range table.Codes {
			out[code.String()] = row.Predicted[code]
		}
		resp.Rows = append(resp.Rows, out)
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
