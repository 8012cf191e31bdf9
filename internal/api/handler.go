package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/julienschmidt/httprouter"
	pvcarbon "github.com/superdango/pv-carbon"
	"github.com/superdango/pv-carbon/model/construction"
)

const maxRequestBytes = 1 << 20

// Handler exposes the engine over HTTP.
type Handler struct {
	engine *Engine
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

func (h *Handler) Register(router *httprouter.Router) {
	router.POST("/calculate", h.calculate)
	router.GET("/factors/materials", h.materialFactors)
	router.GET("/factors/transport", h.transportFactors)
	router.GET("/factors/equipment", h.equipment)
	router.GET("/healthz", h.healthz)
}

func traceAttr(r *http.Request) slog.Attr {
	if traceID := r.Header.Get("X-Cloud-Trace-Context"); traceID != "" {
		return slog.String("logging.googleapis.com/trace", traceID)
	}
	return slog.Attr{}
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, pvcarbon.ErrInvalidInput), errors.Is(err, pvcarbon.ErrInvalidLocation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to encode response", "err", err.Error())
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusCode(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "path", r.URL.Path, "err", err.Error(), traceAttr(r))
	} else {
		slog.Warn("request rejected", "path", r.URL.Path, "err", err.Error(), traceAttr(r))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (h *Handler) calculate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req := Request{}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		writeError(w, r, fmt.Errorf("%w: malformed request body: %s", pvcarbon.ErrInvalidInput, err))
		return
	}

	report, err := h.engine.Calculate(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if r.URL.Query().Get("format") == "openmetrics" {
		w.Header().Set("Content-Type", "application/openmetrics-text; version=1.0.0; charset=utf-8")
		if err := pvcarbon.WriteOpenMetrics(w, report.Metrics()); err != nil {
			slog.Error("failed to write metrics", "err", err.Error(), traceAttr(r))
		}
		return
	}

	writeJSON(w, http.StatusOK, report)
}

type factorJSON struct {
	Key       string  `json:"key"`
	Label     string  `json:"label"`
	Value     float64 `json:"value"`
	Unit      string  `json:"unit"`
	Source    string  `json:"source"`
	Year      int     `json:"year"`
	Region    string  `json:"region"`
	Notes     string  `json:"notes,omitempty"`
	Populated bool    `json:"populated"`
}

func factorsJSON(table pvcarbon.FactorTable) []factorJSON {
	factors := make([]factorJSON, 0, len(table.Factors))
	for _, key := range table.Keys() {
		factor := table.Factors[key]
		factors = append(factors, factorJSON{
			Key:       key,
			Label:     table.Label(key),
			Value:     factor.Value,
			Unit:      string(factor.Unit),
			Source:    factor.Source,
			Year:      factor.Year,
			Region:    factor.Region,
			Notes:     factor.Notes,
			Populated: factor.Value > 0,
		})
	}
	return factors
}

func (h *Handler) materialFactors(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	table, err := h.engine.MaterialDatabase(r.URL.Query().Get("database"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"database":  table.Name,
		"databases": h.engine.MaterialDatabaseNames(),
		"factors":   factorsJSON(table),
	})
}

func (h *Handler) transportFactors(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	table := h.engine.TransportModes()
	writeJSON(w, http.StatusOK, map[string]any{
		"table":   table.Name,
		"factors": factorsJSON(table),
	})
}

type equipmentJSON struct {
	EquipmentType     string  `json:"equipment_type"`
	Fuel              string  `json:"fuel"`
	ConsumptionLPerH  float64 `json:"consumption_l_per_h"`
	Description       string  `json:"description"`
	ConsumptionSource string  `json:"consumption_source"`
}

func (h *Handler) equipment(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	catalogue := construction.EquipmentCatalogue()
	equipment := make([]equipmentJSON, len(catalogue))
	for i, e := range catalogue {
		equipment[i] = equipmentJSON{
			EquipmentType:     e.Type,
			Fuel:              e.Fuel,
			ConsumptionLPerH:  e.ConsumptionLPerH,
			Description:       e.Description,
			ConsumptionSource: e.ConsumptionSource,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"equipment": equipment})
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
