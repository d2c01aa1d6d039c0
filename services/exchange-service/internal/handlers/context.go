package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/metabridge-io/metabridge/services/exchange-service/internal/contextbuilder"
	"github.com/metabridge-io/metabridge/services/exchange-service/internal/repository"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

type ContextHandler struct {
	builder *contextbuilder.Builder
	logger  *slog.Logger
}

func NewContextHandler(builder *contextbuilder.Builder, logger *slog.Logger) *ContextHandler {
	return &ContextHandler{builder: builder, logger: logger}
}

func (h *ContextHandler) TableContext(w http.ResponseWriter, r *http.Request) {
	guid := r.PathValue("guid")
	if guid == "" {
		http.Error(w, "missing table guid", http.StatusBadRequest)
		return
	}

	result, err := h.builder.TableContext(r.Context(), guid)
	if err != nil {
		h.writeError(w, guid, err)
		return
	}
	writeJSON(w, result)
}

func (h *ContextHandler) TableColumns(w http.ResponseWriter, r *http.Request) {
	guid := r.PathValue("guid")
	if guid == "" {
		http.Error(w, "missing table guid", http.StatusBadRequest)
		return
	}
	start, size := pageParams(r)

	columns, err := h.builder.TableColumns(r.Context(), guid, start, size)
	if err != nil {
		h.writeError(w, guid, err)
		return
	}
	writeJSON(w, map[string]any{
		"tableGuid": guid,
		"startFrom": start,
		"pageSize":  size,
		"columns":   columns,
	})
}

func (h *ContextHandler) SchemaTables(w http.ResponseWriter, r *http.Request) {
	guid := r.PathValue("guid")
	if guid == "" {
		http.Error(w, "missing schema guid", http.StatusBadRequest)
		return
	}
	start, size := pageParams(r)

	tables, err := h.builder.SchemaTables(r.Context(), guid, start, size)
	if err != nil {
		h.writeError(w, guid, err)
		return
	}
	writeJSON(w, map[string]any{
		"schemaGuid": guid,
		"startFrom":  start,
		"pageSize":   size,
		"tables":     tables,
	})
}

func (h *ContextHandler) writeError(w http.ResponseWriter, guid string, err error) {
	var hopErr *contextbuilder.HopError
	switch {
	case errors.As(err, &hopErr):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error":             "context hop failed",
			"entity_guid":       hopErr.EntityGUID,
			"relationship_type": hopErr.RelationshipType,
			"detail":            hopErr.Error(),
		})
	case errors.Is(err, repository.ErrNotFound):
		http.Error(w, "entity not found", http.StatusNotFound)
	case errors.Is(err, repository.ErrProxyOnly):
		http.Error(w, "entity is stored as a proxy only", http.StatusConflict)
	case errors.Is(err, repository.ErrUnauthorized):
		http.Error(w, "not authorized", http.StatusForbidden)
	default:
		h.logger.Error("context query failed", "guid", guid, "err", err)
		http.Error(w, "context query failed", http.StatusInternalServerError)
	}
}

func pageParams(r *http.Request) (start, size int) {
	start, _ = strconv.Atoi(r.URL.Query().Get("start"))
	if start < 0 {
		start = 0
	}
	size, _ = strconv.Atoi(r.URL.Query().Get("size"))
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return start, size
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
