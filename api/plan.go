/*
plan.go - Live plan handlers

PURPOSE:
  The editable table surface of a session: selection, scenario
  parameters, cell edits, row insert/delete, manual save and sync state.
  Every successful edit schedules a debounced autosave.

ENDPOINTS:
    GET    /api/plan                              Selection, variants, row counts, sync
    PUT    /api/plan/selection                    Switch scenario key and/or variant
    PUT    /api/plan/parameters/{key}             Replace parameters of a scenario key
    GET    /api/plan/tables/{table}               Rows of the active table
    PUT    /api/plan/tables/{table}/cells         Set one cell
    POST   /api/plan/tables/{table}/rows          Append an empty row
    DELETE /api/plan/tables/{table}/rows/{index}  Delete one row
    POST   /api/plan/save                         Save now
    GET    /api/plan/sync                         Pending changes and sync state

SEE ALSO:
  - session/session.go: Editing operations and autosave
*/
package api

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/warp/scaleup-planner/plan"
)

// GetPlan describes the live plan.
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	s := h.session(r)

	dto := PlanDTO{
		OrgKey:        s.OrgKey(),
		Configuration: s.Name(),
		Seeded:        s.Seeded(),
		LoadMessage:   s.LoadMessage(),
	}
	s.View(func(p *plan.Plan) {
		dto.ScenarioKey = p.ScenarioKey
		dto.Variant = p.Variant
		dto.Variants = p.VariantNames()
		dto.Parameters = make(map[plan.ScenarioKey]plan.ScenarioParameters, len(p.Parameters))
		for k, v := range p.Parameters {
			dto.Parameters[k] = v
		}
		active := p.Active()
		dto.Tables = make(map[plan.TableKind]int, len(plan.TableKinds))
		for _, k := range plan.TableKinds {
			dto.Tables[k] = active.Len(k)
		}
	})
	sort.Strings(dto.Variants)
	dto.PendingChanges = s.PendingChanges()
	dto.Sync = s.SyncStatus()

	writeJSON(w, http.StatusOK, dto)
}

// SelectScenario switches the active selection.
func (h *Handler) SelectScenario(w http.ResponseWriter, r *http.Request) {
	var req SelectionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s := h.session(r)
	key := req.ScenarioKey
	if key == "" {
		s.View(func(p *plan.Plan) { key = p.ScenarioKey })
	}
	if err := s.SelectScenario(key, req.Variant); err != nil {
		writeError(w, statusFor(err), "Failed to select scenario", err)
		return
	}
	h.GetPlan(w, r)
}

// SetParameters replaces the parameters of one scenario key.
func (h *Handler) SetParameters(w http.ResponseWriter, r *http.Request) {
	var params plan.ScenarioParameters
	if !decodeBody(w, r, &params) {
		return
	}

	key := plan.ScenarioKey(chi.URLParam(r, "key"))
	if err := h.session(r).SetParameters(key, params); err != nil {
		writeError(w, statusFor(err), "Failed to set parameters", err)
		return
	}
	writeJSON(w, http.StatusOK, params)
}

// GetTable returns the rows of one table of the active selection.
func (h *Handler) GetTable(w http.ResponseWriter, r *http.Request) {
	kind, ok := tableParam(w, r)
	if !ok {
		return
	}

	dto := TableDTO{Table: kind, Columns: plan.Columns(kind)}
	h.session(r).View(func(p *plan.Plan) {
		dto.Rows = p.Active().Rows(kind)
	})
	writeJSON(w, http.StatusOK, dto)
}

// SetCell writes one cell of the active table.
func (h *Handler) SetCell(w http.ResponseWriter, r *http.Request) {
	kind, ok := tableParam(w, r)
	if !ok {
		return
	}
	var req CellChangeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	row, err := h.session(r).OnCellChange(kind, req.Row, req.Column, req.Value)
	if err != nil {
		writeError(w, statusFor(err), "Failed to set cell", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"row": req.Row, "values": row})
}

// AddRow appends an empty row to the active table.
func (h *Handler) AddRow(w http.ResponseWriter, r *http.Request) {
	kind, ok := tableParam(w, r)
	if !ok {
		return
	}

	index, err := h.session(r).OnAddRow(kind)
	if err != nil {
		writeError(w, statusFor(err), "Failed to add row", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"index": index})
}

// DeleteRow removes one row of the active table.
func (h *Handler) DeleteRow(w http.ResponseWriter, r *http.Request) {
	kind, ok := tableParam(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid row index", err)
		return
	}

	if err := h.session(r).OnDeleteRow(kind, index); err != nil {
		writeError(w, statusFor(err), "Failed to delete row", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// SavePlan saves the live plan now. On failure the edits stay pending
// and the next edit or save retries them.
func (h *Handler) SavePlan(w http.ResponseWriter, r *http.Request) {
	s := h.session(r)
	if err := s.Save(r.Context()); err != nil {
		h.logger.Warn("manual save failed",
			zap.String("org", s.OrgKey()), zap.String("configuration", s.Name()), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable,
			fmt.Sprintf("Save failed; %d changes kept", s.PendingChanges()), err)
		return
	}
	writeJSON(w, http.StatusOK, SyncDTO{PendingChanges: s.PendingChanges(), Sync: s.SyncStatus()})
}

// GetSync returns pending changes and the autosave state.
func (h *Handler) GetSync(w http.ResponseWriter, r *http.Request) {
	s := h.session(r)
	writeJSON(w, http.StatusOK, SyncDTO{PendingChanges: s.PendingChanges(), Sync: s.SyncStatus()})
}

func tableParam(w http.ResponseWriter, r *http.Request) (plan.TableKind, bool) {
	kind, err := plan.ParseTableKind(chi.URLParam(r, "table"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown table", err)
		return "", false
	}
	return kind, true
}
