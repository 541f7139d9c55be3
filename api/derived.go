/*
derived.go - Metric and report handlers

PURPOSE:
  Read-only views derived from the live plan. Nothing here mutates the
  plan or the store.

ENDPOINTS:
    GET /api/metrics                 Metric bundle for the active selection
    GET /api/report                  Sections, narrative and digest
    GET /api/report/markdown         Report as a markdown download
    GET /api/report/pages            Narrative paginated for print
    GET /api/report/pages/{n}.png    One printable page as PNG

QUERY PARAMETERS:
    scenario_id   Stored scenario whose KPIs and cost data feed the metrics.
                  Without it, KPI and cost inputs are empty.
*/
package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/warp/scaleup-planner/metrics"
	"github.com/warp/scaleup-planner/plan"
	"github.com/warp/scaleup-planner/report"
)

// computeBundle derives metrics for the request's live plan. It writes
// the error response itself and returns false on failure.
func (h *Handler) computeBundle(w http.ResponseWriter, r *http.Request) (metrics.Bundle, bool) {
	ctx := r.Context()

	var kpis []plan.KPI
	var cost *plan.CostData
	if id := strings.TrimSpace(r.URL.Query().Get("scenario_id")); id != "" {
		if !h.scenarioExists(w, r, id) {
			return metrics.Bundle{}, false
		}
		var err error
		if kpis, err = h.Store.ListKPIs(ctx, id); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to list KPIs", err)
			return metrics.Bundle{}, false
		}
		rows, err := h.Store.ListCostData(ctx, id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to list cost data", err)
			return metrics.Bundle{}, false
		}
		cost = plan.FindCostData(rows, id)
	}

	var b metrics.Bundle
	h.session(r).View(func(p *plan.Plan) {
		b = metrics.Compute(metrics.InputFromPlan(p, kpis, cost))
	})
	return b, true
}

func (h *Handler) buildReport(w http.ResponseWriter, r *http.Request) (report.Report, bool) {
	b, ok := h.computeBundle(w, r)
	if !ok {
		return report.Report{}, false
	}
	return report.Synthesize(b, b.Variant, b.ScenarioKey), true
}

// GetMetrics returns the metric bundle.
func (h *Handler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	b, ok := h.computeBundle(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// GetReport returns the synthesized report.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.buildReport(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// GetReportMarkdown returns the report as a markdown attachment.
func (h *Handler) GetReportMarkdown(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.buildReport(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="scale-up-report.md"`)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(report.Markdown(rep)))
}

// GetReportPages returns the paginated narrative.
func (h *Handler) GetReportPages(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.buildReport(w, r)
	if !ok {
		return
	}

	h.renderMu.Lock()
	pages := report.Paginate(rep.Narrative, h.Layout)
	h.renderMu.Unlock()

	writeJSON(w, http.StatusOK, PagesDTO{Total: len(pages), Pages: pages})
}

// GetReportPage renders one page as PNG. Pages are numbered from 1.
func (h *Handler) GetReportPage(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid page number", err)
		return
	}
	rep, ok := h.buildReport(w, r)
	if !ok {
		return
	}

	h.renderMu.Lock()
	defer h.renderMu.Unlock()

	pages := report.Paginate(rep.Narrative, h.Layout)
	if n < 1 || n > len(pages) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Page %d not found", n), nil)
		return
	}
	png, err := report.RenderPage(pages[n-1], h.Layout)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to render page", err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
