package api

import (
	"net/http"

	"bistrobytes/internal/metrics"
	"bistrobytes/internal/models"
)

func (s *HTTPServer) handleAdminLeads(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("admin_leads")

	leads, err := s.leads.ListLeads(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("list leads failed")
		writeFailure(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if leads == nil {
		leads = []*models.Lead{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"leads": leads})
}

func (s *HTTPServer) handleAdminLeadsExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("admin_leads_export")

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="leads.xlsx"`)

	if err := s.leads.ExportLeads(r.Context(), w); err != nil {
		s.logger.Error().Err(err).Msg("export leads failed")
		// Headers are already written; nothing more to say to the client.
	}
}
