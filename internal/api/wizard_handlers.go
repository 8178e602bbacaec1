package api

import (
	"errors"
	"net/http"
	"strings"

	"bistrobytes/internal/domain"
	"bistrobytes/internal/metrics"
	"bistrobytes/internal/models"
	"bistrobytes/internal/wizard"
)

// handleWizardStart opens a new session.
func (s *HTTPServer) handleWizardStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("wizard")

	session, err := s.wizard.Start(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("wizard start failed")
		writeFailure(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// handleWizardSession serves /wizard/{id} and /wizard/{id}/advance.
func (s *HTTPServer) handleWizardSession(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/wizard/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	metrics.IncHTTP("wizard")

	switch {
	case action == "" && r.Method == http.MethodGet:
		s.wizardGet(w, r, id)
	case action == "" && r.Method == http.MethodDelete:
		s.wizardClose(w, r, id)
	case action == "advance" && r.Method == http.MethodPost:
		s.wizardAdvance(w, r, id)
	case action == "" || action == "advance":
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *HTTPServer) wizardGet(w http.ResponseWriter, r *http.Request, id string) {
	session, err := s.wizard.Get(r.Context(), id)
	if err != nil {
		s.writeWizardError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *HTTPServer) wizardClose(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.wizard.Close(r.Context(), id); err != nil {
		s.logger.Error().Err(err).Str("session_id", id).Msg("wizard close failed")
		writeFailure(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"closed": true})
}

// wizardAdvance interprets the body according to the session's current step.
func (s *HTTPServer) wizardAdvance(w http.ResponseWriter, r *http.Request, id string) {
	current, err := s.wizard.Get(r.Context(), id)
	if err != nil {
		s.writeWizardError(w, err)
		return
	}

	var session *models.WizardSession
	switch current.Step {
	case models.StepStart:
		session, err = s.wizard.Begin(r.Context(), id)
	case models.StepContact:
		var input wizard.ContactInput
		if decodeErr := decodeJSON(r, &input); decodeErr != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		session, err = s.wizard.SubmitContact(r.Context(), id, input)
	case models.StepQuestionnaire:
		var input wizard.QuestionnaireInput
		if decodeErr := decodeJSON(r, &input); decodeErr != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		session, err = s.wizard.SubmitQuestionnaire(r.Context(), id, input)
	case models.StepCalendar:
		var input wizard.CalendarInput
		if decodeErr := decodeJSON(r, &input); decodeErr != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		session, err = s.wizard.SubmitCalendar(r.Context(), id, input)
	default:
		writeError(w, http.StatusBadRequest, "session already completed")
		return
	}

	if err != nil {
		s.writeWizardError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *HTTPServer) writeWizardError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, wizard.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, validationMessage(err))
	default:
		s.logger.Error().Err(err).Msg("wizard request failed")
		writeFailure(w, http.StatusInternalServerError, "internal server error")
	}
}
