package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"fintrack/internal/commit"
	applog "fintrack/internal/log"
	"fintrack/internal/session"
	"fintrack/internal/wizard"
)

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", "BAD_REQUEST")
		return
	}

	mode := wizard.Mode(req.Mode)
	if mode != wizard.ModeSplit && mode != wizard.ModeShare {
		writeError(w, http.StatusBadRequest, "mode must be SPLIT or SHARE", "BAD_REQUEST")
		return
	}

	txn, err := req.Transaction.toDomain()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
		return
	}

	sess := s.sessions.Create(txn, mode)

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Session opened",
		applog.FieldSessionID, sess.ID,
		applog.FieldTransactionID, txn.ID,
		"mode", string(mode))

	writeJSON(w, http.StatusCreated, viewOf(sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", "BAD_REQUEST")
		return
	}

	cmd, err := req.toCommand()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
		return
	}

	if err := sess.Wizard.Apply(cmd); err != nil {
		writeWizardError(w, err)
		return
	}
	s.sessions.Touch(sess)

	writeJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	if err := sess.Wizard.Apply(wizard.RequestReview{}); err != nil {
		writeWizardError(w, err)
		return
	}
	s.sessions.Touch(sess)

	writeJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	if err := sess.Wizard.Apply(wizard.Back{}); err != nil {
		writeWizardError(w, err)
		return
	}
	s.sessions.Touch(sess)

	writeJSON(w, http.StatusOK, viewOf(sess))
}

// handleConfirm commits the reviewed plan. On success the session is gone. A
// failure before anything was written keeps the session open so the user can
// retry or go back. A partial split also closes the session: the parent is
// already reduced and the journal worker owns the retry, so confirming again
// would run both phases a second time and duplicate the children.
func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	switch sess.Wizard.Mode() {
	case wizard.ModeSplit:
		plan, err := sess.Wizard.SplitPlan()
		if err != nil {
			writeWizardError(w, err)
			return
		}
		res, err := s.orchestrator.CommitSplit(r.Context(), plan)
		if err != nil {
			if errors.Is(err, commit.ErrChildrenNotCreated) {
				s.sessions.Delete(sess.ID)
			}
			writeCommitError(w, err)
			return
		}
		s.sessions.Delete(sess.ID)

		children := make([]transactionWire, len(res.Children))
		for i, c := range res.Children {
			children[i] = fromDomain(c)
		}
		parent := fromDomain(res.Parent)
		writeJSON(w, http.StatusOK, confirmResponse{Parent: &parent, Children: children})

	case wizard.ModeShare:
		plan, err := sess.Wizard.SharePlan()
		if err != nil {
			writeWizardError(w, err)
			return
		}
		res, err := s.orchestrator.CommitShare(r.Context(), plan)
		if err != nil {
			writeCommitError(w, err)
			return
		}
		s.sessions.Delete(sess.ID)

		updated := fromDomain(res.Transaction)
		writeJSON(w, http.StatusOK, confirmResponse{Updated: &updated})
	}
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.sessions.Delete(sess.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := r.PathValue("id")
	sess, ok := s.sessions.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found or expired", "SESSION_NOT_FOUND")
		return nil, false
	}
	return sess, true
}

// writeWizardError maps wizard rejections to stable error codes. They are all
// conflicts with the session's current state, not malformed requests.
func writeWizardError(w http.ResponseWriter, err error) {
	code := "WIZARD_ERROR"
	switch {
	case errors.Is(err, wizard.ErrWrongMode):
		code = "WRONG_MODE"
	case errors.Is(err, wizard.ErrWrongStep):
		code = "WRONG_STEP"
	case errors.Is(err, wizard.ErrEntryIncomplete):
		code = "ENTRY_INCOMPLETE"
	case errors.Is(err, wizard.ErrOverAllocated):
		code = "OVER_ALLOCATED"
	}
	writeError(w, http.StatusConflict, err.Error(), code)
}

func writeCommitError(w http.ResponseWriter, err error) {
	if errors.Is(err, commit.ErrChildrenNotCreated) {
		// The parent is already reduced; the journal worker will retry the
		// children. The session is closed by then, so the client cannot
		// re-submit the split.
		writeError(w, http.StatusBadGateway, err.Error(), "PARTIAL_SPLIT")
		return
	}
	writeError(w, http.StatusBadGateway, err.Error(), "STORE_ERROR")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg, code string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}
