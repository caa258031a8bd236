package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/tmessner/mailminder/internal/google"
	"github.com/tmessner/mailminder/internal/logging"
	"github.com/tmessner/mailminder/internal/mail"
)

// defaultFetchCount is how many messages a fetch pulls when the request
// does not say.
const defaultFetchCount = 20

// errLiveUnavailable is returned when a live-mode route is hit and no
// live source can be built.
var errLiveUnavailable = errors.New("live mail source is not configured")

// DraftPusher is implemented by mail sources that can store a draft in
// the provider mailbox.
type DraftPusher interface {
	CreateDraft(ctx context.Context, to, subject, body string) (string, error)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, envelope{
		"status":    "healthy",
		"service":   ServiceName,
		"version":   ServiceVersion,
		"mock_mode": s.liveFn == nil,
	})
}

func (s *Server) handleLoadMock(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.agent.Ingest(r.Context(), s.mock, defaultFetchCount)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"emails":  msgs,
		"count":   len(msgs),
		"message": fmt.Sprintf("Successfully loaded %d mock emails", len(msgs)),
	})
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	src, err := s.liveSource(r.Context())
	if err != nil {
		if errors.Is(err, google.ErrNotConfigured) || errors.Is(err, errLiveUnavailable) {
			writeError(w, http.StatusBadRequest,
				"Gmail credentials not found. Please set up credentials.json or use mock data.")
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Gmail setup error: %s", err))
		return
	}

	max := defaultFetchCount
	if raw := r.URL.Query().Get("max_results"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			max = n
		}
	}

	msgs, err := s.agent.Ingest(r.Context(), src, max)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"emails": msgs,
		"count":  len(msgs),
	})
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	if len(s.agent.Store().GetMessages()) == 0 {
		writeError(w, http.StatusBadRequest,
			"No emails to process. Load mock inbox or fetch from Gmail first.")
		return
	}
	msgs, err := s.agent.ProcessAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"emails":    msgs,
		"processed": len(msgs),
		"total":     len(msgs),
	})
}

func (s *Server) handleGetEmails(w http.ResponseWriter, _ *http.Request) {
	msgs := s.agent.Store().GetMessages()
	writeJSON(w, http.StatusOK, envelope{
		"emails": msgs,
		"count":  len(msgs),
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email   *mail.Message `json:"email"`
		Query   string        `json:"query"`
		History string        `json:"history"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == nil || req.Query == "" {
		writeError(w, http.StatusBadRequest, "Email and query are required")
		return
	}

	response := s.agent.Chat(r.Context(), *req.Email, req.Query, req.History)
	writeJSON(w, http.StatusOK, envelope{"response": response})
}

func (s *Server) handleGenerateDraft(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email *mail.Message `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == nil {
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	}

	draft, err := s.agent.GenerateDraft(r.Context(), *req.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Optionally mirror the draft into the provider mailbox when the
	// live source supports it.
	if r.URL.Query().Get("push") == "true" {
		if src, err := s.liveSource(r.Context()); err == nil {
			if pusher, ok := src.(DraftPusher); ok {
				if _, err := pusher.CreateDraft(r.Context(), draft.To, draft.Subject, draft.Body); err != nil {
					s.logger.Warn("failed to push draft to mailbox",
						logging.Operation("draft_generate"), logging.Err(err))
				}
			}
		}
	}

	writeJSON(w, http.StatusOK, envelope{"draft": draft})
}

func (s *Server) handleGetDrafts(w http.ResponseWriter, _ *http.Request) {
	drafts := s.agent.Store().GetDrafts()
	writeJSON(w, http.StatusOK, envelope{
		"drafts": drafts,
		"count":  len(drafts),
	})
}

func (s *Server) handleDeleteDraft(w http.ResponseWriter, r *http.Request) {
	if err := s.agent.Store().DeleteDraft(r.PathValue("id")); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "Draft deleted"})
}

func (s *Server) handleGetPrompts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, envelope{"prompts": s.agent.Store().GetPromptSet()})
}

func (s *Server) handleUpdatePrompts(w http.ResponseWriter, r *http.Request) {
	var partial mail.PromptSet
	if err := decodeJSON(r, &partial); err != nil {
		writeError(w, http.StatusBadRequest, "Prompt data is required")
		return
	}
	if partial == (mail.PromptSet{}) {
		writeError(w, http.StatusBadRequest, "Prompt data is required")
		return
	}

	prompts, err := s.agent.Store().UpdatePromptSet(partial)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"prompts": prompts,
		"message": "Prompts updated. Process emails again to see changes.",
	})
}

func (s *Server) handleResetPrompts(w http.ResponseWriter, _ *http.Request) {
	prompts, err := s.agent.Store().ResetPromptSet()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"prompts": prompts,
		"message": "Prompts reset to default values",
	})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, envelope{"stats": s.agent.Store().Stats()})
}
