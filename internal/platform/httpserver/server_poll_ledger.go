package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	pollledgererrors "pollchain/contexts/governance/poll-ledger/domain/errors"
	pollledgerhttp "pollchain/contexts/governance/poll-ledger/transport/http"
)

func writePollLedgerError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, pollledgerhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// writePollLedgerDomainError maps the transition failure taxonomy to HTTP.
// ALREADY_VOTED stays distinct from ACCOUNT_ALREADY_EXISTS so clients can
// say "you already voted" instead of a generic conflict.
func writePollLedgerDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pollledgererrors.ErrInvalidInput):
		writePollLedgerError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
	case errors.Is(err, pollledgererrors.ErrInvalidTimeWindow):
		writePollLedgerError(w, http.StatusBadRequest, "INVALID_TIME_WINDOW", err.Error())
	case errors.Is(err, pollledgererrors.ErrPollNotFound):
		writePollLedgerError(w, http.StatusNotFound, "POLL_NOT_FOUND", err.Error())
	case errors.Is(err, pollledgererrors.ErrCandidateNotFound):
		writePollLedgerError(w, http.StatusNotFound, "CANDIDATE_NOT_FOUND", err.Error())
	case errors.Is(err, pollledgererrors.ErrAccountNotFound):
		writePollLedgerError(w, http.StatusNotFound, "ACCOUNT_NOT_FOUND", err.Error())
	case errors.Is(err, pollledgererrors.ErrAlreadyVoted):
		writePollLedgerError(w, http.StatusConflict, "ALREADY_VOTED", err.Error())
	case errors.Is(err, pollledgererrors.ErrAccountExists):
		writePollLedgerError(w, http.StatusConflict, "ACCOUNT_ALREADY_EXISTS", err.Error())
	case errors.Is(err, pollledgererrors.ErrPollNotActive):
		writePollLedgerError(w, http.StatusUnprocessableEntity, "POLL_NOT_ACTIVE", err.Error())
	case errors.Is(err, pollledgererrors.ErrUnauthorized):
		writePollLedgerError(w, http.StatusForbidden, "UNAUTHORIZED", err.Error())
	default:
		writePollLedgerError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

func requirePollLedgerUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writePollLedgerError(w, http.StatusUnauthorized, "USER_REQUIRED", "X-User-Id header is required")
		return "", false
	}
	return userID, true
}

func pollIDFromPath(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	pollID, err := strconv.ParseUint(r.PathValue("poll_id"), 10, 64)
	if err != nil {
		writePollLedgerError(w, http.StatusBadRequest, "INVALID_POLL_ID", "poll_id must be an unsigned integer")
		return 0, false
	}
	return pollID, true
}

func (s *Server) handleCreatePoll(w http.ResponseWriter, r *http.Request) {
	creator, ok := requirePollLedgerUser(w, r)
	if !ok {
		return
	}
	var req pollledgerhttp.CreatePollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writePollLedgerError(w, http.StatusBadRequest, "INVALID_JSON", "request body must be valid JSON")
		return
	}
	resp, err := s.pollLedger.Handler.CreatePollHandler(r.Context(), creator, req)
	if err != nil {
		writePollLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetPoll(w http.ResponseWriter, r *http.Request) {
	pollID, ok := pollIDFromPath(w, r)
	if !ok {
		return
	}
	resp, err := s.pollLedger.Handler.GetPollHandler(r.Context(), pollID)
	if err != nil {
		writePollLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAddCandidate(w http.ResponseWriter, r *http.Request) {
	creator, ok := requirePollLedgerUser(w, r)
	if !ok {
		return
	}
	pollID, ok := pollIDFromPath(w, r)
	if !ok {
		return
	}
	var req pollledgerhttp.AddCandidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writePollLedgerError(w, http.StatusBadRequest, "INVALID_JSON", "request body must be valid JSON")
		return
	}
	resp, err := s.pollLedger.Handler.AddCandidateHandler(r.Context(), creator, pollID, req)
	if err != nil {
		writePollLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetCandidate(w http.ResponseWriter, r *http.Request) {
	pollID, ok := pollIDFromPath(w, r)
	if !ok {
		return
	}
	resp, err := s.pollLedger.Handler.GetCandidateHandler(r.Context(), pollID, r.PathValue("name"))
	if err != nil {
		writePollLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	voter, ok := requirePollLedgerUser(w, r)
	if !ok {
		return
	}
	pollID, ok := pollIDFromPath(w, r)
	if !ok {
		return
	}
	var req pollledgerhttp.CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writePollLedgerError(w, http.StatusBadRequest, "INVALID_JSON", "request body must be valid JSON")
		return
	}
	resp, err := s.pollLedger.Handler.CastVoteHandler(r.Context(), voter, pollID, req)
	if err != nil {
		writePollLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetResults(w http.ResponseWriter, r *http.Request) {
	pollID, ok := pollIDFromPath(w, r)
	if !ok {
		return
	}
	resp, err := s.pollLedger.Handler.ResultsHandler(r.Context(), pollID)
	if err != nil {
		writePollLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHasVoted(w http.ResponseWriter, r *http.Request) {
	pollID, ok := pollIDFromPath(w, r)
	if !ok {
		return
	}
	resp, err := s.pollLedger.Handler.HasVotedHandler(r.Context(), pollID, r.PathValue("voter"))
	if err != nil {
		writePollLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
