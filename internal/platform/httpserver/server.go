package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	pollledger "pollchain/contexts/governance/poll-ledger"

	"github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "pollchain/internal/platform/httpserver/docs"
)

type Server struct {
	mux        *http.ServeMux
	handler    http.Handler
	logger     *slog.Logger
	addr       string
	pollLedger pollledger.Module
}

func New(
	pollLedgerModule pollledger.Module,
	logger *slog.Logger,
	addr string,
	enableCORS bool,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:        http.NewServeMux(),
		logger:     logger,
		addr:       addr,
		pollLedger: pollLedgerModule,
	}
	s.registerRoutes()

	s.handler = s.mux
	if enableCORS {
		s.handler = cors.Default().Handler(s.mux)
	}
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.handler)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /v1/polls", s.handleCreatePoll)
	s.mux.HandleFunc("GET /v1/polls/{poll_id}", s.handleGetPoll)
	s.mux.HandleFunc("POST /v1/polls/{poll_id}/candidates", s.handleAddCandidate)
	s.mux.HandleFunc("GET /v1/polls/{poll_id}/candidates/{name}", s.handleGetCandidate)
	s.mux.HandleFunc("POST /v1/polls/{poll_id}/votes", s.handleCastVote)
	s.mux.HandleFunc("GET /v1/polls/{poll_id}/results", s.handleGetResults)
	s.mux.HandleFunc("GET /v1/polls/{poll_id}/voters/{voter}", s.handleHasVoted)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
