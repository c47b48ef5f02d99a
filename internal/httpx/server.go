package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/tokenvet/tokenvet/internal/domain"
	"github.com/tokenvet/tokenvet/internal/store"
)

// Server exposes health, metrics and a small read-only token API.
type Server struct {
	store store.TokenStore
	http  *http.Server
}

// NewServer builds the HTTP listener on addr. reg is the Prometheus
// registry the /metrics endpoint serves.
func NewServer(addr string, st store.TokenStore, reg *prometheus.Registry) *Server {
	s := &Server{store: st}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/tokens/{chain}/{address}", s.handleToken).Methods(http.MethodGet)
	api.HandleFunc("/tokens/{chain}/{address}/vetting", s.handleVetting).Methods(http.MethodGet)
	api.HandleFunc("/tokens/{chain}/{address}/snapshot", s.handleSnapshot).Methods(http.MethodGet)

	s.http = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	return s
}

// ListenAndServe blocks until the listener fails or Shutdown is
// called.
func (s *Server) ListenAndServe() error {
	log.Info().Str("addr", s.http.Addr).Msg("http listener started")
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	chain, address, ok := tokenVars(w, r)
	if !ok {
		return
	}
	rec, err := s.store.FindByAddress(r.Context(), chain, address)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, errNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleVetting(w http.ResponseWriter, r *http.Request) {
	chain, address, ok := tokenVars(w, r)
	if !ok {
		return
	}
	res, err := s.store.LatestVettingResults(r.Context(), chain, address)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if res == nil {
		writeError(w, http.StatusNotFound, errNotFound)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	chain, address, ok := tokenVars(w, r)
	if !ok {
		return
	}
	snap, err := s.store.LatestSnapshot(r.Context(), chain, address)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if snap == nil {
		writeError(w, http.StatusNotFound, errNotFound)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type apiError struct {
	Error string `json:"error"`
}

var errNotFound = &notFoundError{}

type notFoundError struct{}

func (*notFoundError) Error() string { return "not found" }

func tokenVars(w http.ResponseWriter, r *http.Request) (domain.Chain, string, bool) {
	vars := mux.Vars(r)
	chain, ok := domain.ParseChain(vars["chain"])
	if !ok {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "unknown chain"})
		return "", "", false
	}
	if v := domain.ValidatorFor(chain); !v.Valid(vars["address"]) {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid address for chain"})
		return "", "", false
	}
	return chain, vars["address"], true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("response not written")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, apiError{Error: err.Error()})
}
