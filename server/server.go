package server

import (
	"html/template"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"house-price-pipeline/artifact"
	"house-price-pipeline/utils"
)

// Server serves the prediction form and the predict endpoint. The artifact
// handle is loaded once at startup and shared read-only across requests;
// the server never mutates it.
type Server struct {
	addr     string
	logger   *utils.Logger
	artifact *artifact.Artifact
	router   *mux.Router
	http     *http.Server
	index    *template.Template
	result   *template.Template
}

// New wires the routes around a loaded artifact.
func New(addr string, logger *utils.Logger, art *artifact.Artifact) *Server {
	s := &Server{
		addr:     addr,
		logger:   logger,
		artifact: art,
		index:    template.Must(template.New("index").Parse(indexHTML)),
		result:   template.Must(template.New("result").Parse(resultHTML)),
	}

	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/predict", s.handlePredict).Methods(http.MethodPost)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router = r

	s.http = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start blocks serving HTTP on the configured address.
func (s *Server) Start() error {
	s.logger.Info("[server] Listening on %s (model: %s, trained %s)",
		s.addr, s.artifact.Chosen, s.artifact.CreatedAt.Format("2006-01-02 15:04"))
	return s.http.ListenAndServe()
}
