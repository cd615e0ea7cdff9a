package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/mogaika/wows_replay_parser/analyzer"
	"github.com/mogaika/wows_replay_parser/replay"
	"github.com/mogaika/wows_replay_parser/status"
)

const UploadField = "replay"

type upload struct {
	name    string
	replay  *replay.Replay
	summary *analyzer.Summary
	created time.Time
}

type Server struct {
	Specs       replay.SchemaSource
	Decoder     analyzer.BlobDecoder
	Hub         *status.Hub
	UploadLimit int64

	log     zerolog.Logger
	mu      sync.Mutex
	uploads map[uuid.UUID]*upload
}

func NewServer(specs replay.SchemaSource, decoder analyzer.BlobDecoder, uploadLimitMB int, log zerolog.Logger) *Server {
	return &Server{
		Specs:       specs,
		Decoder:     decoder,
		Hub:         status.NewHub(log.With().Str("component", "status").Logger()),
		UploadLimit: int64(uploadLimitMB) << 20,
		log:         log,
		uploads:     make(map[uuid.UUID]*upload),
	}
}

func (s *Server) store(u *upload) uuid.UUID {
	id := uuid.New()
	s.mu.Lock()
	s.uploads[id] = u
	s.mu.Unlock()
	return id
}

func (s *Server) lookup(r *http.Request) (*upload, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.uploads[id]
	return u, ok
}

type recoveryLogger struct{ log zerolog.Logger }

func (l recoveryLogger) Println(a ...interface{}) {
	l.log.Error().Interface("panic", a).Msg("Recovered from panic in handler")
}

func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/json/analyze", s.HandlerAnalyze).Methods(http.MethodPost)
	r.HandleFunc("/json/meta/{id}", s.HandlerMeta).Methods(http.MethodGet)
	r.HandleFunc("/dump/{id}", s.HandlerDump).Methods(http.MethodGet)
	r.Handle("/ws/status", s.Hub)

	h := handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{s.log}))(r)
	return handlers.LoggingHandler(s.log, h)
}

func (s *Server) ListenAndServe(addr string) error {
	s.log.Info().Str("addr", addr).Msg("Starting server")
	return http.ListenAndServe(addr, s.Router())
}
