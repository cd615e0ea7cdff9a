package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/mogaika/wows_replay_parser/analyzer"
	"github.com/mogaika/wows_replay_parser/replay"
	"github.com/mogaika/wows_replay_parser/utils"
	"github.com/mogaika/wows_replay_parser/webutils"
)

type analyzeResponse struct {
	ID string `json:"id"`
	*analyzer.Summary
}

func (s *Server) HandlerAnalyze(w http.ResponseWriter, r *http.Request) {
	data, err := webutils.ReadFormFile(w, r, UploadField, s.UploadLimit)
	if err != nil {
		webutils.WriteError(w, http.StatusBadRequest, err)
		return
	}
	name := "upload"
	if _, hdr, err := r.FormFile(UploadField); err == nil {
		name = hdr.Filename
	}

	start := time.Now()
	rep, err := replay.Parse(data, s.Specs, s.log.With().Str("replay", name).Logger())
	if err != nil {
		s.Hub.Error("Failed to parse %s: %v", name, err)
		webutils.WriteError(w, http.StatusUnprocessableEntity, errors.Wrapf(err, "Failed to parse replay"))
		return
	}
	summary, err := analyzer.Analyze(rep, s.Decoder, s.log)
	if err != nil {
		s.Hub.Error("Failed to analyze %s: %v", name, err)
		webutils.WriteError(w, http.StatusUnprocessableEntity, errors.Wrapf(err, "Failed to analyze replay"))
		return
	}

	id := s.store(&upload{name: name, replay: rep, summary: summary, created: time.Now()})
	s.Hub.Info("Analyzed %s in %v", name, time.Since(start).Round(time.Millisecond))
	webutils.WriteJson(w, &analyzeResponse{ID: id.String(), Summary: summary})
}

func (s *Server) HandlerMeta(w http.ResponseWriter, r *http.Request) {
	u, ok := s.lookup(r)
	if !ok {
		webutils.WriteError(w, http.StatusNotFound, errors.Errorf("Unknown replay id %q", r.URL.Path))
		return
	}
	webutils.WriteJson(w, &u.replay.Meta)
}

func (s *Server) HandlerDump(w http.ResponseWriter, r *http.Request) {
	u, ok := s.lookup(r)
	if !ok {
		webutils.WriteError(w, http.StatusNotFound, errors.Errorf("Unknown replay id %q", r.URL.Path))
		return
	}
	if r.URL.Query().Get("download") != "" {
		webutils.WriteFile(w, strings.NewReader(utils.SDump(u.replay.Packets)), u.name+".txt")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	utils.FDump(w, u.replay.Packets)
}
