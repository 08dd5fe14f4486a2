// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wikilinks/wikipath"
)

// Server answers shortest-path queries over a DatabaseSet kept current
// by the background reload loop started in main.
type Server struct {
	databases *DatabaseSet
	requests  *prometheus.CounterVec
}

func NewServer(databases *DatabaseSet, reg prometheus.Registerer) *Server {
	s := &Server{
		databases: databases,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wikipath",
			Subsystem: "serve",
			Name:      "requests_total",
			Help:      "Number of /api/v1/shortest-paths requests, by outcome.",
		}, []string{"outcome"}),
	}
	if reg != nil {
		_ = reg.Register(s.requests)
	}
	return s
}

// HandleShortestPaths implements GET
// /api/v1/shortest-paths?lang=&source=&target=, returning a JSON-encoded
// wikipath.Paths on success.
func (s *Server) HandleShortestPaths(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lang := q.Get("lang")
	source, errSrc := strconv.ParseUint(q.Get("source"), 10, 32)
	target, errDst := strconv.ParseUint(q.Get("target"), 10, 32)
	if lang == "" || errSrc != nil || errDst != nil {
		s.requests.WithLabelValues("bad_request").Inc()
		http.Error(w, "source, target, and lang are required query parameters", http.StatusBadRequest)
		return
	}

	db, err := s.databases.Get(lang)
	if err != nil {
		s.requests.WithLabelValues("not_found").Inc()
		http.NotFound(w, r)
		return
	}

	paths, err := db.GetShortestPaths(wikipath.PageId(source), wikipath.PageId(target))
	if err != nil {
		if errors.Is(err, wikipath.ErrNotFound) {
			s.requests.WithLabelValues("not_found").Inc()
			http.NotFound(w, r)
			return
		}
		s.requests.WithLabelValues("error").Inc()
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.requests.WithLabelValues("ok").Inc()
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if err := json.NewEncoder(w).Encode(paths); err != nil {
		// Headers are already sent at this point; nothing left to do but
		// note it happened.
		s.requests.WithLabelValues("encode_error").Inc()
	}
}

func (s *Server) HandleRobotsTxt(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("User-Agent: *\nAllow: /\n"))
}
