package server

import "net/http"

// NewRouter wires the chart RPC and ephemeris introspection endpoints
// plus artifact download onto a fresh mux.
func NewRouter(s *Server) (http.Handler, error) {
	mux := http.NewServeMux()
	mux.HandleFunc("/chart", s.handleChart)
	mux.HandleFunc("/ephemeris/validity", s.handleValidity)
	mux.HandleFunc("/artifacts/", s.handleArtifactDownload)
	return mux, nil
}
