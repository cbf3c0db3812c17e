package api

import (
	"net/http"
)

// NewRouter wires all routes onto a standard library mux.
func NewRouter(handler *Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", handler.Healthz)
	mux.HandleFunc("POST /v1/sessions", handler.CreateSession)
	mux.HandleFunc("GET /v1/sessions", handler.ListSessions)
	mux.HandleFunc("GET /v1/sessions/{id}", handler.GetSession)
	mux.HandleFunc("DELETE /v1/sessions/{id}", handler.DeleteSession)
	mux.HandleFunc("GET /v1/sessions/{id}/transcript", handler.GetTranscript)
	mux.HandleFunc("POST /v1/analyze", handler.Analyze)
	mux.HandleFunc("POST /v1/chat", handler.Chat)
	mux.HandleFunc("POST /v1/stt", handler.STT)
	mux.HandleFunc("POST /v1/tts", handler.TTS)

	return mux
}
