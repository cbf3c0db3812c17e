package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/speak2fill/speak2fill/internal/catalog"
	"github.com/speak2fill/speak2fill/internal/form"
	"github.com/speak2fill/speak2fill/internal/speech"
	"github.com/speak2fill/speak2fill/internal/store"
	"github.com/speak2fill/speak2fill/internal/turn"
)

// maxAudioBytes bounds uploaded audio size.
const maxAudioBytes = 10 << 20

// Handler carries the dependencies for all HTTP routes.
// Speech and Catalog are optional; their routes 503 when nil.
type Handler struct {
	Store   *store.Store
	Service *turn.Service
	Speech  speech.Client
	Catalog catalog.Builder
	Logger  *slog.Logger
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Healthz reports liveness.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createSessionRequest struct {
	Fields      []form.FormField `json:"fields"`
	ImageWidth  int              `json:"image_width"`
	ImageHeight int              `json:"image_height"`
}

type sessionReply struct {
	Session       *form.Session         `json:"session"`
	AssistantText string                `json:"assistant_text"`
	Action        *turn.DrawGuideAction `json:"action"`
}

// CreateSession creates a session from an explicit field catalog and
// returns it with the opening instruction.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	fields := form.NormalizeCatalog(req.Fields)
	if err := form.ValidateCatalog(fields); err != nil {
		writeError(w, http.StatusBadRequest, "invalid catalog: "+err.Error())
		return
	}

	sess, err := h.Store.Create(r.Context(), fields, req.ImageWidth, req.ImageHeight)
	if err != nil {
		h.logger().Error("create session failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	reply, err := h.Service.Greet(r.Context(), sess.SessionID)
	if err != nil {
		h.writeTurnError(w, err)
		return
	}

	// Re-load so a placeholder auto-guide's phase change is reflected.
	sess, err = h.Store.Load(r.Context(), sess.SessionID)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, sessionReply{
		Session:       sess,
		AssistantText: reply.AssistantText,
		Action:        reply.Action,
	})
}

// ListSessions returns summaries for all sessions, newest first.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.Store.List(r.Context())
	if err != nil {
		h.logger().Error("list sessions failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": summaries})
}

// GetSession returns the full session record.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.Store.Load(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// DeleteSession removes a session and its message log.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetTranscript returns the session's append-only message log.
func (h *Handler) GetTranscript(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	// Distinguish an unknown session from an empty log.
	if _, err := h.Store.Load(r.Context(), id); err != nil {
		h.writeStoreError(w, err)
		return
	}

	messages, err := h.Store.ReadMessages(r.Context(), id)
	if err != nil {
		h.logger().Error("read transcript failed", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read transcript")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": id,
		"messages":   messages,
	})
}

type analyzeRequest struct {
	TextBoxes   []catalog.TextBox `json:"text_boxes"`
	ImageWidth  int               `json:"image_width"`
	ImageHeight int               `json:"image_height"`
}

// Analyze infers a field catalog from OCR text boxes and creates a session
// from it in one step.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	if h.Catalog == nil {
		writeError(w, http.StatusServiceUnavailable, "field inference is not configured")
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.TextBoxes) == 0 {
		writeError(w, http.StatusBadRequest, "text_boxes is required")
		return
	}

	fields, err := h.Catalog.BuildCatalog(r.Context(), req.TextBoxes, req.ImageWidth, req.ImageHeight)
	if err != nil {
		h.logger().Error("catalog inference failed", "error", err)
		writeError(w, http.StatusBadGateway, "field inference failed")
		return
	}

	sess, err := h.Store.Create(r.Context(), fields, req.ImageWidth, req.ImageHeight)
	if err != nil {
		h.logger().Error("create session failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	reply, err := h.Service.Greet(r.Context(), sess.SessionID)
	if err != nil {
		h.writeTurnError(w, err)
		return
	}
	sess, err = h.Store.Load(r.Context(), sess.SessionID)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, sessionReply{
		Session:       sess,
		AssistantText: reply.AssistantText,
		Action:        reply.Action,
	})
}

type chatRequest struct {
	SessionID        string `json:"session_id"`
	Event            string `json:"event,omitempty"`
	Kind             string `json:"kind,omitempty"` // accepted alias for event
	UserText         string `json:"user_text,omitempty"`
	DetectedLanguage string `json:"detected_language,omitempty"`
}

// eventKind returns the turn event discriminator. The wire name is
// "event"; "kind" is accepted as an alias and loses ties.
func (r chatRequest) eventKind() string {
	if r.Event != "" {
		return r.Event
	}
	return r.Kind
}

type chatResponse struct {
	SessionID     string                `json:"session_id"`
	AssistantText string                `json:"assistant_text"`
	Action        *turn.DrawGuideAction `json:"action"`
}

// Chat processes one conversational turn.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}
	kind := req.eventKind()
	if kind != "" && !turn.EventKind(kind).Valid() {
		writeError(w, http.StatusBadRequest, "unknown event kind "+kind)
		return
	}

	reply, err := h.Service.HandleTurn(r.Context(), req.SessionID, turn.Event{
		Kind:             turn.EventKind(kind),
		Text:             req.UserText,
		DetectedLanguage: req.DetectedLanguage,
	})
	if err != nil {
		h.writeTurnError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		SessionID:     req.SessionID,
		AssistantText: reply.AssistantText,
		Action:        reply.Action,
	})
}

// STT transcribes uploaded audio. Accepts multipart form data with an
// "audio" file part and an optional "language_code" field.
func (h *Handler) STT(w http.ResponseWriter, r *http.Request) {
	if h.Speech == nil {
		writeError(w, http.StatusServiceUnavailable, "speech service is not configured")
		return
	}

	if err := r.ParseMultipartForm(maxAudioBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body: "+err.Error())
		return
	}
	file, _, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(io.LimitReader(file, maxAudioBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read audio: "+err.Error())
		return
	}

	transcript, err := h.Speech.Transcribe(r.Context(), audio, r.FormValue("language_code"))
	if err != nil {
		h.logger().Error("transcription failed", "error", err)
		writeError(w, http.StatusBadGateway, "transcription failed")
		return
	}
	writeJSON(w, http.StatusOK, transcript)
}

type ttsRequest struct {
	Text         string `json:"text"`
	LanguageCode string `json:"language_code"`
}

// TTS synthesizes spoken audio for the given text. The audio is returned
// base64-encoded.
func (h *Handler) TTS(w http.ResponseWriter, r *http.Request) {
	if h.Speech == nil {
		writeError(w, http.StatusServiceUnavailable, "speech service is not configured")
		return
	}

	var req ttsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	audio, err := h.Speech.Synthesize(r.Context(), req.Text, req.LanguageCode)
	if err != nil {
		h.logger().Error("synthesis failed", "error", err)
		writeError(w, http.StatusBadGateway, "synthesis failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"audio": base64.StdEncoding.EncodeToString(audio),
	})
}

// writeTurnError maps a turn failure to an HTTP status.
func (h *Handler) writeTurnError(w http.ResponseWriter, err error) {
	code := turn.CodeOf(err)
	status := http.StatusInternalServerError
	switch code {
	case turn.CodeSessionNotFound:
		status = http.StatusNotFound
	case turn.CodeInvalidUserText:
		status = http.StatusBadRequest
	case turn.CodeStoreConflict:
		status = http.StatusConflict
	case turn.CodeExternalService:
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		h.logger().Error("turn failed", "error", err)
	}
	writeError(w, status, err.Error())
}

// writeStoreError maps a direct store failure to an HTTP status.
func (h *Handler) writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	h.logger().Error("store operation failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}
