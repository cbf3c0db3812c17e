// Package api exposes the HTTP surface of the service.
//
// Routes:
//
//	GET    /healthz                        liveness probe
//	POST   /v1/sessions                    create a session from an explicit field catalog
//	GET    /v1/sessions                    list session summaries
//	GET    /v1/sessions/{id}               full session record
//	DELETE /v1/sessions/{id}               delete session and message log
//	GET    /v1/sessions/{id}/transcript    append-only message log
//	POST   /v1/analyze                     infer a catalog from OCR text boxes and create a session
//	POST   /v1/chat                        process one conversational turn
//	POST   /v1/stt                         speech-to-text (multipart audio)
//	POST   /v1/tts                         text-to-speech
//
// The speech and catalog endpoints return 503 when the corresponding
// external client is not configured; everything else works offline.
package api
