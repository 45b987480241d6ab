package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/astromechza/scriptsync/pkg/editor"
	"github.com/astromechza/scriptsync/pkg/model"
	"github.com/astromechza/scriptsync/pkg/syncer"
)

type server struct {
	rooms        *rooms
	logger       *slog.Logger
	syncInterval time.Duration
}

func (s *server) router() *mux.Router {
	r := mux.NewRouter()
	r.Use(func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			m := httpsnoop.CaptureMetrics(handler, writer, request)
			s.logger.Info("handled", "method", request.Method, "url", request.URL, "duration", m.Duration, "status", m.Code)
		})
	})

	r.Methods(http.MethodGet).Path("/health").HandlerFunc(s.health)
	r.Methods(http.MethodPost).Path("/rooms/{room}").HandlerFunc(s.createRoom)
	r.Methods(http.MethodGet).Path("/rooms/{room}/project").HandlerFunc(s.getProject)
	r.Methods(http.MethodPut).Path("/rooms/{room}/project").HandlerFunc(s.replaceProject)
	r.Methods(http.MethodGet).Path("/rooms/{room}/latest").HandlerFunc(s.getLatest)
	r.Methods(http.MethodGet).Path("/rooms/{room}/sync").HandlerFunc(s.syncRoom)
	r.Methods(http.MethodPut, http.MethodPost).Path("/rooms/{room}/title").HandlerFunc(s.setTitle)
	r.Methods(http.MethodPost).Path("/rooms/{room}/sections").HandlerFunc(s.createSection)
	r.Methods(http.MethodDelete).Path("/rooms/{room}/sections/{section}").HandlerFunc(s.deleteSection)
	r.Methods(http.MethodPut).Path("/rooms/{room}/sections/{section}/speech").HandlerFunc(s.setSpeechResult)
	r.Methods(http.MethodPost).Path("/rooms/{room}/sections/{section}/draft").HandlerFunc(s.createDraft)
	r.Methods(http.MethodPatch).Path("/rooms/{room}/sections/{section}/draft").HandlerFunc(s.updateDraft)
	r.Methods(http.MethodDelete).Path("/rooms/{room}/sections/{section}/draft").HandlerFunc(s.deleteDraft)
	r.Methods(http.MethodPost).Path("/rooms/{room}/sections/{section}/draft/promote").HandlerFunc(s.promoteDraft)
	return r
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *server) writeJSON(writer http.ResponseWriter, status int, v any) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	if err := json.NewEncoder(writer).Encode(v); err != nil {
		s.logger.Error("failed to write out", "err", err)
	}
}

func (s *server) writeError(writer http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case editor.IsNotFound(err):
		status = http.StatusNotFound
	case editor.IsConflict(err):
		status = http.StatusConflict
	case errors.Is(err, editor.ErrInvalidValue), errors.Is(err, editor.ErrIndexOutOfRange),
		errors.As(err, &syntaxErr), errors.As(err, &typeErr), errors.Is(err, errEmptyBody):
		status = http.StatusBadRequest
	default:
		s.logger.Error("request failed", "err", err)
	}
	s.writeJSON(writer, status, errorResponse{Error: err.Error()})
}

var errEmptyBody = errors.New("request body is required")

func decodeBody(request *http.Request, v any) error {
	if request.Body == nil || request.ContentLength == 0 {
		return errEmptyBody
	}
	if err := json.NewDecoder(request.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode body: %w", err)
	}
	return nil
}

// roomFor returns the room named in the path, creating it on first use.
func (s *server) roomFor(writer http.ResponseWriter, request *http.Request) (*room, bool) {
	rm, _, err := s.rooms.getOrCreate(mux.Vars(request)["room"])
	if err != nil {
		s.writeError(writer, err)
		return nil, false
	}
	return rm, true
}

func (s *server) health(writer http.ResponseWriter, _ *http.Request) {
	s.writeJSON(writer, http.StatusOK, map[string]string{"status": "ok"})
}

type roomResponse struct {
	Room    string `json:"room"`
	Created bool   `json:"created"`
}

func (s *server) createRoom(writer http.ResponseWriter, request *http.Request) {
	id := mux.Vars(request)["room"]
	_, created, err := s.rooms.getOrCreate(id)
	if err != nil {
		s.writeError(writer, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	s.writeJSON(writer, status, roomResponse{Room: id, Created: created})
}

func (s *server) getProject(writer http.ResponseWriter, request *http.Request) {
	rm, ok := s.rooms.get(mux.Vars(request)["room"])
	if !ok {
		writer.WriteHeader(http.StatusNotFound)
		return
	}
	p, err := rm.engine.Project()
	if err != nil {
		s.writeError(writer, err)
		return
	}
	s.writeJSON(writer, http.StatusOK, p.ToModel())
}

// replaceProject seeds the room from a stored project, replacing whatever it held.
func (s *server) replaceProject(writer http.ResponseWriter, request *http.Request) {
	var body model.Project
	if err := decodeBody(request, &body); err != nil {
		s.writeError(writer, err)
		return
	}
	rm, ok := s.roomFor(writer, request)
	if !ok {
		return
	}
	if err := rm.editor.ReplaceProject(body); err != nil {
		s.writeError(writer, err)
		return
	}
	writer.WriteHeader(http.StatusNoContent)
}

func (s *server) getLatest(writer http.ResponseWriter, request *http.Request) {
	rm, ok := s.rooms.get(mux.Vars(request)["room"])
	if !ok {
		writer.WriteHeader(http.StatusNotFound)
		return
	}
	writer.Header().Add("Content-Type", "application/octet-stream")
	if _, err := writer.Write(rm.doc.Save()); err != nil {
		s.logger.Error("failed to write out", "err", err)
	}
}

func (s *server) syncRoom(writer http.ResponseWriter, request *http.Request) {
	rm, ok := s.roomFor(writer, request)
	if !ok {
		return
	}
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	conn, err := upgrader.Upgrade(writer, request, nil)
	if err != nil {
		s.logger.Error("failed to upgrade", "err", err)
		return
	}
	opts := syncer.Options{Interval: s.syncInterval, Logger: s.logger.With("room", rm.id)}
	if err := syncer.Sync(request.Context(), conn, rm.doc, rm.doc.NewSyncState(), opts); err != nil {
		s.logger.Error("failed to sync", "room", rm.id, "err", err)
	}
}

type titleRequest struct {
	Title string `json:"title"`
}

func (s *server) setTitle(writer http.ResponseWriter, request *http.Request) {
	var body titleRequest
	if err := decodeBody(request, &body); err != nil {
		s.writeError(writer, err)
		return
	}
	rm, ok := s.roomFor(writer, request)
	if !ok {
		return
	}
	if err := rm.editor.SetTitle(body.Title); err != nil {
		s.writeError(writer, err)
		return
	}
	writer.WriteHeader(http.StatusNoContent)
}

type createSectionRequest struct {
	// At is the id of the section to insert next to. Empty appends.
	At     string `json:"at"`
	Before bool   `json:"before"`
}

type createdResponse struct {
	ID string `json:"id"`
}

func (s *server) createSection(writer http.ResponseWriter, request *http.Request) {
	var body createSectionRequest
	if request.ContentLength != 0 {
		if err := decodeBody(request, &body); err != nil {
			s.writeError(writer, err)
			return
		}
	}
	rm, ok := s.roomFor(writer, request)
	if !ok {
		return
	}
	var at *editor.Anchor
	if body.At != "" {
		at = &editor.Anchor{ID: body.At, Before: body.Before}
	}
	id, err := rm.editor.CreateSection(at)
	if err != nil {
		s.writeError(writer, err)
		return
	}
	s.writeJSON(writer, http.StatusCreated, createdResponse{ID: id})
}

func (s *server) deleteSection(writer http.ResponseWriter, request *http.Request) {
	rm, ok := s.roomFor(writer, request)
	if !ok {
		return
	}
	if err := rm.editor.DeleteSection(mux.Vars(request)["section"]); err != nil {
		s.writeError(writer, err)
		return
	}
	writer.WriteHeader(http.StatusNoContent)
}

type speechRequest struct {
	Status         *model.SpeechStatus `json:"status"`
	SpeechDuration *float64            `json:"speechDuration"`
}

func (s *server) setSpeechResult(writer http.ResponseWriter, request *http.Request) {
	var body speechRequest
	if err := decodeBody(request, &body); err != nil {
		s.writeError(writer, err)
		return
	}
	rm, ok := s.roomFor(writer, request)
	if !ok {
		return
	}
	u := editor.SpeechUpdate{Status: body.Status, Duration: body.SpeechDuration}
	if err := rm.editor.SetSpeechResult(mux.Vars(request)["section"], u); err != nil {
		s.writeError(writer, err)
		return
	}
	writer.WriteHeader(http.StatusNoContent)
}

func (s *server) createDraft(writer http.ResponseWriter, request *http.Request) {
	s.sectionOp(writer, request, (*editor.Editor).CreateSectionDraft, http.StatusCreated)
}

type draftRequest struct {
	Kind     *model.SectionKind `json:"kind"`
	Duration *float64           `json:"duration"`
}

func (s *server) updateDraft(writer http.ResponseWriter, request *http.Request) {
	var body draftRequest
	if err := decodeBody(request, &body); err != nil {
		s.writeError(writer, err)
		return
	}
	s.sectionOp(writer, request, func(e *editor.Editor, id string) error {
		return e.UpdateSectionDraft(id, editor.DraftUpdate{Kind: body.Kind, Duration: body.Duration})
	}, http.StatusNoContent)
}

func (s *server) deleteDraft(writer http.ResponseWriter, request *http.Request) {
	s.sectionOp(writer, request, (*editor.Editor).DeleteSectionDraft, http.StatusNoContent)
}

func (s *server) promoteDraft(writer http.ResponseWriter, request *http.Request) {
	s.sectionOp(writer, request, (*editor.Editor).PromoteSectionDraft, http.StatusNoContent)
}

func (s *server) sectionOp(writer http.ResponseWriter, request *http.Request, op func(e *editor.Editor, id string) error, status int) {
	rm, ok := s.roomFor(writer, request)
	if !ok {
		return
	}
	if err := op(rm.editor, mux.Vars(request)["section"]); err != nil {
		s.writeError(writer, err)
		return
	}
	writer.WriteHeader(status)
}
