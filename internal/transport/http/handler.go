package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"github.com/pacis-link/share-service/internal/domain"
	"github.com/pacis-link/share-service/internal/service"
	"github.com/pacis-link/share-service/internal/transport/ws"
)

type Handler struct {
	chatSvc  *service.ChatService
	fileSvc  *service.FileService
	hub      *ws.Hub
	validate *validator.Validate

	maxUploadBytes int64
}

func NewHandler(chat *service.ChatService, file *service.FileService, hub *ws.Hub, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 25 << 20
	}
	return &Handler{
		chatSvc:        chat,
		fileSvc:        file,
		hub:            hub,
		validate:       validator.New(),
		maxUploadBytes: maxUploadBytes,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// GET /api/text/list?room=
func (h *Handler) ListText(w http.ResponseWriter, r *http.Request) {
	room := r.URL.Query().Get("room")
	msgs, err := h.chatSvc.History(r.Context(), room)
	if err != nil {
		slog.Error("handler.ListText:", slog.Any("err", err))
		writeJSON(w, statusOf(err), ErrorResponse{Error: "history unavailable", Code: codeOf(err)})
		return
	}

	// oldest-first, ready to render without client-side reordering
	writeJSON(w, http.StatusOK, lo.Map(msgs, func(m domain.Message, _ int) MessageItem {
		return toMessageItem(m)
	}))
}

// POST /api/text/send
func (h *Handler) SendText(w http.ResponseWriter, r *http.Request) {
	var req SendTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	msg, err := h.chatSvc.Save(r.Context(), req.Room, req.Sender, req.Content)
	if err != nil {
		slog.Error("handler.SendText:", slog.Any("err", err))
		writeJSON(w, statusOf(err), ErrorResponse{Error: err.Error(), Code: codeOf(err)})
		return
	}

	// persisted; now fan out. The sender's client suppresses its own echo.
	h.hub.Broadcast(msg.Room, ws.Message{
		Type: ws.TypeChat,
		Payload: ws.ChatPayload{
			ID:      msg.ID,
			Room:    msg.Room,
			Sender:  msg.Sender,
			Message: msg.Content,
			TSUnix:  msg.CreatedAt.Unix(),
		},
	}, nil)

	writeJSON(w, http.StatusCreated, toMessageItem(*msg))
}

// GET /api/files?room=
func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	room := r.URL.Query().Get("room")
	recs, err := h.fileSvc.ListByRoom(r.Context(), room)
	if err != nil {
		slog.Error("handler.ListFiles:", slog.Any("err", err))
		writeJSON(w, statusOf(err), ErrorResponse{Error: "file listing unavailable", Code: codeOf(err)})
		return
	}

	writeJSON(w, http.StatusOK, lo.Map(recs, func(rec domain.FileRecord, _ int) FileItem {
		return toFileItem(rec)
	}))
}

// POST /api/files/upload (multipart: file, room)
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid multipart form"})
		return
	}
	f, fh, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "missing file field"})
		return
	}
	defer f.Close()

	contentType, err := detectContentType(f, fh)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "unreadable file"})
		return
	}

	rec, err := h.fileSvc.RecordUpload(r.Context(), r.FormValue("room"), r.FormValue("sender"), fh.Filename, f, fh.Size, contentType)
	if err != nil {
		slog.Error("handler.Upload:", slog.Any("err", err))
		writeJSON(w, statusOf(err), ErrorResponse{Error: err.Error(), Code: codeOf(err)})
		return
	}

	writeJSON(w, http.StatusCreated, toFileItem(*rec))
}

// GET /api/files/{id} resolves by id alone; not room-scoped on purpose.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, rc, err := h.fileSvc.Open(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "file not found", Code: "not_found"})
			return
		}
		slog.Error("handler.Download:", slog.Any("err", err))
		writeJSON(w, statusOf(err), ErrorResponse{Error: "download unavailable", Code: codeOf(err)})
		return
	}
	defer rc.Close()

	if rec.ContentType != "" {
		w.Header().Set("Content-Type", rec.ContentType)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rec.OriginalName))
	if rec.Size > 0 {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", rec.Size))
	}
	if _, err := io.Copy(w, rc); err != nil {
		slog.Debug("handler.Download copy:", slog.Any("err", err))
	}
}

func toMessageItem(m domain.Message) MessageItem {
	return MessageItem{
		ID:        m.ID,
		Room:      m.Room,
		Sender:    m.Sender,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}

func toFileItem(rec domain.FileRecord) FileItem {
	return FileItem{
		ID:           rec.ID,
		Room:         rec.Room,
		Sender:       rec.Sender,
		OriginalName: rec.OriginalName,
		URL:          "/api/files/" + rec.ID,
		ContentType:  rec.ContentType,
		Size:         rec.Size,
		UploadedAt:   rec.UploadedAt,
	}
}

// detectContentType trusts the multipart header when present and sniffs the
// content otherwise, rewinding the file for the actual upload.
func detectContentType(f multipart.File, fh *multipart.FileHeader) (string, error) {
	if ct := fh.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		return ct, nil
	}
	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return mt.String(), nil
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrMessageEmpty), errors.Is(err, domain.ErrMessageTooLong):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case domain.IsPartialFailure(err):
		return http.StatusInternalServerError
	case errors.Is(err, domain.ErrStorage):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func codeOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrMessageEmpty), errors.Is(err, domain.ErrMessageTooLong):
		return "invalid_message"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case domain.IsPartialFailure(err):
		return "partial_failure"
	case errors.Is(err, domain.ErrStorage):
		return "storage_error"
	default:
		return "internal_error"
	}
}
