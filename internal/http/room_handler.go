package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/room-access/internal/application"
	"github.com/example/room-access/internal/logging"
	"github.com/example/room-access/internal/persistence"
)

type roomService interface {
	CreateRoom(ctx context.Context, params application.CreateRoomParams) (persistence.Room, error)
	GetRoom(ctx context.Context, principal application.Principal, publicUUID string) (persistence.Room, error)
	UpdateRoomStatus(ctx context.Context, params application.UpdateRoomStatusParams) (persistence.Room, error)
}

type RoomHandler struct {
	service   roomService
	responder responder
	logger    *zap.Logger
}

func NewRoomHandler(service roomService, logger *zap.Logger) *RoomHandler {
	base := logging.Default(logger)
	return &RoomHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *RoomHandler) log(ctx context.Context, operation string, fields ...zap.Field) *zap.Logger {
	return handlerLogger(ctx, h.logger, "RoomHandler", operation, fields...)
}

func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Create", zap.Int64("principal_id", principal.UserID))

	// An empty body creates a room with defaults.
	var req createRoomRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		logger.Warn("failed to decode room request", zap.Error(err), errorKindField("bad_request"))
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	room, err := h.service.CreateRoom(r.Context(), application.CreateRoomParams{
		Principal: principal,
		Input:     application.RoomInput{Type: req.RoomType, ProviderRoomName: req.ProviderRoomName},
	})
	if err != nil {
		logger.Warn("room creation failed", zap.Error(err), errorKindField(application.ErrorKind(err)))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.Info("room created", zap.String("room_uuid", room.PublicUUID))
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toRoomDTO(room))
}

func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomUUID := chi.URLParam(r, "uuid")
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Get", zap.Int64("principal_id", principal.UserID), zap.String("room_uuid", roomUUID))

	room, err := h.service.GetRoom(r.Context(), principal, roomUUID)
	if err != nil {
		logger.Warn("room lookup failed", zap.Error(err), errorKindField(application.ErrorKind(err)))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toRoomDTO(room))
}

func (h *RoomHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomUUID := chi.URLParam(r, "uuid")
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "UpdateStatus", zap.Int64("principal_id", principal.UserID), zap.String("room_uuid", roomUUID))

	var req roomStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		logger.Warn("failed to decode status request", zap.Error(err), errorKindField("bad_request"))
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	room, err := h.service.UpdateRoomStatus(r.Context(), application.UpdateRoomStatusParams{
		Principal:  principal,
		PublicUUID: roomUUID,
		Status:     req.Status,
	})
	if err != nil {
		logger.Warn("room status update failed", zap.Error(err), errorKindField(application.ErrorKind(err)))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.Info("room status updated", zap.String("status", string(room.Status)))
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toRoomDTO(room))
}

type createRoomRequest struct {
	RoomType         string `json:"room_type"`
	ProviderRoomName string `json:"provider_room_name"`
}

type roomStatusRequest struct {
	Status string `json:"status"`
}

// roomDTO extends the public room summary with timestamps.
type roomDTO struct {
	application.RoomSummary
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toRoomDTO(room persistence.Room) roomDTO {
	return roomDTO{
		RoomSummary: application.SummarizeRoom(room),
		CreatedAt:   room.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:   room.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}
