package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/room-access/internal/logging"
	"github.com/example/room-access/internal/persistence"
)

// RoomStore captures the persistence operations needed by the room service.
type RoomStore interface {
	CreateRoom(ctx context.Context, room persistence.Room) (persistence.Room, error)
	GetRoomByPublicUUID(ctx context.Context, publicUUID string) (persistence.Room, error)
	UpdateRoomStatus(ctx context.Context, id int64, status persistence.RoomStatus, updatedAt time.Time) (persistence.Room, error)
}

const maxProviderRoomNameLength = 128

// roomTransitions lists the lifecycle moves UpdateRoomStatus accepts.
var roomTransitions = map[persistence.RoomStatus][]persistence.RoomStatus{
	persistence.RoomStatusScheduled: {persistence.RoomStatusActive, persistence.RoomStatusEnded},
	persistence.RoomStatusActive:    {persistence.RoomStatusEnded},
}

// RoomService orchestrates validation, authorization, and persistence for rooms.
type RoomService struct {
	rooms       RoomStore
	idGenerator func() string
	now         func() time.Time
	logger      *zap.Logger
}

// NewRoomService constructs a room service with the provided dependencies.
func NewRoomService(rooms RoomStore, idGenerator func() string, now func() time.Time) *RoomService {
	return NewRoomServiceWithLogger(rooms, idGenerator, now, nil)
}

// NewRoomServiceWithLogger constructs a room service with a specified logger.
// idGenerator defaults to random UUIDs.
func NewRoomServiceWithLogger(rooms RoomStore, idGenerator func() string, now func() time.Time, logger *zap.Logger) *RoomService {
	if idGenerator == nil {
		idGenerator = uuid.NewString
	}
	if now == nil {
		now = time.Now
	}
	return &RoomService{rooms: rooms, idGenerator: idGenerator, now: now, logger: logging.Default(logger)}
}

func (s *RoomService) loggerWith(ctx context.Context, operation string, fields ...zap.Field) *zap.Logger {
	return serviceLogger(ctx, s.logger, "RoomService", operation, fields...)
}

// CreateRoom creates an ad-hoc room owned by the calling principal.
func (s *RoomService) CreateRoom(ctx context.Context, params CreateRoomParams) (room persistence.Room, err error) {
	if s == nil || s.rooms == nil {
		err = fmt.Errorf("RoomService is not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateRoom", zap.Int64("principal_id", params.Principal.UserID))
	defer func() {
		if err != nil {
			logger.Error("failed to create room", errorFields(err)...)
			return
		}
		logger.Info("room created",
			zap.Int64("room_id", room.ID),
			zap.String("room_uuid", room.PublicUUID),
		)
	}()

	if !params.Principal.Authenticated() {
		err = ErrUnauthorized
		return
	}

	roomType, vErr := validateRoomInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	publicUUID, parseErr := NormalizeRoomUUID(s.idGenerator())
	if parseErr != nil {
		err = fmt.Errorf("room id generator: %w", parseErr)
		return
	}

	providerName := strings.TrimSpace(params.Input.ProviderRoomName)
	if providerName == "" {
		providerName = "room-" + publicUUID
	}

	creator := params.Principal.UserID
	now := s.now().UTC()
	room, err = s.rooms.CreateRoom(ctx, persistence.Room{
		PublicUUID:       publicUUID,
		ProviderRoomName: providerName,
		Status:           persistence.RoomStatusScheduled,
		Type:             roomType,
		CreatedByID:      &creator,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	if err != nil {
		err = mapRepoError(err, "room")
		return
	}
	return
}

// GetRoom returns the room identified by publicUUID to any authenticated principal.
func (s *RoomService) GetRoom(ctx context.Context, principal Principal, publicUUID string) (room persistence.Room, err error) {
	if s == nil || s.rooms == nil {
		err = fmt.Errorf("RoomService is not configured")
		return
	}

	logger := s.loggerWith(ctx, "GetRoom",
		zap.Int64("principal_id", principal.UserID),
		zap.String("room_uuid", publicUUID),
	)
	defer func() {
		if err != nil {
			logger.Error("failed to get room", errorFields(err)...)
			return
		}
		logger.Info("room retrieved", zap.Int64("room_id", room.ID))
	}()

	if !principal.Authenticated() {
		err = ErrUnauthorized
		return
	}

	var normalized string
	if normalized, err = NormalizeRoomUUID(publicUUID); err != nil {
		return
	}

	room, err = s.rooms.GetRoomByPublicUUID(ctx, normalized)
	if err != nil {
		err = mapRepoError(err, "room")
	}
	return
}

// UpdateRoomStatus applies a lifecycle transition. Only administrators and
// the room's creator may change its status.
func (s *RoomService) UpdateRoomStatus(ctx context.Context, params UpdateRoomStatusParams) (room persistence.Room, err error) {
	if s == nil || s.rooms == nil {
		err = fmt.Errorf("RoomService is not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateRoomStatus",
		zap.Int64("principal_id", params.Principal.UserID),
		zap.String("room_uuid", params.PublicUUID),
		zap.String("status", params.Status),
	)
	defer func() {
		if err != nil {
			logger.Error("failed to update room status", errorFields(err)...)
			return
		}
		logger.Info("room status updated", zap.Int64("room_id", room.ID))
	}()

	if !params.Principal.Authenticated() {
		err = ErrUnauthorized
		return
	}

	vErr := &ValidationError{}
	normalized, uuidErr := NormalizeRoomUUID(params.PublicUUID)
	if ve, ok := uuidErr.(*ValidationError); ok {
		vErr.merge(ve)
	}
	target := persistence.RoomStatus(strings.ToLower(strings.TrimSpace(params.Status)))
	if !isRoomStatus(target) {
		vErr.add("status", "must be one of scheduled, active, ended")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var existing persistence.Room
	existing, err = s.rooms.GetRoomByPublicUUID(ctx, normalized)
	if err != nil {
		err = mapRepoError(err, "room")
		return
	}

	if !params.Principal.IsAdmin && (existing.CreatedByID == nil || *existing.CreatedByID != params.Principal.UserID) {
		err = ErrUnauthorized
		return
	}

	if !canTransition(existing.Status, target) {
		vErr.add("status", fmt.Sprintf("cannot move from %s to %s", existing.Status, target))
		err = vErr
		return
	}

	room, err = s.rooms.UpdateRoomStatus(ctx, existing.ID, target, s.now().UTC())
	if err != nil {
		err = mapRepoError(err, "room")
	}
	return
}

func validateRoomInput(input RoomInput) (persistence.RoomType, *ValidationError) {
	vErr := &ValidationError{}

	roomType := persistence.RoomType(strings.ToLower(strings.TrimSpace(input.Type)))
	switch roomType {
	case "":
		roomType = persistence.RoomTypeIndividual
	case persistence.RoomTypeIndividual, persistence.RoomTypeGroup, persistence.RoomTypeWebinar:
	default:
		vErr.add("room_type", "must be one of individual, group, webinar")
	}

	if len(strings.TrimSpace(input.ProviderRoomName)) > maxProviderRoomNameLength {
		vErr.add("provider_room_name", fmt.Sprintf("must be at most %d characters", maxProviderRoomNameLength))
	}

	return roomType, vErr
}

func isRoomStatus(status persistence.RoomStatus) bool {
	switch status {
	case persistence.RoomStatusScheduled, persistence.RoomStatusActive, persistence.RoomStatusEnded:
		return true
	}
	return false
}

func canTransition(from, to persistence.RoomStatus) bool {
	for _, allowed := range roomTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
