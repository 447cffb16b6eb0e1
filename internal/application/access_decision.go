package application

import (
	"time"

	"github.com/example/room-access/internal/persistence"
)

// AccessDecision is the outward result of an access check. It carries only
// identifiers and statuses, never tokens or provider credentials.
type AccessDecision struct {
	CanJoin        bool                   `json:"can_join"`
	Role           Role                   `json:"role"`
	Reason         *string                `json:"reason"`
	Room           *RoomSummary           `json:"room"`
	Booking        *BookingSummary        `json:"booking"`
	ServiceSession *ServiceSessionSummary `json:"service_session"`
}

// RoomSummary is the minimal room view attached to decisions.
type RoomSummary struct {
	ID               int64  `json:"id"`
	PublicUUID       string `json:"public_uuid"`
	ProviderRoomName string `json:"provider_room_name"`
	Status           string `json:"status"`
	RoomType         string `json:"room_type"`
}

// BookingSummary identifies the booking that resolved a decision.
type BookingSummary struct {
	ID               int64  `json:"id"`
	Status           string `json:"status"`
	ClientID         int64  `json:"client_id"`
	PractitionerID   int64  `json:"practitioner_id"`
	ServiceID        *int64 `json:"service_id"`
	ServiceSessionID *int64 `json:"service_session_id"`
}

// ServiceSessionSummary identifies the service session that resolved a decision.
type ServiceSessionSummary struct {
	ID          int64     `json:"id"`
	ServiceID   int64     `json:"service_id"`
	ServiceType string    `json:"service_type"`
	RoomID      *int64    `json:"room_id"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
}

// BuildAccessDecision shapes an evaluation into the decision returned to callers.
func BuildAccessDecision(eval Evaluation) AccessDecision {
	decision := AccessDecision{
		CanJoin: eval.Granted,
		Role:    eval.Role,
	}
	if !eval.Granted {
		decision.Role = RoleViewer
		reason := eval.Reason.String()
		if reason == "" {
			reason = DenyNoGrant.String()
		}
		decision.Reason = &reason
	}
	if eval.Room != nil {
		summary := SummarizeRoom(*eval.Room)
		decision.Room = &summary
	}
	if eval.Booking != nil {
		decision.Booking = summarizeBooking(*eval.Booking)
	}
	if eval.ServiceSession != nil {
		decision.ServiceSession = summarizeServiceSession(*eval.ServiceSession, eval.Service)
	}
	return decision
}

// SummarizeRoom converts a stored room to its public summary.
func SummarizeRoom(room persistence.Room) RoomSummary {
	return RoomSummary{
		ID:               room.ID,
		PublicUUID:       room.PublicUUID,
		ProviderRoomName: room.ProviderRoomName,
		Status:           string(room.Status),
		RoomType:         string(room.Type),
	}
}

func summarizeBooking(booking persistence.Booking) *BookingSummary {
	return &BookingSummary{
		ID:               booking.ID,
		Status:           string(booking.Status),
		ClientID:         booking.ClientID,
		PractitionerID:   booking.PractitionerID,
		ServiceID:        copyID(booking.ServiceID),
		ServiceSessionID: copyID(booking.ServiceSessionID),
	}
}

func summarizeServiceSession(session persistence.ServiceSession, service *persistence.Service) *ServiceSessionSummary {
	summary := &ServiceSessionSummary{
		ID:        session.ID,
		ServiceID: session.ServiceID,
		RoomID:    copyID(session.RoomID),
		StartTime: session.StartTime.UTC(),
		EndTime:   session.EndTime.UTC(),
	}
	if service != nil {
		summary.ServiceType = string(service.Type)
	}
	return summary
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
