package application

import (
	"context"
	"errors"

	"github.com/example/room-access/internal/persistence"
)

// Role is the capacity in which a principal joins a room.
type Role string

const (
	RoleHost        Role = "host"
	RoleParticipant Role = "participant"
	RoleViewer      Role = "viewer"
)

// DenyReason explains why access was refused.
type DenyReason int

const (
	DenyNone DenyReason = iota
	DenyNotAuthenticated
	DenyRoomNotFound
	DenyBookingNotConfirmed
	DenyNoSessionBooking
	DenyNoGrant
)

func (r DenyReason) String() string {
	switch r {
	case DenyNotAuthenticated:
		return "not authenticated"
	case DenyRoomNotFound:
		return "room not found"
	case DenyBookingNotConfirmed:
		return "booking not confirmed"
	case DenyNoSessionBooking:
		return "no confirmed booking for this session"
	case DenyNoGrant:
		return "no access grant for this room"
	default:
		return ""
	}
}

// Rule names as reported in evaluations and logs.
const (
	ruleAuthentication = "authentication"
	ruleRoomLookup     = "room_lookup"
	ruleCreator        = "creator"
	ruleDirectBooking  = "direct_booking"
	ruleServiceSession = "service_session"
	ruleDefaultDeny    = "default_deny"
)

// AccessReader is the read-only view of the store the evaluator needs.
type AccessReader interface {
	GetRoomByPublicUUID(ctx context.Context, publicUUID string) (persistence.Room, error)
	ListBookingsByRoom(ctx context.Context, roomID int64) ([]persistence.Booking, error)
	ListBookingsByClient(ctx context.Context, clientID int64) ([]persistence.Booking, error)
	GetServiceSessionByRoom(ctx context.Context, roomID int64) (persistence.ServiceSession, error)
	GetService(ctx context.Context, id int64) (persistence.Service, error)
}

// Evaluation is the evaluator's internal result before it is shaped into
// an AccessDecision.
type Evaluation struct {
	Rule           string
	Granted        bool
	Role           Role
	Reason         DenyReason
	Room           *persistence.Room
	Booking        *persistence.Booking
	ServiceSession *persistence.ServiceSession
	Service        *persistence.Service
}

type verdictKind int

const (
	verdictNext verdictKind = iota
	verdictGrant
	verdictDeny
)

type verdict struct {
	kind    verdictKind
	role    Role
	reason  DenyReason
	booking *persistence.Booking
	session *persistence.ServiceSession
	service *persistence.Service
}

func next() verdict { return verdict{kind: verdictNext} }

func grant(role Role) verdict { return verdict{kind: verdictGrant, role: role} }

func deny(reason DenyReason) verdict { return verdict{kind: verdictDeny, role: RoleViewer, reason: reason} }

// accessRequest is the input shared by every rule.
type accessRequest struct {
	principal Principal
	room      persistence.Room
	reader    AccessReader
}

type accessRule struct {
	name string
	eval func(ctx context.Context, req accessRequest) (verdict, error)
}

// accessRules is evaluated in order; the first grant or deny wins.
var accessRules = []accessRule{
	{name: ruleCreator, eval: creatorRule},
	{name: ruleDirectBooking, eval: directBookingRule},
	{name: ruleServiceSession, eval: serviceSessionRule},
}

// Evaluate decides whether principal may join the room with publicUUID.
// Expected denials are evaluations; only store failures return an error.
func Evaluate(ctx context.Context, reader AccessReader, principal Principal, publicUUID string) (Evaluation, error) {
	if !principal.Authenticated() {
		return Evaluation{Rule: ruleAuthentication, Role: RoleViewer, Reason: DenyNotAuthenticated}, nil
	}

	room, err := reader.GetRoomByPublicUUID(ctx, publicUUID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Evaluation{Rule: ruleRoomLookup, Role: RoleViewer, Reason: DenyRoomNotFound}, nil
		}
		return Evaluation{}, mapRepoError(err, "room")
	}

	req := accessRequest{principal: principal, room: room, reader: reader}
	for _, rule := range accessRules {
		v, err := rule.eval(ctx, req)
		if err != nil {
			return Evaluation{}, mapRepoError(err, rule.name)
		}
		if v.kind == verdictNext {
			continue
		}
		return Evaluation{
			Rule:           rule.name,
			Granted:        v.kind == verdictGrant,
			Role:           v.role,
			Reason:         v.reason,
			Room:           &room,
			Booking:        v.booking,
			ServiceSession: v.session,
			Service:        v.service,
		}, nil
	}

	return Evaluation{Rule: ruleDefaultDeny, Role: RoleViewer, Reason: DenyNoGrant, Room: &room}, nil
}

// IsAccessEligible reports whether a booking in status may join its room.
func IsAccessEligible(status persistence.BookingStatus) bool {
	return status == persistence.BookingStatusConfirmed || status == persistence.BookingStatusInProgress
}

func creatorRule(_ context.Context, req accessRequest) (verdict, error) {
	if req.room.CreatedByID != nil && *req.room.CreatedByID == req.principal.UserID {
		return grant(RoleHost), nil
	}
	return next(), nil
}

// directBookingRule handles bookings attached to the room itself. The
// practitioner side of an eligible booking hosts; the client participates.
func directBookingRule(ctx context.Context, req accessRequest) (verdict, error) {
	bookings, err := req.reader.ListBookingsByRoom(ctx, req.room.ID)
	if err != nil {
		return verdict{}, err
	}

	var participant, ineligible *persistence.Booking
	for i := range bookings {
		booking := bookings[i]
		asPractitioner := req.principal.IsPractitioner(booking.PractitionerID)
		asClient := booking.ClientID == req.principal.UserID
		if !asPractitioner && !asClient {
			continue
		}
		if !IsAccessEligible(booking.Status) {
			if ineligible == nil {
				ineligible = &booking
			}
			continue
		}
		if asPractitioner {
			v := grant(RoleHost)
			v.booking = &booking
			return v, nil
		}
		if participant == nil {
			participant = &booking
		}
	}

	switch {
	case participant != nil:
		v := grant(RoleParticipant)
		v.booking = participant
		return v, nil
	case ineligible != nil:
		v := deny(DenyBookingNotConfirmed)
		v.booking = ineligible
		return v, nil
	default:
		return next(), nil
	}
}

// serviceSessionRule handles rooms that host a workshop or course session.
// Workshop bookings must name the exact session; course bookings cover every
// session of the parent service.
func serviceSessionRule(ctx context.Context, req accessRequest) (verdict, error) {
	session, err := req.reader.GetServiceSessionByRoom(ctx, req.room.ID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return next(), nil
		}
		return verdict{}, err
	}

	service, err := req.reader.GetService(ctx, session.ServiceID)
	if err != nil {
		return verdict{}, err
	}

	attach := func(v verdict) verdict {
		v.session = &session
		v.service = &service
		return v
	}

	if req.principal.IsPractitioner(service.PractitionerID) {
		return attach(grant(RoleHost)), nil
	}

	bookings, err := req.reader.ListBookingsByClient(ctx, req.principal.UserID)
	if err != nil {
		return verdict{}, err
	}

	var ineligible *persistence.Booking
	for i := range bookings {
		booking := bookings[i]
		if !coversSession(booking, session, service) {
			continue
		}
		if IsAccessEligible(booking.Status) {
			v := attach(grant(RoleParticipant))
			v.booking = &booking
			return v, nil
		}
		if ineligible == nil {
			ineligible = &booking
		}
	}

	if ineligible != nil {
		v := attach(deny(DenyBookingNotConfirmed))
		v.booking = ineligible
		return v, nil
	}
	return attach(deny(DenyNoSessionBooking)), nil
}

// coversSession reports whether booking entitles its client to session.
func coversSession(booking persistence.Booking, session persistence.ServiceSession, service persistence.Service) bool {
	if booking.ServiceSessionID != nil && *booking.ServiceSessionID == session.ID {
		return true
	}
	if service.Type != persistence.ServiceTypeCourse {
		return false
	}
	return booking.ServiceID != nil && *booking.ServiceID == session.ServiceID
}
