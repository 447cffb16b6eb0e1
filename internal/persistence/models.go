package persistence

import "time"

// RoomStatus tracks the lifecycle of a video room.
type RoomStatus string

const (
	RoomStatusScheduled RoomStatus = "scheduled"
	RoomStatusActive    RoomStatus = "active"
	RoomStatusEnded     RoomStatus = "ended"
)

// RoomType describes how many people a room is meant for.
type RoomType string

const (
	RoomTypeIndividual RoomType = "individual"
	RoomTypeGroup      RoomType = "group"
	RoomTypeWebinar    RoomType = "webinar"
)

// ServiceType classifies a practitioner offering.
type ServiceType string

const (
	ServiceTypeSession  ServiceType = "session"
	ServiceTypeWorkshop ServiceType = "workshop"
	ServiceTypeCourse   ServiceType = "course"
	ServiceTypePackage  ServiceType = "package"
)

// BookingStatus tracks the lifecycle of a booking.
type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"
	BookingStatusConfirmed  BookingStatus = "confirmed"
	BookingStatusInProgress BookingStatus = "in_progress"
	BookingStatusCompleted  BookingStatus = "completed"
	BookingStatusCancelled  BookingStatus = "cancelled"
)

// User represents a marketplace account. PractitionerID is set when the
// account also acts as a practitioner.
type User struct {
	ID             int64
	Email          string
	DisplayName    string
	PasswordHash   string
	IsAdmin        bool
	PractitionerID *int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Practitioner is the provider side of the marketplace.
type Practitioner struct {
	ID          int64
	UserID      int64
	DisplayName string
	CreatedAt   time.Time
}

// Service is a practitioner offering.
type Service struct {
	ID             int64
	PractitionerID int64
	Name           string
	Type           ServiceType
	CreatedAt      time.Time
}

// ServiceSession is one scheduled occurrence of a workshop or course.
type ServiceSession struct {
	ID        int64
	ServiceID int64
	RoomID    *int64
	StartTime time.Time
	EndTime   time.Time
	CreatedAt time.Time
}

// Room is a video meeting resource.
type Room struct {
	ID               int64
	PublicUUID       string
	ProviderRoomName string
	Status           RoomStatus
	Type             RoomType
	CreatedByID      *int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Booking links a client and a practitioner to a room, a service or a
// service session.
type Booking struct {
	ID               int64
	ClientID         int64
	PractitionerID   int64
	ServiceID        *int64
	ServiceSessionID *int64
	RoomID           *int64
	Status           BookingStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Session represents an authentication session persisted for a user.
type Session struct {
	ID          string
	UserID      int64
	Token       string
	Fingerprint string
	ExpiresAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	RevokedAt   *time.Time
}
