// Package seed loads marketplace fixtures from YAML into a store.
//
// Records refer to each other by key rather than by database id, so the same
// file can seed SQLite, PostgreSQL or the in-memory store:
//
//	practitioners:
//	  - key: maya
//	    display_name: Maya
//	users:
//	  - key: maya
//	    email: maya@example.com
//	    password: s3cret
//	    practitioner: maya
//	services:
//	  - key: breathwork
//	    practitioner: maya
//	    service_type: course
//	rooms:
//	  - key: week1
//	    room_type: group
//	service_sessions:
//	  - key: week1
//	    service: breathwork
//	    room: week1
//	    start_time: 2026-03-15T09:00:00Z
//	bookings:
//	  - client: ana
//	    practitioner: maya
//	    service: breathwork
//	    status: confirmed
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/example/room-access/internal/application"
	"github.com/example/room-access/internal/logging"
	"github.com/example/room-access/internal/persistence"
)

const defaultSessionLength = time.Hour

// Fixture is the decoded YAML document.
type Fixture struct {
	Practitioners   []Practitioner   `yaml:"practitioners"`
	Users           []User           `yaml:"users"`
	Services        []Service        `yaml:"services"`
	Rooms           []Room           `yaml:"rooms"`
	ServiceSessions []ServiceSession `yaml:"service_sessions"`
	Bookings        []Booking        `yaml:"bookings"`
}

type Practitioner struct {
	Key         string `yaml:"key"`
	DisplayName string `yaml:"display_name"`
}

// User carries either a plaintext password, hashed on load, or a
// precomputed password_hash. Neither leaves the account disabled.
type User struct {
	Key          string `yaml:"key"`
	Email        string `yaml:"email"`
	DisplayName  string `yaml:"display_name"`
	Password     string `yaml:"password"`
	PasswordHash string `yaml:"password_hash"`
	Admin        bool   `yaml:"admin"`
	Practitioner string `yaml:"practitioner"`
}

type Service struct {
	Key          string `yaml:"key"`
	Practitioner string `yaml:"practitioner"`
	Name         string `yaml:"name"`
	Type         string `yaml:"service_type"`
}

// Room leaves UUID empty to have one generated.
type Room struct {
	Key              string `yaml:"key"`
	UUID             string `yaml:"uuid"`
	ProviderRoomName string `yaml:"provider_room_name"`
	Type             string `yaml:"room_type"`
	Status           string `yaml:"status"`
	CreatedBy        string `yaml:"created_by"`
}

// ServiceSession ends one hour after StartTime when EndTime is omitted.
type ServiceSession struct {
	Key       string    `yaml:"key"`
	Service   string    `yaml:"service"`
	Room      string    `yaml:"room"`
	StartTime time.Time `yaml:"start_time"`
	EndTime   time.Time `yaml:"end_time"`
}

// Booking status defaults to pending.
type Booking struct {
	Client         string `yaml:"client"`
	Practitioner   string `yaml:"practitioner"`
	Service        string `yaml:"service"`
	ServiceSession string `yaml:"service_session"`
	Room           string `yaml:"room"`
	Status         string `yaml:"status"`
}

// Result maps fixture keys to the ids the store assigned.
type Result struct {
	Practitioners   map[string]int64
	Users           map[string]int64
	Services        map[string]int64
	Rooms           map[string]persistence.Room
	ServiceSessions map[string]int64
	Bookings        []int64
}

// Parse decodes a fixture, rejecting unknown fields.
func Parse(r io.Reader) (Fixture, error) {
	var fixture Fixture
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&fixture); err != nil {
		if errors.Is(err, io.EOF) {
			return Fixture{}, nil
		}
		return Fixture{}, fmt.Errorf("decode seed fixture: %w", err)
	}
	return fixture, nil
}

// ParseFile reads and decodes the fixture at path.
func ParseFile(path string) (Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("open seed fixture: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Loader writes fixtures into a store.
type Loader struct {
	store  persistence.Store
	now    func() time.Time
	hash   func(string) (string, error)
	newID  func() string
	logger *zap.Logger
}

// Option customizes a Loader.
type Option func(*Loader)

// WithClock sets the timestamp source for created_at columns.
func WithClock(now func() time.Time) Option {
	return func(l *Loader) {
		if now != nil {
			l.now = now
		}
	}
}

// WithPasswordHasher replaces the argon2id hasher, mainly for tests.
func WithPasswordHasher(hash func(string) (string, error)) Option {
	return func(l *Loader) {
		if hash != nil {
			l.hash = hash
		}
	}
}

// WithUUIDGenerator sets the generator for rooms without an explicit uuid.
func WithUUIDGenerator(newID func() string) Option {
	return func(l *Loader) {
		if newID != nil {
			l.newID = newID
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(l *Loader) { l.logger = logging.Default(logger) }
}

func NewLoader(store persistence.Store, opts ...Option) *Loader {
	l := &Loader{
		store:  store,
		now:    time.Now,
		hash:   application.HashPassword,
		newID:  uuid.NewString,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load inserts every record of fixture. Records are written in dependency
// order and loading stops at the first failure; rows written before it stay.
func (l *Loader) Load(ctx context.Context, fixture Fixture) (Result, error) {
	res := Result{
		Practitioners:   make(map[string]int64),
		Users:           make(map[string]int64),
		Services:        make(map[string]int64),
		Rooms:           make(map[string]persistence.Room),
		ServiceSessions: make(map[string]int64),
	}
	now := l.now().UTC()

	steps := []struct {
		name string
		run  func() error
	}{
		{"practitioners", func() error { return l.loadPractitioners(ctx, fixture.Practitioners, now, &res) }},
		{"users", func() error { return l.loadUsers(ctx, fixture.Users, now, &res) }},
		{"services", func() error { return l.loadServices(ctx, fixture.Services, now, &res) }},
		{"rooms", func() error { return l.loadRooms(ctx, fixture.Rooms, now, &res) }},
		{"service_sessions", func() error { return l.loadServiceSessions(ctx, fixture.ServiceSessions, now, &res) }},
		{"bookings", func() error { return l.loadBookings(ctx, fixture.Bookings, now, &res) }},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			l.logger.Error("seed failed", zap.String("section", step.name), zap.Error(err))
			return res, err
		}
	}

	l.logger.Info("seed loaded",
		zap.Int("practitioners", len(res.Practitioners)),
		zap.Int("users", len(res.Users)),
		zap.Int("services", len(res.Services)),
		zap.Int("rooms", len(res.Rooms)),
		zap.Int("service_sessions", len(res.ServiceSessions)),
		zap.Int("bookings", len(res.Bookings)),
	)
	return res, nil
}

func (l *Loader) loadPractitioners(ctx context.Context, items []Practitioner, now time.Time, res *Result) error {
	for i, item := range items {
		if err := requireKey(item.Key, res.Practitioners); err != nil {
			return fmt.Errorf("practitioners[%d]: %w", i, err)
		}
		created, err := l.store.CreatePractitioner(ctx, persistence.Practitioner{
			DisplayName: firstNonEmpty(item.DisplayName, item.Key),
			CreatedAt:   now,
		})
		if err != nil {
			return fmt.Errorf("practitioners[%d] %q: %w", i, item.Key, err)
		}
		res.Practitioners[item.Key] = created.ID
	}
	return nil
}

func (l *Loader) loadUsers(ctx context.Context, items []User, now time.Time, res *Result) error {
	for i, item := range items {
		if err := requireKey(item.Key, res.Users); err != nil {
			return fmt.Errorf("users[%d]: %w", i, err)
		}
		email := strings.TrimSpace(item.Email)
		if email == "" {
			return fmt.Errorf("users[%d] %q: email is required", i, item.Key)
		}

		hash := strings.TrimSpace(item.PasswordHash)
		if item.Password != "" {
			if hash != "" {
				return fmt.Errorf("users[%d] %q: set password or password_hash, not both", i, item.Key)
			}
			var err error
			if hash, err = l.hash(item.Password); err != nil {
				return fmt.Errorf("users[%d] %q: hash password: %w", i, item.Key, err)
			}
		}

		practitionerID, err := optionalRef(item.Practitioner, "practitioner", res.Practitioners)
		if err != nil {
			return fmt.Errorf("users[%d] %q: %w", i, item.Key, err)
		}

		created, err := l.store.CreateUser(ctx, persistence.User{
			Email:          email,
			DisplayName:    firstNonEmpty(item.DisplayName, email),
			PasswordHash:   hash,
			IsAdmin:        item.Admin,
			PractitionerID: practitionerID,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		if err != nil {
			return fmt.Errorf("users[%d] %q: %w", i, item.Key, err)
		}
		res.Users[item.Key] = created.ID
	}
	return nil
}

func (l *Loader) loadServices(ctx context.Context, items []Service, now time.Time, res *Result) error {
	for i, item := range items {
		if err := requireKey(item.Key, res.Services); err != nil {
			return fmt.Errorf("services[%d]: %w", i, err)
		}
		practitionerID, err := requiredRef(item.Practitioner, "practitioner", res.Practitioners)
		if err != nil {
			return fmt.Errorf("services[%d] %q: %w", i, item.Key, err)
		}
		serviceType := persistence.ServiceType(strings.ToLower(strings.TrimSpace(item.Type)))
		switch serviceType {
		case persistence.ServiceTypeSession, persistence.ServiceTypeWorkshop, persistence.ServiceTypeCourse, persistence.ServiceTypePackage:
		default:
			return fmt.Errorf("services[%d] %q: unknown service_type %q", i, item.Key, item.Type)
		}

		created, err := l.store.CreateService(ctx, persistence.Service{
			PractitionerID: practitionerID,
			Name:           firstNonEmpty(item.Name, item.Key),
			Type:           serviceType,
			CreatedAt:      now,
		})
		if err != nil {
			return fmt.Errorf("services[%d] %q: %w", i, item.Key, err)
		}
		res.Services[item.Key] = created.ID
	}
	return nil
}

func (l *Loader) loadRooms(ctx context.Context, items []Room, now time.Time, res *Result) error {
	for i, item := range items {
		if item.Key == "" {
			return fmt.Errorf("rooms[%d]: key is required", i)
		}
		if _, dup := res.Rooms[item.Key]; dup {
			return fmt.Errorf("rooms[%d]: duplicate key %q", i, item.Key)
		}

		raw := strings.TrimSpace(item.UUID)
		if raw == "" {
			raw = l.newID()
		}
		publicUUID, err := application.NormalizeRoomUUID(raw)
		if err != nil {
			return fmt.Errorf("rooms[%d] %q: %w", i, item.Key, err)
		}

		roomType := persistence.RoomType(strings.ToLower(firstNonEmpty(item.Type, string(persistence.RoomTypeIndividual))))
		switch roomType {
		case persistence.RoomTypeIndividual, persistence.RoomTypeGroup, persistence.RoomTypeWebinar:
		default:
			return fmt.Errorf("rooms[%d] %q: unknown room_type %q", i, item.Key, item.Type)
		}
		status := persistence.RoomStatus(strings.ToLower(firstNonEmpty(item.Status, string(persistence.RoomStatusScheduled))))
		switch status {
		case persistence.RoomStatusScheduled, persistence.RoomStatusActive, persistence.RoomStatusEnded:
		default:
			return fmt.Errorf("rooms[%d] %q: unknown status %q", i, item.Key, item.Status)
		}

		createdBy, err := optionalRef(item.CreatedBy, "created_by", res.Users)
		if err != nil {
			return fmt.Errorf("rooms[%d] %q: %w", i, item.Key, err)
		}

		created, err := l.store.CreateRoom(ctx, persistence.Room{
			PublicUUID:       publicUUID,
			ProviderRoomName: firstNonEmpty(item.ProviderRoomName, "room-"+publicUUID),
			Status:           status,
			Type:             roomType,
			CreatedByID:      createdBy,
			CreatedAt:        now,
			UpdatedAt:        now,
		})
		if err != nil {
			return fmt.Errorf("rooms[%d] %q: %w", i, item.Key, err)
		}
		res.Rooms[item.Key] = created
	}
	return nil
}

func (l *Loader) loadServiceSessions(ctx context.Context, items []ServiceSession, now time.Time, res *Result) error {
	for i, item := range items {
		if err := requireKey(item.Key, res.ServiceSessions); err != nil {
			return fmt.Errorf("service_sessions[%d]: %w", i, err)
		}
		serviceID, err := requiredRef(item.Service, "service", res.Services)
		if err != nil {
			return fmt.Errorf("service_sessions[%d] %q: %w", i, item.Key, err)
		}
		var roomID *int64
		if item.Room != "" {
			room, ok := res.Rooms[item.Room]
			if !ok {
				return fmt.Errorf("service_sessions[%d] %q: unknown room %q", i, item.Key, item.Room)
			}
			roomID = &room.ID
		}
		if item.StartTime.IsZero() {
			return fmt.Errorf("service_sessions[%d] %q: start_time is required", i, item.Key)
		}
		end := item.EndTime
		if end.IsZero() {
			end = item.StartTime.Add(defaultSessionLength)
		}
		if !end.After(item.StartTime) {
			return fmt.Errorf("service_sessions[%d] %q: end_time must be after start_time", i, item.Key)
		}

		created, err := l.store.CreateServiceSession(ctx, persistence.ServiceSession{
			ServiceID: serviceID,
			RoomID:    roomID,
			StartTime: item.StartTime.UTC(),
			EndTime:   end.UTC(),
			CreatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("service_sessions[%d] %q: %w", i, item.Key, err)
		}
		res.ServiceSessions[item.Key] = created.ID
	}
	return nil
}

func (l *Loader) loadBookings(ctx context.Context, items []Booking, now time.Time, res *Result) error {
	for i, item := range items {
		clientID, err := requiredRef(item.Client, "client", res.Users)
		if err != nil {
			return fmt.Errorf("bookings[%d]: %w", i, err)
		}
		practitionerID, err := requiredRef(item.Practitioner, "practitioner", res.Practitioners)
		if err != nil {
			return fmt.Errorf("bookings[%d]: %w", i, err)
		}
		serviceID, err := optionalRef(item.Service, "service", res.Services)
		if err != nil {
			return fmt.Errorf("bookings[%d]: %w", i, err)
		}
		sessionID, err := optionalRef(item.ServiceSession, "service_session", res.ServiceSessions)
		if err != nil {
			return fmt.Errorf("bookings[%d]: %w", i, err)
		}
		var roomID *int64
		if item.Room != "" {
			room, ok := res.Rooms[item.Room]
			if !ok {
				return fmt.Errorf("bookings[%d]: unknown room %q", i, item.Room)
			}
			roomID = &room.ID
		}

		status := persistence.BookingStatus(strings.ToLower(firstNonEmpty(item.Status, string(persistence.BookingStatusPending))))
		switch status {
		case persistence.BookingStatusPending, persistence.BookingStatusConfirmed, persistence.BookingStatusInProgress,
			persistence.BookingStatusCompleted, persistence.BookingStatusCancelled:
		default:
			return fmt.Errorf("bookings[%d]: unknown status %q", i, item.Status)
		}

		created, err := l.store.CreateBooking(ctx, persistence.Booking{
			ClientID:         clientID,
			PractitionerID:   practitionerID,
			ServiceID:        serviceID,
			ServiceSessionID: sessionID,
			RoomID:           roomID,
			Status:           status,
			CreatedAt:        now,
			UpdatedAt:        now,
		})
		if err != nil {
			return fmt.Errorf("bookings[%d]: %w", i, err)
		}
		res.Bookings = append(res.Bookings, created.ID)
	}
	return nil
}

func requireKey(key string, seen map[string]int64) error {
	if key == "" {
		return errors.New("key is required")
	}
	if _, dup := seen[key]; dup {
		return fmt.Errorf("duplicate key %q", key)
	}
	return nil
}

func requiredRef(key, field string, ids map[string]int64) (int64, error) {
	if key == "" {
		return 0, fmt.Errorf("%s is required", field)
	}
	id, ok := ids[key]
	if !ok {
		return 0, fmt.Errorf("unknown %s %q", field, key)
	}
	return id, nil
}

func optionalRef(key, field string, ids map[string]int64) (*int64, error) {
	if key == "" {
		return nil, nil
	}
	id, err := requiredRef(key, field, ids)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
