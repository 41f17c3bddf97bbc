// Package clinic provides clinic-specific configuration: opening hours, the
// service catalogue and the team, and resolves working hours for availability.
package clinic

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/aesthetics-booking/internal/availability"
)

// DayHours represents the opening hours for a single day.
// Nil means closed that day.
type DayHours struct {
	Open  string `json:"open" validate:"required,clock"`  // "09:00" in 24-hour format
	Close string `json:"close" validate:"required,clock"` // "18:00" in 24-hour format
}

// BusinessHours maps day names to their hours.
type BusinessHours struct {
	Monday    *DayHours `json:"monday,omitempty"`
	Tuesday   *DayHours `json:"tuesday,omitempty"`
	Wednesday *DayHours `json:"wednesday,omitempty"`
	Thursday  *DayHours `json:"thursday,omitempty"`
	Friday    *DayHours `json:"friday,omitempty"`
	Saturday  *DayHours `json:"saturday,omitempty"`
	Sunday    *DayHours `json:"sunday,omitempty"`
}

// NotificationPrefs holds booking notification preferences for a clinic.
type NotificationPrefs struct {
	EmailEnabled    bool     `json:"email_enabled"`
	EmailRecipients []string `json:"email_recipients,omitempty" validate:"omitempty,dive,email"` // staff copies

	NotifyOnBooking      bool `json:"notify_on_booking"`       // new booking created
	NotifyOnStatusChange bool `json:"notify_on_status_change"` // confirmed, cancelled, ...
}

// Main tabs group services on the booking page.
const (
	MainTabBookNow     = "book-now"
	MainTabByCondition = "by-condition"
)

// Service is one bookable treatment in the catalogue.
type Service struct {
	ID              string  `json:"id" validate:"required"`
	Name            string  `json:"name" validate:"required"`
	Description     string  `json:"description,omitempty"`
	Price           float64 `json:"price" validate:"gte=0"`
	DurationMinutes int     `json:"duration_minutes" validate:"gt=0"`
	Category        string  `json:"category,omitempty"` // e.g. Face, Body
	MainTab         string  `json:"main_tab" validate:"omitempty,oneof=book-now by-condition"`
	Active          bool    `json:"active"`
}

// TeamMember is a practitioner who can be booked. Nil Hours means the
// clinic's business hours apply.
type TeamMember struct {
	ID     string         `json:"id" validate:"required"`
	Name   string         `json:"name" validate:"required"`
	Role   string         `json:"role,omitempty"`
	Email  string         `json:"email,omitempty" validate:"omitempty,email"`
	Active bool           `json:"active"`
	Hours  *BusinessHours `json:"hours,omitempty"`
}

// Config holds clinic-specific configuration.
type Config struct {
	ClinicID      string            `json:"clinic_id" validate:"required"`
	Name          string            `json:"name" validate:"required"`
	Email         string            `json:"email,omitempty" validate:"omitempty,email"`
	Phone         string            `json:"phone,omitempty"`
	Address       string            `json:"address,omitempty"`
	Timezone      string            `json:"timezone" validate:"required,timezone"` // e.g., "America/New_York"
	BusinessHours BusinessHours     `json:"business_hours"`
	Services      []Service         `json:"services" validate:"dive"`
	Team          []TeamMember      `json:"team" validate:"dive"`
	Notifications NotificationPrefs `json:"notifications"`
}

var (
	// ErrTeamMemberNotFound is returned for unknown or inactive team members.
	ErrTeamMemberNotFound = fmt.Errorf("clinic: team member not found: %w", availability.ErrUnknownTeamMember)
	// ErrServiceNotFound is returned for unknown or inactive services.
	ErrServiceNotFound = errors.New("clinic: service not found")
	// ErrInvalidConfig is returned when a config fails validation.
	ErrInvalidConfig = errors.New("clinic: invalid config")
)

// DefaultConfig returns a sensible default configuration.
func DefaultConfig(clinicID string) *Config {
	weekday := func() *DayHours { return &DayHours{Open: "09:00", Close: "18:00"} }
	return &Config{
		ClinicID: clinicID,
		Name:     "Aesthetics Clinic",
		Timezone: "America/New_York",
		BusinessHours: BusinessHours{
			Monday:    weekday(),
			Tuesday:   weekday(),
			Wednesday: weekday(),
			Thursday:  weekday(),
			Friday:    &DayHours{Open: "09:00", Close: "17:00"},
			Saturday:  &DayHours{Open: "10:00", Close: "14:00"},
			Sunday:    nil, // Closed
		},
		Services: []Service{
			{ID: "botox", Name: "Botox", Price: 300, DurationMinutes: 30, Category: "Face", MainTab: MainTabBookNow, Active: true},
			{ID: "dermal-filler", Name: "Dermal Filler", Price: 650, DurationMinutes: 60, Category: "Face", MainTab: MainTabBookNow, Active: true},
			{ID: "hydrafacial", Name: "HydraFacial", Price: 199, DurationMinutes: 60, Category: "Face", MainTab: MainTabBookNow, Active: true},
			{ID: "laser-hair-removal", Name: "Laser Hair Removal", Price: 250, DurationMinutes: 45, Category: "Body", MainTab: MainTabBookNow, Active: true},
			{ID: "acne-treatment", Name: "Acne Treatment", Price: 180, DurationMinutes: 45, Category: "Face", MainTab: MainTabByCondition, Active: true},
			{ID: "body-contouring", Name: "Body Contouring", Price: 450, DurationMinutes: 90, Category: "Body", MainTab: MainTabByCondition, Active: true},
		},
		Team: []TeamMember{
			{ID: "tm-1", Name: "Dr. Maya Chen", Role: "Medical Director", Active: true},
			{ID: "tm-2", Name: "Jordan Reyes", Role: "Aesthetic Nurse", Active: true, Hours: &BusinessHours{
				Tuesday:   &DayHours{Open: "10:00", Close: "19:00"},
				Wednesday: &DayHours{Open: "10:00", Close: "19:00"},
				Thursday:  &DayHours{Open: "10:00", Close: "19:00"},
				Saturday:  &DayHours{Open: "09:00", Close: "15:00"},
			}},
		},
		Notifications: NotificationPrefs{
			EmailEnabled:         false, // Disabled by default until configured
			NotifyOnBooking:      true,
			NotifyOnStatusChange: true,
		},
	}
}

// Location loads the clinic timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// GetHoursForDay returns the hours for a given weekday (0=Sunday, 6=Saturday).
func (b *BusinessHours) GetHoursForDay(weekday time.Weekday) *DayHours {
	switch weekday {
	case time.Sunday:
		return b.Sunday
	case time.Monday:
		return b.Monday
	case time.Tuesday:
		return b.Tuesday
	case time.Wednesday:
		return b.Wednesday
	case time.Thursday:
		return b.Thursday
	case time.Friday:
		return b.Friday
	case time.Saturday:
		return b.Saturday
	default:
		return nil
	}
}

// HasAnyHours returns true if at least one day has business hours configured.
func (b *BusinessHours) HasAnyHours() bool {
	return b.Sunday != nil || b.Monday != nil || b.Tuesday != nil ||
		b.Wednesday != nil || b.Thursday != nil || b.Friday != nil || b.Saturday != nil
}

func (b *BusinessHours) days() []*DayHours {
	return []*DayHours{b.Sunday, b.Monday, b.Tuesday, b.Wednesday, b.Thursday, b.Friday, b.Saturday}
}

// IsOpenAt checks if the clinic is open at the given time.
func (c *Config) IsOpenAt(t time.Time) bool {
	localTime := t.In(c.Location())
	hours := c.BusinessHours.GetHoursForDay(localTime.Weekday())
	if hours == nil {
		return false
	}
	wh := availability.WorkingHours{Start: hours.Open, End: hours.Close}
	open, closing, err := wh.Minutes()
	if err != nil {
		return false
	}
	current := localTime.Hour()*60 + localTime.Minute()
	return current >= open && current < closing
}

// Member returns an active team member by id.
func (c *Config) Member(id string) (TeamMember, error) {
	for _, m := range c.Team {
		if m.ID == id && m.Active {
			return m, nil
		}
	}
	return TeamMember{}, fmt.Errorf("%w: %q", ErrTeamMemberNotFound, id)
}

// ActiveTeam lists team members that can be booked.
func (c *Config) ActiveTeam() []TeamMember {
	out := []TeamMember{}
	for _, m := range c.Team {
		if m.Active {
			out = append(out, m)
		}
	}
	return out
}

// ActiveServices lists bookable services, optionally filtered by main tab and
// category (case-insensitive, empty means any).
func (c *Config) ActiveServices(mainTab, category string) []Service {
	out := []Service{}
	for _, s := range c.Services {
		if !s.Active {
			continue
		}
		if mainTab != "" && !strings.EqualFold(s.MainTab, mainTab) {
			continue
		}
		if category != "" && !strings.EqualFold(s.Category, category) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// ServiceByName finds an active service by id or case-insensitive name.
func (c *Config) ServiceByName(name string) (Service, error) {
	name = strings.TrimSpace(name)
	for _, s := range c.Services {
		if s.Active && (s.ID == name || strings.EqualFold(s.Name, name)) {
			return s, nil
		}
	}
	return Service{}, fmt.Errorf("%w: %q", ErrServiceNotFound, name)
}

// WorkingHoursOn resolves a member's hours on date: the member's own hours
// when set, otherwise the clinic's. Nil means closed.
func (c *Config) WorkingHoursOn(member TeamMember, date time.Time) *availability.WorkingHours {
	hours := &c.BusinessHours
	if member.Hours != nil {
		hours = member.Hours
	}
	day := hours.GetHoursForDay(date.Weekday())
	if day == nil {
		return nil
	}
	return &availability.WorkingHours{Start: day.Open, End: day.Close}
}

// Validate checks field formats and that every opening precedes its closing.
func (c *Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	check := func(owner string, b *BusinessHours) error {
		for _, d := range b.days() {
			if d == nil {
				continue
			}
			if _, _, err := (availability.WorkingHours{Start: d.Open, End: d.Close}).Minutes(); err != nil {
				return fmt.Errorf("%w: %s hours %s-%s: %v", ErrInvalidConfig, owner, d.Open, d.Close, err)
			}
		}
		return nil
	}
	if err := check("clinic", &c.BusinessHours); err != nil {
		return err
	}
	seen := map[string]bool{}
	for _, m := range c.Team {
		if seen[m.ID] {
			return fmt.Errorf("%w: duplicate team member %q", ErrInvalidConfig, m.ID)
		}
		seen[m.ID] = true
		if m.Hours != nil {
			if err := check(m.ID, m.Hours); err != nil {
				return err
			}
		}
	}
	return nil
}

var configValidator = availability.NewValidator()

// memberSchedule resolves one team member's hours for availability.
type memberSchedule struct {
	cfg    *Config
	member TeamMember
	loc    *time.Location
}

func (s memberSchedule) Location() *time.Location { return s.loc }

func (s memberSchedule) HoursOn(date time.Time) *availability.WorkingHours {
	return s.cfg.WorkingHoursOn(s.member, date)
}

// ScheduleFor returns the availability schedule of an active team member.
func (c *Config) ScheduleFor(teamMemberID string) (availability.Schedule, error) {
	member, err := c.Member(teamMemberID)
	if err != nil {
		return nil, err
	}
	return memberSchedule{cfg: c, member: member, loc: c.Location()}, nil
}
