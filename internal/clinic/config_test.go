package clinic

import (
	"errors"
	"testing"
	"time"

	"github.com/wolfman30/aesthetics-booking/internal/availability"
)

func TestIsOpenAt(t *testing.T) {
	cfg := DefaultConfig("test-clinic")

	loc, _ := time.LoadLocation("America/New_York")

	// Monday 10 AM - should be open
	monday10am := time.Date(2026, 10, 12, 10, 0, 0, 0, loc)
	if !cfg.IsOpenAt(monday10am) {
		t.Error("expected clinic to be open Monday 10 AM")
	}

	// Sunday - closed
	sunday := time.Date(2026, 10, 18, 10, 0, 0, 0, loc)
	if cfg.IsOpenAt(sunday) {
		t.Error("expected clinic to be closed Sunday")
	}

	// Monday 7 AM - before opening
	monday7am := time.Date(2026, 10, 12, 7, 0, 0, 0, loc)
	if cfg.IsOpenAt(monday7am) {
		t.Error("expected clinic to be closed at 7 AM")
	}
}

func TestWorkingHoursOnPrefersMemberHours(t *testing.T) {
	cfg := DefaultConfig("test-clinic")
	monday := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)
	tuesday := monday.AddDate(0, 0, 1)

	director, err := cfg.Member("tm-1")
	if err != nil {
		t.Fatalf("member: %v", err)
	}
	hours := cfg.WorkingHoursOn(director, monday)
	if hours == nil || hours.Start != "09:00" || hours.End != "18:00" {
		t.Fatalf("expected clinic hours for tm-1, got %+v", hours)
	}

	nurse, _ := cfg.Member("tm-2")
	if got := cfg.WorkingHoursOn(nurse, monday); got != nil {
		t.Fatalf("expected tm-2 off on Monday, got %+v", got)
	}
	if got := cfg.WorkingHoursOn(nurse, tuesday); got == nil || got.End != "19:00" {
		t.Fatalf("expected tm-2 Tuesday until 19:00, got %+v", got)
	}
}

func TestScheduleForUnknownMember(t *testing.T) {
	cfg := DefaultConfig("test-clinic")
	cfg.Team[1].Active = false

	if _, err := cfg.ScheduleFor("tm-2"); !errors.Is(err, availability.ErrUnknownTeamMember) {
		t.Fatalf("expected inactive member to be unknown, got %v", err)
	}
	if _, err := cfg.ScheduleFor("nobody"); !errors.Is(err, ErrTeamMemberNotFound) {
		t.Fatalf("expected ErrTeamMemberNotFound, got %v", err)
	}

	sched, err := cfg.ScheduleFor("tm-1")
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if sched.Location().String() != "America/New_York" {
		t.Fatalf("unexpected location %s", sched.Location())
	}
}

func TestActiveServicesFilters(t *testing.T) {
	cfg := DefaultConfig("test-clinic")
	cfg.Services[0].Active = false

	all := cfg.ActiveServices("", "")
	if len(all) != len(cfg.Services)-1 {
		t.Fatalf("expected inactive service filtered, got %d", len(all))
	}
	for _, s := range cfg.ActiveServices(MainTabByCondition, "") {
		if s.MainTab != MainTabByCondition {
			t.Fatalf("unexpected tab %s", s.MainTab)
		}
	}
	body := cfg.ActiveServices("", "body")
	if len(body) != 2 {
		t.Fatalf("expected 2 body services, got %d", len(body))
	}

	if _, err := cfg.ServiceByName("botox"); !errors.Is(err, ErrServiceNotFound) {
		t.Fatalf("expected inactive botox to be unavailable, got %v", err)
	}
	if svc, err := cfg.ServiceByName("hydrafacial"); err != nil || svc.ID != "hydrafacial" {
		t.Fatalf("expected case-insensitive name match, got %+v %v", svc, err)
	}
}

func TestValidate(t *testing.T) {
	if err := DefaultConfig("test-clinic").Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	cases := map[string]func(*Config){
		"bad timezone":     func(c *Config) { c.Timezone = "Mars/Olympus" },
		"inverted hours":   func(c *Config) { c.BusinessHours.Monday = &DayHours{Open: "18:00", Close: "09:00"} },
		"bad clock":        func(c *Config) { c.BusinessHours.Monday = &DayHours{Open: "9am", Close: "17:00"} },
		"zero duration":    func(c *Config) { c.Services[0].DurationMinutes = 0 },
		"bad tab":          func(c *Config) { c.Services[0].MainTab = "featured" },
		"duplicate member": func(c *Config) { c.Team[1].ID = c.Team[0].ID },
		"member hours":     func(c *Config) { c.Team[1].Hours.Tuesday.Close = "08:00" },
	}
	for name, mutate := range cases {
		cfg := DefaultConfig("test-clinic")
		mutate(cfg)
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("%s: expected ErrInvalidConfig, got %v", name, err)
		}
	}
}
