package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/wolfman30/aesthetics-booking/internal/availability"
	"github.com/wolfman30/aesthetics-booking/internal/bookings"
	"github.com/wolfman30/aesthetics-booking/internal/calendar"
	"github.com/wolfman30/aesthetics-booking/internal/clinic"
	"github.com/wolfman30/aesthetics-booking/internal/wizard"
)

var errQuit = errors.New("book: quit")

type serviceCatalog interface {
	Services(ctx context.Context) ([]clinic.Service, error)
}

// session walks one customer through the wizard on a terminal.
type session struct {
	ctrl    *wizard.Controller
	updates <-chan wizard.State
	catalog serviceCatalog
	in      *bufio.Scanner
	out     io.Writer
}

func (s *session) run(ctx context.Context) error {
	services, err := s.catalog.Services(ctx)
	if err != nil {
		return err
	}
	if len(services) == 0 {
		return errors.New("book: the clinic has no bookable services")
	}

	if err := s.chooseServices(services); err != nil {
		return s.quitOK(err)
	}
	if err := s.chooseTeamMember(); err != nil {
		return s.quitOK(err)
	}
	if err := s.chooseSlot(ctx); err != nil {
		return s.quitOK(err)
	}
	if err := s.collectContact(); err != nil {
		return s.quitOK(err)
	}

	id, err := s.ctrl.Submit(ctx)
	if err != nil {
		if errors.Is(err, bookings.ErrSlotUnavailable) {
			fmt.Fprintln(s.out, "Sorry, that time was just taken. Please start again.")
		}
		return err
	}
	fmt.Fprintf(s.out, "Booked! Your confirmation number is %s.\n", id)
	return nil
}

func (s *session) quitOK(err error) error {
	if errors.Is(err, errQuit) {
		fmt.Fprintln(s.out, "Goodbye.")
		return nil
	}
	return err
}

func (s *session) chooseServices(services []clinic.Service) error {
	fmt.Fprintln(s.out, "Services:")
	for i, svc := range services {
		fmt.Fprintf(s.out, "  %d) %-22s %3d min  $%.2f\n", i+1, svc.Name, svc.DurationMinutes, svc.Price)
	}
	for {
		line, err := s.prompt("Choose services (e.g. 1,1,3): ")
		if err != nil {
			return err
		}
		picks, err := parseChoices(line, len(services))
		if err != nil {
			fmt.Fprintln(s.out, err)
			continue
		}
		for _, idx := range picks {
			if _, err := s.ctrl.Dispatch(wizard.AddService{Item: orderItem(services[idx])}); err != nil {
				fmt.Fprintln(s.out, err)
			}
		}
		cart := s.ctrl.State().Cart
		if cart.Empty() {
			continue
		}
		fmt.Fprintf(s.out, "Cart: %d min, $%.2f\n", cart.TotalDuration(), cart.TotalPrice())
		return nil
	}
}

func (s *session) chooseTeamMember() error {
	for {
		id, err := s.prompt("Team member id (e.g. tm-1): ")
		if err != nil {
			return err
		}
		if id == "" {
			continue
		}
		if _, err := s.ctrl.Dispatch(wizard.SelectTeamMember{TeamMemberID: id}); err != nil {
			fmt.Fprintln(s.out, err)
			continue
		}
		return nil
	}
}

func (s *session) chooseSlot(ctx context.Context) error {
	for {
		st, err := s.awaitAvailability(ctx)
		if err != nil {
			return err
		}
		if st.AvailabilityErr != nil {
			fmt.Fprintln(s.out, "Could not load availability:", st.AvailabilityErr)
			if _, err := s.prompt("Press enter to retry: "); err != nil {
				return err
			}
			if _, err := s.ctrl.Dispatch(wizard.RefreshAvailability{}); err != nil {
				return err
			}
			continue
		}
		renderGrid(s.out, st)

		date, err := s.prompt("Date (YYYY-MM-DD): ")
		if err != nil {
			return err
		}
		if _, err := s.ctrl.Dispatch(wizard.SelectDate{Date: date}); err != nil {
			fmt.Fprintln(s.out, err)
			continue
		}
		day, _ := s.ctrl.State().Day(date)
		fmt.Fprintf(s.out, "Open times: %s\n", strings.Join(day.TimeSlots, " "))

		tm, err := s.prompt("Time (HH:MM): ")
		if err != nil {
			return err
		}
		if _, err := s.ctrl.Dispatch(wizard.SelectTime{Time: tm}); err != nil {
			fmt.Fprintln(s.out, err)
			continue
		}
		if _, err := s.ctrl.Dispatch(wizard.Next{}); err != nil {
			fmt.Fprintln(s.out, err)
			continue
		}
		return nil
	}
}

func (s *session) awaitAvailability(ctx context.Context) (wizard.State, error) {
	st := s.ctrl.State()
	if st.Loading {
		fmt.Fprintln(s.out, "Loading availability...")
	}
	for st.Loading {
		select {
		case <-ctx.Done():
			return st, ctx.Err()
		case <-s.updates:
			st = s.ctrl.State()
		}
	}
	return st, nil
}

func (s *session) collectContact() error {
	renderPreview(s.out, s.ctrl.State().Order())
	var c wizard.Contact
	var err error
	if c.Name, err = s.prompt("Name: "); err != nil {
		return err
	}
	if c.Email, err = s.prompt("Email: "); err != nil {
		return err
	}
	if c.Phone, err = s.prompt("Phone (optional): "); err != nil {
		return err
	}
	if _, err := s.ctrl.Dispatch(wizard.SetContact{Contact: c}); err != nil {
		return err
	}
	_, err = s.ctrl.Dispatch(wizard.Next{})
	return err
}

func (s *session) prompt(label string) (string, error) {
	fmt.Fprint(s.out, label)
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return "", err
		}
		return "", errQuit
	}
	line := strings.TrimSpace(s.in.Text())
	if line == "q" || line == "quit" {
		return "", errQuit
	}
	return line, nil
}

// parseChoices turns "1, 3,3" into zero-based indexes below n.
func parseChoices(line string, n int) ([]int, error) {
	var out []int
	for _, field := range strings.FieldsFunc(line, func(r rune) bool { return r == ',' || r == ' ' }) {
		v, err := strconv.Atoi(field)
		if err != nil || v < 1 || v > n {
			return nil, fmt.Errorf("choose numbers between 1 and %d", n)
		}
		out = append(out, v-1)
	}
	if len(out) == 0 {
		return nil, errors.New("choose at least one service")
	}
	return out, nil
}

var statusMarks = map[availability.Status]string{
	availability.StatusAvailable: "",
	availability.StatusFull:      "x",
	availability.StatusClosed:    "-",
}

// renderGrid prints the loaded window as a Monday-first calendar. Available
// days show the day number, full days an x and closed days a dash.
func renderGrid(w io.Writer, st wizard.State) {
	fmt.Fprintln(w, " Mo  Tu  We  Th  Fr  Sa  Su")
	for _, week := range calendar.Weeks(st.Grid()) {
		var b strings.Builder
		for _, day := range week {
			if day == nil {
				b.WriteString("    ")
				continue
			}
			dom := day.Date[len(day.Date)-2:]
			fmt.Fprintf(&b, " %s%-1s", dom, statusMarks[day.Status])
		}
		fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
	}
	fmt.Fprintln(w, "(x = fully booked, - = closed)")
}

func renderPreview(w io.Writer, o wizard.Order) {
	fmt.Fprintf(w, "\n%s at %s with %s\n", o.Date, o.Time, o.TeamMemberID)
	for _, it := range o.Items {
		fmt.Fprintf(w, "  %dx %s\n", it.Quantity, it.Name)
	}
	fmt.Fprintf(w, "  %d min, total $%.2f\n\n", o.DurationMinutes, o.Total)
}
