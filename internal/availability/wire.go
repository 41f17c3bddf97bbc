package availability

// DayPayload is the wire form of a Day inside availability responses.
type DayPayload struct {
	Status         Status        `json:"status" validate:"required,oneof=available full closed"`
	AvailableSlots []string      `json:"availableSlots" validate:"dive,clock"`
	BookedSlots    []string      `json:"bookedSlots" validate:"dive,clock"`
	AllSlots       []string      `json:"allSlots,omitempty" validate:"omitempty,dive,clock"`
	WorkingHours   *WorkingHours `json:"workingHours"`
}

// RangeResponse is returned by the team range endpoint, keyed by date.
type RangeResponse struct {
	Availability map[string]DayPayload `json:"availability"`
}

// DayResponse is returned by the single-day team endpoint.
type DayResponse struct {
	Date string `json:"date"`
	DayPayload
}

// PayloadFromDay converts a Day to its wire form.
func PayloadFromDay(d Day) DayPayload {
	return DayPayload{
		Status:         d.Status,
		AvailableSlots: nonNil(d.TimeSlots),
		BookedSlots:    nonNil(d.BookedSlots),
		AllSlots:       nonNil(d.AllSlots),
		WorkingHours:   d.WorkingHours,
	}
}

// DayFromPayload converts a wire payload back into a Day.
func DayFromPayload(date string, p DayPayload) Day {
	return Day{
		Date:         date,
		Status:       p.Status,
		TimeSlots:    nonNil(p.AvailableSlots),
		AllSlots:     nonNil(p.AllSlots),
		BookedSlots:  nonNil(p.BookedSlots),
		WorkingHours: p.WorkingHours,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
