package availability

// IsSlotAvailable reports whether an appointment of durationMinutes can start
// at start. Every hour the appointment touches must lie inside the working
// hours and hold no booked slot, the block may not run past midnight, and the
// appointment must end strictly before closing.
func IsSlotAvailable(start string, booked []string, hours WorkingHours, durationMinutes int) bool {
	if durationMinutes <= 0 {
		return false
	}
	startMinutes, err := ParseClock(start)
	if err != nil || startMinutes >= minutesPerDay {
		return false
	}
	openMinutes, closeMinutes, err := hours.Minutes()
	if err != nil {
		return false
	}
	if startMinutes+durationMinutes >= closeMinutes {
		return false
	}

	bookedMinutes := make([]int, 0, len(booked))
	for _, b := range booked {
		if m, err := ParseClock(b); err == nil {
			bookedMinutes = append(bookedMinutes, m)
		}
	}

	startHour := startMinutes / 60
	for i := 0; i < DurationHours(durationMinutes); i++ {
		checkHour := startHour + i
		if checkHour >= 24 {
			return false
		}
		bucket := checkHour * 60
		if bucket < openMinutes || bucket >= closeMinutes {
			return false
		}
		for _, b := range bookedMinutes {
			if b >= bucket && b < bucket+60 {
				return false
			}
		}
	}
	return true
}

// EndsBeforeClose reports whether an appointment starting at start ends
// strictly before closing. Unlike IsSlotAvailable it ignores bookings.
func EndsBeforeClose(start string, hours WorkingHours, durationMinutes int) bool {
	startMinutes, err := ParseClock(start)
	if err != nil {
		return false
	}
	_, closeMinutes, err := hours.Minutes()
	if err != nil {
		return false
	}
	return startMinutes+durationMinutes < closeMinutes
}
