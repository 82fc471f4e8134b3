package model

import "fmt"

// TimeSlot получасовой слот начала выступления, например "9:30 AM"
type TimeSlot string

// TimeSlotBlocked слот-заглушка для блокировок
const TimeSlotBlocked TimeSlot = "BLOCKED"

const (
	firstSlotHour = 8
	lastSlotHour  = 16 // последний слот 4:30 PM
)

var timeSlots = buildTimeSlots()

func buildTimeSlots() []TimeSlot {
	slots := make([]TimeSlot, 0, (lastSlotHour-firstSlotHour+1)*2)
	for h := firstSlotHour; h <= lastSlotHour; h++ {
		for _, m := range []int{0, 30} {
			slots = append(slots, formatSlot(h, m))
		}
	}
	return slots
}

func formatSlot(hour, minute int) TimeSlot {
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	h := hour % 12
	if h == 0 {
		h = 12
	}
	return TimeSlot(fmt.Sprintf("%d:%02d %s", h, minute, suffix))
}

// TimeSlots возвращает все допустимые слоты по порядку
func TimeSlots() []TimeSlot {
	out := make([]TimeSlot, len(timeSlots))
	copy(out, timeSlots)
	return out
}

// Valid проверяет, что слот из списка допустимых (BLOCKED не допустим для брони)
func (s TimeSlot) Valid() bool {
	for _, slot := range timeSlots {
		if slot == s {
			return true
		}
	}
	return false
}
