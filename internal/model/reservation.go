package model

import (
	"time"

	"github.com/google/uuid"
)

// OccupancyKind различает бронь школы и блокировку дня админом
type OccupancyKind string

const (
	OccupancyBooking OccupancyKind = "booking" // Бронь от школы
	OccupancyBlock   OccupancyKind = "block"   // День закрыт админом
)

// BookingDetails данные заявителя, есть только у брони
type BookingDetails struct {
	TimeSlot        TimeSlot `json:"timeSlot"`
	SchoolName      string   `json:"schoolName"`
	ContactName     string   `json:"contactName"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone"`
	Address         string   `json:"address"`
	City            string   `json:"city"`
	NumberOfTalks   int      `json:"numberOfTalks"`
	IncludeWorkshop bool     `json:"includeWorkshop"`
}

// Reservation занятость одного календарного дня.
// В день может быть не больше одной записи любого вида.
type Reservation struct {
	ID          uuid.UUID       `json:"id"`
	Date        time.Time       `json:"date"` // всегда 12:00 UTC
	Kind        OccupancyKind   `json:"kind"`
	Booking     *BookingDetails `json:"booking,omitempty"` // только для OccupancyBooking
	BlockReason string          `json:"blockReason,omitempty"`
	EditToken   string          `json:"-"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// IsBlocked возвращает true для блокировки админом
func (r *Reservation) IsBlocked() bool {
	return r.Kind == OccupancyBlock
}

// NewBlock создаёт блокировку дня
func NewBlock(date time.Time, reason string) *Reservation {
	return &Reservation{
		Date:        date,
		Kind:        OccupancyBlock,
		BlockReason: reason,
	}
}

// Clone возвращает глубокую копию записи
func (r *Reservation) Clone() *Reservation {
	c := *r
	if r.Booking != nil {
		details := *r.Booking
		c.Booking = &details
	}
	return &c
}

// BookingPatch перечисляет поля брони, которые можно менять по токену.
// nil означает "не менять". ID и EditToken сюда не входят.
type BookingPatch struct {
	Date            *time.Time
	TimeSlot        *TimeSlot
	SchoolName      *string
	ContactName     *string
	Email           *string
	Phone           *string
	Address         *string
	City            *string
	NumberOfTalks   *int
	IncludeWorkshop *bool
}

// IsEmpty true если патч ничего не меняет
func (p BookingPatch) IsEmpty() bool {
	return p.Date == nil && p.TimeSlot == nil && p.SchoolName == nil &&
		p.ContactName == nil && p.Email == nil && p.Phone == nil &&
		p.Address == nil && p.City == nil && p.NumberOfTalks == nil &&
		p.IncludeWorkshop == nil
}

// Apply переносит заданные поля в детали брони
func (p BookingPatch) Apply(r *Reservation) {
	if p.Date != nil {
		r.Date = *p.Date
	}
	if r.Booking == nil {
		return
	}
	d := r.Booking
	if p.TimeSlot != nil {
		d.TimeSlot = *p.TimeSlot
	}
	if p.SchoolName != nil {
		d.SchoolName = *p.SchoolName
	}
	if p.ContactName != nil {
		d.ContactName = *p.ContactName
	}
	if p.Email != nil {
		d.Email = *p.Email
	}
	if p.Phone != nil {
		d.Phone = *p.Phone
	}
	if p.Address != nil {
		d.Address = *p.Address
	}
	if p.City != nil {
		d.City = *p.City
	}
	if p.NumberOfTalks != nil {
		d.NumberOfTalks = *p.NumberOfTalks
	}
	if p.IncludeWorkshop != nil {
		d.IncludeWorkshop = *p.IncludeWorkshop
	}
}
