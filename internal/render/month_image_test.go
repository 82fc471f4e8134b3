package render

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"github.com/Freeeeeet/speaker_booking/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMonth(t *testing.T) {
	booked := &model.Reservation{
		Date:    time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC),
		Kind:    model.OccupancyBooking,
		Booking: &model.BookingDetails{SchoolName: "Oak Hill"},
	}
	blocked := model.NewBlock(time.Date(2025, time.June, 20, 12, 0, 0, 0, time.UTC), "Holiday")
	other := model.NewBlock(time.Date(2025, time.July, 1, 12, 0, 0, 0, time.UTC), "")

	m := NewMonth(2025, time.June, time.Time{}, []*model.Reservation{booked, blocked, other})

	assert.Equal(t, DayBooked, m.Days[10])
	assert.Equal(t, DayBlocked, m.Days[20])
	assert.Equal(t, DayFree, m.Days[1])
	assert.Len(t, m.Days, 2)
}

func TestGenerateMonthImage(t *testing.T) {
	m := NewMonth(2025, time.June, time.Date(2025, time.June, 3, 0, 0, 0, 0, time.UTC), nil)
	m.Days[10] = DayBooked
	m.Days[20] = DayBlocked

	data, err := GenerateMonthImage(m)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, imageWidth, img.Bounds().Dx())
	assert.Equal(t, imageHeight, img.Bounds().Dy())
}

func TestGenerateMonthImage_InvalidMonth(t *testing.T) {
	_, err := GenerateMonthImage(Month{Year: 2025, Month: 13})
	assert.Error(t, err)
}

func TestWeekdayIndex(t *testing.T) {
	assert.Equal(t, 0, weekdayIndex(time.Monday))
	assert.Equal(t, 6, weekdayIndex(time.Sunday))
	assert.Equal(t, 5, weekdayIndex(time.Saturday))
}
