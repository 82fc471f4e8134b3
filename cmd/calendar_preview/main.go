package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Freeeeeet/speaker_booking/internal/model"
	"github.com/Freeeeeet/speaker_booking/internal/render"
)

// Рисует календарь текущего месяца на тестовых данных, без базы
func main() {
	out := flag.String("out", "calendar.png", "output file")
	flag.Parse()

	now := time.Now().UTC()
	day := func(d int) time.Time {
		return time.Date(now.Year(), now.Month(), d, 12, 0, 0, 0, time.UTC)
	}

	occupancy := []*model.Reservation{
		{Date: day(3), Kind: model.OccupancyBooking, Booking: &model.BookingDetails{SchoolName: "Oak Hill"}},
		{Date: day(10), Kind: model.OccupancyBooking, Booking: &model.BookingDetails{SchoolName: "Elm Park"}},
		model.NewBlock(day(14), "Conference"),
		{Date: day(21), Kind: model.OccupancyBooking, Booking: &model.BookingDetails{SchoolName: "Riverside"}},
		model.NewBlock(day(25), "Holiday"),
	}

	imageData, err := render.GenerateMonthImage(render.NewMonth(now.Year(), now.Month(), now, occupancy))
	if err != nil {
		fmt.Printf("Failed to render calendar: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(*out, imageData, 0644); err != nil {
		fmt.Printf("Failed to write file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Calendar for %s saved to %s (%d reservations)\n", now.Format("January 2006"), *out, len(occupancy))
}
