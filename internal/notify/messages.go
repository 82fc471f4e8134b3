package notify

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Freeeeeet/speaker_booking/internal/dates"
	"github.com/Freeeeeet/speaker_booking/internal/model"
)

type messageData struct {
	Day        string
	Booking    model.BookingDetails
	ManageLink string
}

var templates = template.Must(template.New("").Parse(`
{{define "confirmation"}}Hello {{.Booking.ContactName}},

Thank you for booking a visit for {{.Booking.SchoolName}}.

Date: {{.Day}}
Time: {{.Booking.TimeSlot}}
Talks: {{.Booking.NumberOfTalks}}{{if .Booking.IncludeWorkshop}} (with workshop){{end}}
Location: {{.Booking.Address}}, {{.Booking.City}}

You can view, change or cancel this booking at any time:
{{.ManageLink}}

Keep this link private: anyone who has it can manage the booking.
{{end}}

{{define "updated"}}Hello {{.Booking.ContactName}},

Your booking for {{.Booking.SchoolName}} has been updated.

Date: {{.Day}}
Time: {{.Booking.TimeSlot}}
Talks: {{.Booking.NumberOfTalks}}{{if .Booking.IncludeWorkshop}} (with workshop){{end}}
Location: {{.Booking.Address}}, {{.Booking.City}}

Manage your booking: {{.ManageLink}}
{{end}}

{{define "coach"}}{{.Booking.SchoolName}} ({{.Booking.City}})
Date: {{.Day}} at {{.Booking.TimeSlot}}
Talks: {{.Booking.NumberOfTalks}}, workshop: {{if .Booking.IncludeWorkshop}}yes{{else}}no{{end}}
Contact: {{.Booking.ContactName}}, {{.Booking.Email}}, {{.Booking.Phone}}
Address: {{.Booking.Address}}, {{.Booking.City}}
{{end}}
`))

func render(name string, data messageData) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

func newMessageData(r *model.Reservation, baseURL string) messageData {
	data := messageData{
		Day:        dates.FormatDay(r.Date),
		ManageLink: ManageLink(baseURL, r.EditToken),
	}
	if r.Booking != nil {
		data.Booking = *r.Booking
	}
	return data
}

// ManageLink ссылка на страницу управления бронью с токеном
func ManageLink(baseURL, token string) string {
	return fmt.Sprintf("%s/booking/manage/%s", baseURL, token)
}
