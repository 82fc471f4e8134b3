// Package render рисует картинку календаря месяца с занятыми днями.
package render

import (
	"bytes"
	"fmt"
	"image/color"
	"strconv"
	"time"

	"github.com/Freeeeeet/speaker_booking/internal/dates"
	"github.com/Freeeeeet/speaker_booking/internal/model"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// Константы размеров и отступов
const (
	imageWidth     = 980
	imageHeight    = 820
	headerHeight   = 90
	weekdayHeight  = 36
	legendHeight   = 60
	gridPaddingX   = 20
	cellPadding    = 4.0
	cellRadius     = 8.0
	shadowOffset   = 3.0
	daysInWeek     = 7
	maxWeeksInGrid = 6
)

// Цветовая схема
var (
	bgColor         = color.RGBA{245, 246, 248, 255}
	textColor       = color.RGBA{80, 85, 90, 220}
	weekdayColor    = color.RGBA{110, 115, 120, 200}
	todayRingColor  = color.NRGBA{255, 99, 71, 200}
	cellShadowColor = color.RGBA{0, 0, 0, 20}

	dayFreeColor    = color.RGBA{133, 193, 85, 220}
	dayBookedColor  = color.RGBA{255, 182, 193, 255}
	dayBlockedColor = color.RGBA{158, 158, 158, 200}
	dayTextColor    = color.RGBA{20, 24, 28, 230}
	dayBookedText   = color.RGBA{120, 40, 50, 255}

	legendItemColor = color.RGBA{70, 74, 78, 220}
)

// DayState состояние дня на картинке
type DayState int

const (
	DayFree DayState = iota
	DayBooked
	DayBlocked
)

// Month данные для отрисовки одного месяца
type Month struct {
	Year  int
	Month time.Month
	// Today подсвечивается рамкой, если попадает в месяц
	Today time.Time
	Days  map[int]DayState
}

// NewMonth собирает состояния дней из записей месяца
func NewMonth(year int, month time.Month, today time.Time, occupancy []*model.Reservation) Month {
	m := Month{Year: year, Month: month, Today: today, Days: make(map[int]DayState, len(occupancy))}
	for _, r := range occupancy {
		d := r.Date.UTC()
		if d.Year() != year || d.Month() != month {
			continue
		}
		if r.IsBlocked() {
			m.Days[d.Day()] = DayBlocked
		} else {
			m.Days[d.Day()] = DayBooked
		}
	}
	return m
}

// GenerateMonthImage рисует сетку месяца (Пн-Вс) в PNG
func GenerateMonthImage(m Month) ([]byte, error) {
	if err := dates.ValidMonth(m.Year, int(m.Month)); err != nil {
		return nil, fmt.Errorf("render month: %w", err)
	}

	first := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := first.AddDate(0, 1, -1).Day()
	offset := weekdayIndex(first.Weekday())

	dc := createCanvas()
	cellWidth := float64(imageWidth-2*gridPaddingX) / daysInWeek
	gridTop := float64(headerHeight + weekdayHeight)
	cellHeight := (float64(imageHeight) - gridTop - legendHeight) / maxWeeksInGrid

	drawHeader(dc, first)
	drawWeekdays(dc, cellWidth)

	for day := 1; day <= daysInMonth; day++ {
		pos := offset + day - 1
		x := float64(gridPaddingX) + float64(pos%daysInWeek)*cellWidth
		y := gridTop + float64(pos/daysInWeek)*cellHeight

		state := m.Days[day]
		isToday := isSameDay(m.Today, time.Date(m.Year, m.Month, day, 0, 0, 0, 0, time.UTC))
		drawDay(dc, day, state, isToday, x, y, cellWidth, cellHeight)
	}

	drawLegend(dc)

	return encodeImage(dc)
}

// weekdayIndex номер дня недели с понедельника
func weekdayIndex(w time.Weekday) int {
	if w == time.Sunday {
		return 6
	}
	return int(w) - 1
}

func isSameDay(a, b time.Time) bool {
	if a.IsZero() {
		return false
	}
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// createCanvas создает новый контекст рисования с фоном
func createCanvas() *gg.Context {
	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetColor(bgColor)
	dc.Clear()
	dc.SetFontFace(face())
	return dc
}

// face встроенный шрифт, внешние файлы шрифтов не нужны
func face() font.Face {
	return basicfont.Face7x13
}

// drawHeader рисует название месяца
func drawHeader(dc *gg.Context, first time.Time) {
	title := first.Format("January 2006")
	dc.SetColor(textColor)
	dc.DrawStringAnchored(title, float64(imageWidth)/2, float64(headerHeight)/2, 0.5, 0.5)
}

func drawWeekdays(dc *gg.Context, cellWidth float64) {
	dc.SetColor(weekdayColor)
	y := float64(headerHeight) + float64(weekdayHeight)/2
	for i, label := range []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"} {
		x := float64(gridPaddingX) + float64(i)*cellWidth + cellWidth/2
		dc.DrawStringAnchored(label, x, y, 0.5, 0.5)
	}
}

// drawDay рисует одну клетку дня
func drawDay(dc *gg.Context, day int, state DayState, isToday bool, x, y, w, h float64) {
	fill := stateColor(state)
	cw := w - 2*cellPadding
	ch := h - 2*cellPadding

	// Тень
	dc.SetColor(cellShadowColor)
	dc.DrawRoundedRectangle(x+cellPadding+shadowOffset, y+cellPadding+shadowOffset, cw, ch, cellRadius)
	dc.Fill()

	dc.SetColor(fill)
	dc.DrawRoundedRectangle(x+cellPadding, y+cellPadding, cw, ch, cellRadius)
	dc.Fill()

	// Рамка
	dc.SetLineWidth(1)
	dc.SetColor(darkenColor(fill, 0.8))
	if isToday {
		dc.SetLineWidth(3)
		dc.SetColor(todayRingColor)
	}
	dc.DrawRoundedRectangle(x+cellPadding, y+cellPadding, cw, ch, cellRadius)
	dc.Stroke()

	txt := dayTextColor
	if state == DayBooked {
		txt = dayBookedText
	}
	dc.SetColor(txt)
	dc.DrawStringAnchored(strconv.Itoa(day), x+cellPadding+10, y+cellPadding+14, 0, 0)

	if label := stateLabel(state); label != "" {
		dc.DrawStringAnchored(label, x+w/2, y+h/2+8, 0.5, 0.5)
	}
}

func stateColor(state DayState) color.RGBA {
	switch state {
	case DayBooked:
		return dayBookedColor
	case DayBlocked:
		return dayBlockedColor
	default:
		return dayFreeColor
	}
}

func stateLabel(state DayState) string {
	switch state {
	case DayBooked:
		return "Booked"
	case DayBlocked:
		return "Unavailable"
	default:
		return ""
	}
}

// darkenColor затемняет цвет на указанный множитель
func darkenColor(c color.RGBA, factor float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
		A: c.A,
	}
}

// drawLegend рисует легенду внизу
func drawLegend(dc *gg.Context) {
	items := []struct {
		Label string
		Clr   color.Color
	}{
		{"Available", dayFreeColor},
		{"Booked", dayBookedColor},
		{"Unavailable", dayBlockedColor},
	}

	boxW, boxH := 20.0, 14.0
	x := float64(gridPaddingX)
	y := float64(imageHeight) - float64(legendHeight)/2 - boxH/2

	for _, item := range items {
		dc.SetColor(item.Clr)
		dc.DrawRoundedRectangle(x, y, boxW, boxH, 3)
		dc.Fill()

		dc.SetColor(legendItemColor)
		dc.DrawStringAnchored(item.Label, x+boxW+8, y+boxH/2, 0, 0.5)
		w, _ := dc.MeasureString(item.Label)
		x += boxW + 8 + w + 30
	}
}

// encodeImage кодирует изображение в PNG
func encodeImage(dc *gg.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
