// Package dates приводит даты бронирований к каноническому виду.
//
// Календарный день хранится как момент 12:00:00 UTC этого дня, а диапазоны
// для запросов строятся по UTC-полям уже нормализованной даты. Так сравнение
// дней не зависит от часовых поясов клиента и сервера.
package dates

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DayLayout формат календарного дня в API
const DayLayout = "2006-01-02"

// StandardHour час UTC, к которому приводится каждая дата
const StandardHour = 12

var ErrInvalidDate = errors.New("invalid date")

// Range закрытый интервал [Start, End] одного дня в UTC
type Range struct {
	Start time.Time
	End   time.Time
}

// Contains проверяет попадание момента в интервал
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

var layouts = []string{
	DayLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// Parse разбирает строку YYYY-MM-DD или ISO 8601.
// Смещение из строки сохраняется, чтобы Standardize взял день в поясе клиента.
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrInvalidDate)
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// Standardize возвращает полдень UTC того календарного дня,
// который видит отправитель даты (поля берутся в её собственном поясе).
func Standardize(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), StandardHour, 0, 0, 0, time.UTC)
}

// StandardizeString = Parse + Standardize
func StandardizeString(s string) (time.Time, error) {
	t, err := Parse(s)
	if err != nil {
		return time.Time{}, err
	}
	return Standardize(t), nil
}

// DayRange строит границы дня по UTC-полям даты
func DayRange(t time.Time) Range {
	u := t.UTC()
	start := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return Range{
		Start: start,
		End:   start.Add(24*time.Hour - time.Millisecond),
	}
}

// MonthRange строит границы месяца в UTC
func MonthRange(year int, month time.Month) Range {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Range{
		Start: start,
		End:   start.AddDate(0, 1, 0).Add(-time.Millisecond),
	}
}

// SameDay сравнивает UTC-дни двух нормализованных дат
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// FormatDay форматирует нормализованную дату как YYYY-MM-DD
func FormatDay(t time.Time) string {
	return t.UTC().Format(DayLayout)
}

// ValidMonth проверяет год и месяц из запроса календаря
func ValidMonth(year, month int) error {
	if year < 1970 || year > 9999 {
		return fmt.Errorf("%w: year %d out of range", ErrInvalidDate, year)
	}
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: month %d out of range", ErrInvalidDate, month)
	}
	return nil
}
