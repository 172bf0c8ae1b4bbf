package types

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"
)

// TimeString время суток в формате "HH:MM" (локальное время салона)
// Хранится строкой, чтобы не зависеть от часового пояса сервера
type TimeString string

var (
	// ErrInvalidTimeString возвращается при некорректном формате времени
	ErrInvalidTimeString = errors.New("invalid time string format")
)

// NewTimeString создает TimeString из time.Time (берет только часы и минуты)
func NewTimeString(t time.Time) TimeString {
	return TimeString(t.Format("15:04"))
}

// NewTimeStringFromString создает TimeString из строки "HH:MM" с валидацией
func NewTimeStringFromString(s string) (TimeString, error) {
	ts := TimeString(s)
	if err := ts.Validate(); err != nil {
		return "", err
	}
	return ts, nil
}

// Validate проверяет формат "HH:MM" (часы 00-23, минуты 00-59)
func (t TimeString) Validate() error {
	h, m, err := t.parse()
	if err != nil {
		return err
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return fmt.Errorf("%w: %q out of range", ErrInvalidTimeString, string(t))
	}
	return nil
}

// IsZero возвращает true, если значение не задано
func (t TimeString) IsZero() bool {
	return t == ""
}

// String возвращает строковое представление "HH:MM"
func (t TimeString) String() string {
	return string(t)
}

// AddMinutes возвращает время, сдвинутое на minutes минут вперед
// Результат может выходить за пределы суток (например, "24:30") -
// такие значения корректно сравниваются, но не проходят Validate
func (t TimeString) AddMinutes(minutes int) (TimeString, error) {
	total, err := t.totalMinutes()
	if err != nil {
		return "", err
	}
	total += minutes
	if total < 0 {
		return "", fmt.Errorf("%w: negative time after shift", ErrInvalidTimeString)
	}
	return TimeString(fmt.Sprintf("%02d:%02d", total/60, total%60)), nil
}

// IsBefore возвращает true, если t строго раньше other
// Некорректные значения считаются равными нулю минут
func (t TimeString) IsBefore(other TimeString) bool {
	a, _ := t.totalMinutes()
	b, _ := other.totalMinutes()
	return a < b
}

// IsAfter возвращает true, если t строго позже other
func (t TimeString) IsAfter(other TimeString) bool {
	a, _ := t.totalMinutes()
	b, _ := other.totalMinutes()
	return a > b
}

// totalMinutes возвращает количество минут с начала суток
func (t TimeString) totalMinutes() (int, error) {
	h, m, err := t.parse()
	if err != nil {
		return 0, err
	}
	return h*60 + m, nil
}

// parse разбирает строку "HH:MM" без проверки диапазона часов
// (внутренние значения после AddMinutes могут превышать 23:59)
func (t TimeString) parse() (hours, minutes int, err error) {
	n, err := fmt.Sscanf(string(t), "%02d:%02d", &hours, &minutes)
	if err != nil || n != 2 || len(t) != 5 || t[2] != ':' {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTimeString, string(t))
	}
	return hours, minutes, nil
}

// Value реализует driver.Valuer для записи в БД
func (t TimeString) Value() (driver.Value, error) {
	return string(t), nil
}

// Scan реализует sql.Scanner для чтения из БД
func (t *TimeString) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*t = TimeString(v)
	case []byte:
		*t = TimeString(v)
	case time.Time:
		*t = NewTimeString(v)
	case nil:
		*t = ""
	default:
		return fmt.Errorf("%w: unsupported scan type %T", ErrInvalidTimeString, src)
	}
	// PostgreSQL TIME приходит как "10:00:00" - обрезаем секунды
	if len(*t) == 8 && (*t)[5] == ':' {
		*t = (*t)[:5]
	}
	return nil
}
