package get_available_slots

import (
	"github.com/glowly/booking-service/internal/domain"
	getAvailableSlots "github.com/glowly/booking-service/internal/usecase/get_available_slots"
)

// SlotsResponse HTTP response model
type SlotsResponse struct {
	Date      string         `json:"date"`
	SalonID   int64          `json:"salonId"`
	ServiceID int64          `json:"serviceId"`
	Slots     []SlotResponse `json:"slots"`
}

// SlotResponse модель слота в HTTP ответе
type SlotResponse struct {
	StartTime       string `json:"startTime"`
	DurationMinutes int    `json:"durationMinutes"`
	Available       bool   `json:"available"`
	DayPart         string `json:"dayPart"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *getAvailableSlots.Response) *SlotsResponse {
	slots := make([]SlotResponse, len(resp.Slots))
	for i, slot := range resp.Slots {
		slots[i] = SlotResponse{
			StartTime:       slot.StartTime.String(),
			DurationMinutes: slot.DurationMinutes,
			Available:       slot.Available,
			DayPart:         string(slot.DayPart),
		}
	}

	return &SlotsResponse{
		Date:      resp.Date.Format(domain.DateFormat),
		SalonID:   resp.SalonID,
		ServiceID: resp.ServiceID,
		Slots:     slots,
	}
}
