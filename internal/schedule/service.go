package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/freshbox/freshbox-backend/pkg/db/models"
	pkgerrors "github.com/freshbox/freshbox-backend/pkg/errors"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

const msgValidationFailed = "Delivery date validation failed"

// Service validates delivery dates and manages the delivery calendar.
type Service interface {
	ValidateDates(ctx context.Context, dates []string) ([]time.Time, error)
	Calendar(ctx context.Context, from, to *time.Time) (*CalendarDTO, error)
	UpsertHoliday(ctx context.Context, input HolidayInput) (*HolidayDTO, error)
	DeleteHoliday(ctx context.Context, id uuid.UUID) error
	UpsertAvailability(ctx context.Context, input AvailabilityInput) (*AvailabilityDTO, error)
	DeleteAvailability(ctx context.Context, id uuid.UUID) error
}

// HolidayInput blocks deliveries on Date.
type HolidayInput struct {
	Date        string
	Description string
}

// AvailabilityInput overrides availability and capacity for Date. A nil or
// zero capacity means unlimited.
type AvailabilityInput struct {
	Date      string
	Available bool
	Capacity  *int
}

// HolidayDTO is a blocked calendar day.
type HolidayDTO struct {
	ID          uuid.UUID `json:"id"`
	Date        string    `json:"date"`
	Description string    `json:"description"`
}

// AvailabilityDTO is a per-day override.
type AvailabilityDTO struct {
	ID           uuid.UUID `json:"id"`
	Date         string    `json:"date"`
	Available    bool      `json:"available"`
	Capacity     *int      `json:"capacity"`
	OrdersBooked int       `json:"ordersBooked"`
	FullyBooked  bool      `json:"fullyBooked"`
}

// CalendarDTO feeds the storefront date picker.
type CalendarDTO struct {
	Today        string            `json:"today"`
	Holidays     []HolidayDTO      `json:"holidays"`
	Availability []AvailabilityDTO `json:"availability"`
}

type scheduleRepository interface {
	HolidaysOn(ctx context.Context, dates []time.Time) ([]models.Holiday, error)
	AvailabilityOn(ctx context.Context, dates []time.Time) ([]models.AvailableDeliveryDate, error)
	ListHolidays(ctx context.Context, from, to *time.Time) ([]models.Holiday, error)
	ListAvailability(ctx context.Context, from, to *time.Time) ([]models.AvailableDeliveryDate, error)
	UpsertHoliday(ctx context.Context, holiday *models.Holiday) error
	DeleteHoliday(ctx context.Context, id uuid.UUID) error
	UpsertAvailability(ctx context.Context, row *models.AvailableDeliveryDate) error
	DeleteAvailability(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo scheduleRepository
	loc  *time.Location
	now  func() time.Time
}

// NewService builds the schedule service. Dates are interpreted in loc.
func NewService(repo scheduleRepository, loc *time.Location) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("schedule repository required")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &service{repo: repo, loc: loc, now: time.Now}, nil
}

// ValidateDates checks every date and reports all problems at once. Days
// without an override are open with unlimited capacity.
func (s *service) ValidateDates(ctx context.Context, dates []string) ([]time.Time, error) {
	today := Day(s.now(), s.loc)

	parsed := make([]time.Time, len(dates))
	ok := make([]bool, len(dates))
	lookup := make([]time.Time, 0, len(dates))
	for i, raw := range dates {
		parsed[i], ok[i] = ParseDate(raw, s.loc)
		if ok[i] && !parsed[i].Before(today) {
			lookup = append(lookup, parsed[i])
		}
	}

	holidays, err := s.repo.HolidaysOn(ctx, lookup)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load holidays")
	}
	availability, err := s.repo.AvailabilityOn(ctx, lookup)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load delivery availability")
	}
	holidayByDay := make(map[string]models.Holiday, len(holidays))
	for _, h := range holidays {
		holidayByDay[FormatDate(h.HolidayDate)] = h
	}
	availabilityByDay := make(map[string]models.AvailableDeliveryDate, len(availability))
	for _, a := range availability {
		availabilityByDay[FormatDate(a.DeliveryDate)] = a
	}

	var errs error
	for i, raw := range dates {
		if !ok[i] {
			errs = multierr.Append(errs, fmt.Errorf("%s is not a valid date", raw))
			continue
		}
		if parsed[i].Before(today) {
			errs = multierr.Append(errs, fmt.Errorf("%s is in the past", raw))
			continue
		}
		key := FormatDate(parsed[i])
		if h, found := holidayByDay[key]; found {
			errs = multierr.Append(errs, fmt.Errorf("%s is a holiday: %s", raw, h.Description))
			continue
		}
		if a, found := availabilityByDay[key]; found {
			if !a.Available {
				errs = multierr.Append(errs, fmt.Errorf("%s is not available for delivery", raw))
			} else if a.FullyBooked() {
				errs = multierr.Append(errs, fmt.Errorf("%s is fully booked", raw))
			}
		}
	}

	if combined := pkgerrors.Combine(pkgerrors.CodeValidation, msgValidationFailed, errs); combined != nil {
		return nil, combined
	}
	return parsed, nil
}

func (s *service) Calendar(ctx context.Context, from, to *time.Time) (*CalendarDTO, error) {
	today := Day(s.now(), s.loc)
	if from == nil {
		from = &today
	}
	if to != nil && to.Before(*from) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "to must not be before from")
	}

	holidays, err := s.repo.ListHolidays(ctx, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list holidays")
	}
	availability, err := s.repo.ListAvailability(ctx, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list delivery availability")
	}

	out := &CalendarDTO{
		Today:        FormatDate(today),
		Holidays:     make([]HolidayDTO, 0, len(holidays)),
		Availability: make([]AvailabilityDTO, 0, len(availability)),
	}
	for _, h := range holidays {
		out.Holidays = append(out.Holidays, holidayDTO(h))
	}
	for _, a := range availability {
		out.Availability = append(out.Availability, availabilityDTO(a))
	}
	return out, nil
}

func (s *service) UpsertHoliday(ctx context.Context, input HolidayInput) (*HolidayDTO, error) {
	day, ok := ParseDate(input.Date, s.loc)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s is not a valid date", input.Date))
	}
	desc := strings.TrimSpace(input.Description)
	if desc == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "holiday description is required")
	}
	holiday := &models.Holiday{HolidayDate: day, Description: desc}
	if err := s.repo.UpsertHoliday(ctx, holiday); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save holiday")
	}
	dto := holidayDTO(*holiday)
	return &dto, nil
}

func (s *service) DeleteHoliday(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteHoliday(ctx, id); err != nil {
		return notFoundOr(err, "holiday not found", "delete holiday")
	}
	return nil
}

func (s *service) UpsertAvailability(ctx context.Context, input AvailabilityInput) (*AvailabilityDTO, error) {
	day, ok := ParseDate(input.Date, s.loc)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s is not a valid date", input.Date))
	}
	if input.Capacity != nil && *input.Capacity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "capacity must be non-negative")
	}
	row := &models.AvailableDeliveryDate{DeliveryDate: day, Available: input.Available, Capacity: input.Capacity}
	if err := s.repo.UpsertAvailability(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save delivery availability")
	}
	dto := availabilityDTO(*row)
	return &dto, nil
}

func (s *service) DeleteAvailability(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteAvailability(ctx, id); err != nil {
		return notFoundOr(err, "availability not found", "delete delivery availability")
	}
	return nil
}

func holidayDTO(h models.Holiday) HolidayDTO {
	return HolidayDTO{ID: h.ID, Date: FormatDate(h.HolidayDate), Description: h.Description}
}

func availabilityDTO(a models.AvailableDeliveryDate) AvailabilityDTO {
	return AvailabilityDTO{
		ID:           a.ID,
		Date:         FormatDate(a.DeliveryDate),
		Available:    a.Available,
		Capacity:     a.Capacity,
		OrdersBooked: a.OrdersBooked,
		FullyBooked:  a.FullyBooked(),
	}
}

func notFoundOr(err error, notFound, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, action)
}
