// Package deliveries is the admin view over scheduled order deliveries.
package deliveries

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/freshbox/freshbox-backend/internal/schedule"
	"github.com/freshbox/freshbox-backend/pkg/enums"
	pkgerrors "github.com/freshbox/freshbox-backend/pkg/errors"
	"github.com/freshbox/freshbox-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service interface {
	List(ctx context.Context, input ListInput) (*DeliveryPage, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*DeliveryDTO, error)
}

// ListInput carries raw query values. Date wins over From and To.
type ListInput struct {
	Page     int
	Limit    int
	Date     string
	From     string
	To       string
	Query    string
	ItemType string
	Status   string
}

type service struct {
	repo *Repository
	loc  *time.Location
	now  func() time.Time
}

func NewService(repo *Repository, loc *time.Location) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("deliveries repository required")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &service{repo: repo, loc: loc, now: time.Now}, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*DeliveryPage, error) {
	filter, err := s.filter(input)
	if err != nil {
		return nil, err
	}
	page := pagination.NormalizePage(pagination.Page{Page: input.Page, Limit: input.Limit})

	rows, total, err := s.repo.List(ctx, page, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list deliveries")
	}
	out := &DeliveryPage{
		Deliveries: make([]DeliveryDTO, 0, len(rows)),
		Page:       page.Page,
		Limit:      page.Limit,
		Total:      total,
		TotalPages: pagination.TotalPages(total, page.Limit),
	}
	for _, row := range rows {
		out.Deliveries = append(out.Deliveries, fromModel(row))
	}
	return out, nil
}

// UpdateStatus moves a delivery to status. delivered_at is stamped when the
// status is DELIVERED and cleared otherwise.
func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, value string) (*DeliveryDTO, error) {
	if strings.TrimSpace(value) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status required")
	}
	status, err := enums.ParseDeliveryStatus(strings.ToUpper(strings.TrimSpace(value)))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery status")
	}

	var deliveredAt *time.Time
	if status == enums.DeliveryStatusDelivered {
		now := s.now().UTC()
		deliveredAt = &now
	}
	if err := s.repo.UpdateStatus(ctx, id, status, deliveredAt); err != nil {
		return nil, notFoundOr(err, "update delivery")
	}

	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "load delivery")
	}
	dto := fromModel(*row)
	return &dto, nil
}

func (s *service) filter(input ListInput) (ListFilter, error) {
	filter := ListFilter{Query: input.Query}

	if strings.TrimSpace(input.Date) != "" {
		day, err := s.parseDay("date", input.Date)
		if err != nil {
			return filter, err
		}
		filter.From, filter.To = &day, &day
	} else {
		if strings.TrimSpace(input.From) != "" {
			from, err := s.parseDay("from", input.From)
			if err != nil {
				return filter, err
			}
			filter.From = &from
		}
		if strings.TrimSpace(input.To) != "" {
			to, err := s.parseDay("to", input.To)
			if err != nil {
				return filter, err
			}
			filter.To = &to
		}
		if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
			return filter, pkgerrors.New(pkgerrors.CodeValidation, "to must not be before from")
		}
	}

	if v := strings.TrimSpace(input.ItemType); v != "" {
		itemType, err := enums.ParseOrderType(strings.ToUpper(v))
		if err != nil {
			return filter, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid itemType")
		}
		filter.ItemType = &itemType
	}
	if v := strings.TrimSpace(input.Status); v != "" {
		status, err := enums.ParseDeliveryStatus(strings.ToUpper(v))
		if err != nil {
			return filter, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		filter.Status = &status
	}
	return filter, nil
}

func (s *service) parseDay(field, value string) (time.Time, error) {
	day, ok := schedule.ParseDate(value, s.loc)
	if !ok {
		return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s must be a date (YYYY-MM-DD)", field))
	}
	return day, nil
}

func notFoundOr(err error, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "delivery not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, action)
}
