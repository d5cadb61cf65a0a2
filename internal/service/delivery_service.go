package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Cozta1/sistema-encomendas-V2/internal/dto"
	"github.com/Cozta1/sistema-encomendas-V2/internal/metrics"
	"github.com/Cozta1/sistema-encomendas-V2/internal/model"
	"github.com/Cozta1/sistema-encomendas-V2/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const clockLayout = "15:04"

type DeliveryService interface {
	// Schedule creates the order's delivery. A second call reports ErrAlreadyExists.
	Schedule(ctx context.Context, tc TenantContext, orderID uuid.UUID, req dto.ScheduleDeliveryRequest) (*dto.DeliveryResponse, error)
	Get(ctx context.Context, tc TenantContext, orderID uuid.UUID) (*dto.DeliveryResponse, error)
	Edit(ctx context.Context, tc TenantContext, orderID uuid.UUID, req dto.EditDeliveryRequest) (*dto.DeliveryResponse, error)
	// MarkCompleted records the completion and moves the order to delivered.
	// Completing twice returns the stored state with AlreadyCompleted set.
	MarkCompleted(ctx context.Context, tc TenantContext, orderID uuid.UUID, req dto.CompleteDeliveryRequest) (*dto.CompleteDeliveryResponse, error)
}

type deliveryService struct {
	deliveries repository.DeliveryRepository
	orders     repository.OrderRepository
}

func NewDeliveryService(deliveries repository.DeliveryRepository, orders repository.OrderRepository) DeliveryService {
	return &deliveryService{deliveries: deliveries, orders: orders}
}

// RemainingBalance is the order total minus the advance payment. It is
// negative when the client paid more than the total.
func RemainingBalance(orderTotal, advance decimal.Decimal) decimal.Decimal {
	return orderTotal.Sub(advance)
}

func (s *deliveryService) Schedule(ctx context.Context, tc TenantContext, orderID uuid.UUID, req dto.ScheduleDeliveryRequest) (*dto.DeliveryResponse, error) {
	fe := fieldErrors{}
	scheduled := today()
	if req.ScheduledDate != nil && strings.TrimSpace(*req.ScheduledDate) != "" {
		d, err := parseDate(*req.ScheduledDate)
		if err != nil {
			fe.add("scheduled_date", "data inválida (AAAA-MM-DD)")
		}
		scheduled = d
	}
	var planned *time.Time
	if req.PlannedDate != nil && strings.TrimSpace(*req.PlannedDate) != "" {
		d, err := parseDate(*req.PlannedDate)
		if err != nil {
			fe.add("planned_date", "data inválida (AAAA-MM-DD)")
		}
		planned = &d
	}
	limitText(fe, "responsible_name", req.ResponsibleName, 100)
	if err := fe.err(); err != nil {
		return nil, err
	}
	if err := ValidateDeliveryAmounts(req.AdvancePayment); err != nil {
		return nil, err
	}
	responsible := strings.TrimSpace(req.ResponsibleName)
	if responsible == "" {
		responsible = model.DefaultResponsible
	}

	d := &model.Delivery{
		OrderID:         orderID,
		ScheduledDate:   scheduled,
		ResponsibleName: responsible,
		AdvancePayment:  req.AdvancePayment,
		PlannedDate:     planned,
		Notes:           strings.TrimSpace(req.Notes),
	}
	var total decimal.Decimal
	err := runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		order, err := s.orders.FindForUpdateTx(tx, tc.TeamID(), orderID)
		if err != nil {
			return notFound(err)
		}
		total = order.Total
		if _, err := s.deliveries.FindByOrderIDTx(tx, orderID); err == nil {
			return ErrAlreadyExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := s.deliveries.CreateTx(tx, d); err != nil {
			if isDuplicateKey(err) {
				return ErrAlreadyExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("order_id", orderID.String()).Str("delivery_id", d.ID.String()).Msg("delivery: scheduled")
	resp := toDeliveryResponse(d, total)
	return &resp, nil
}

func (s *deliveryService) Get(ctx context.Context, tc TenantContext, orderID uuid.UUID) (*dto.DeliveryResponse, error) {
	order, err := s.orders.FindByID(ctx, tc.TeamID(), orderID)
	if err != nil {
		return nil, notFound(err)
	}
	if order.Delivery == nil {
		return nil, ErrNotFound
	}
	resp := toDeliveryResponse(order.Delivery, order.Total)
	return &resp, nil
}

// Edit updates the delivery. When the completion date or time is part of the
// request the combined timestamp is rebuilt from them: date alone means
// midnight, time alone means today. A resulting completion moves the order to
// delivered; clearing it leaves the order status as it is.
func (s *deliveryService) Edit(ctx context.Context, tc TenantContext, orderID uuid.UUID, req dto.EditDeliveryRequest) (*dto.DeliveryResponse, error) {
	fe := fieldErrors{}
	optDate := func(field string, v *string) (*time.Time, bool) {
		if v == nil {
			return nil, false
		}
		if strings.TrimSpace(*v) == "" {
			return nil, true
		}
		d, err := parseDate(*v)
		if err != nil {
			fe.add(field, "data inválida (AAAA-MM-DD)")
			return nil, true
		}
		return &d, true
	}
	var scheduled *time.Time
	if req.ScheduledDate != nil {
		d, err := parseDate(*req.ScheduledDate)
		if err != nil {
			fe.add("scheduled_date", "data inválida (AAAA-MM-DD)")
		}
		scheduled = &d
	}
	planned, setPlanned := optDate("planned_date", req.PlannedDate)
	completionDate, setDate := optDate("completion_date", req.CompletionDate)
	var completionClock *string
	setClock := req.CompletionTime != nil
	if setClock && strings.TrimSpace(*req.CompletionTime) != "" {
		t, err := parseClock(*req.CompletionTime)
		if err != nil {
			fe.add("completion_time", "hora inválida (HH:MM)")
		} else {
			c := t.Format(clockLayout)
			completionClock = &c
		}
	}
	if req.ResponsibleName != nil {
		limitText(fe, "responsible_name", *req.ResponsibleName, 100)
	}
	if req.DeliveredBy != nil {
		limitText(fe, "delivered_by", *req.DeliveredBy, 100)
	}
	if err := fe.err(); err != nil {
		return nil, err
	}
	if req.AdvancePayment != nil {
		if err := ValidateDeliveryAmounts(*req.AdvancePayment); err != nil {
			return nil, err
		}
	}

	var (
		d         *model.Delivery
		total     decimal.Decimal
		delivered bool
	)
	err := runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		order, err := s.orders.FindForUpdateTx(tx, tc.TeamID(), orderID)
		if err != nil {
			return notFound(err)
		}
		total = order.Total
		d, err = s.deliveries.FindByOrderIDTx(tx, orderID)
		if err != nil {
			return notFound(err)
		}

		if scheduled != nil {
			d.ScheduledDate = *scheduled
		}
		if req.ResponsibleName != nil {
			d.ResponsibleName = strings.TrimSpace(*req.ResponsibleName)
			if d.ResponsibleName == "" {
				d.ResponsibleName = model.DefaultResponsible
			}
		}
		if req.AdvancePayment != nil {
			d.AdvancePayment = *req.AdvancePayment
		}
		if setPlanned {
			d.PlannedDate = planned
		}
		if req.DeliveredBy != nil {
			d.DeliveredBy = strings.TrimSpace(*req.DeliveredBy)
		}
		if req.SignatureConfirmed != nil {
			d.SignatureConfirmed = *req.SignatureConfirmed
		}
		if req.Notes != nil {
			d.Notes = strings.TrimSpace(*req.Notes)
		}

		if setDate || setClock {
			if setDate {
				d.CompletionDate = completionDate
			}
			if setClock {
				d.CompletionTime = completionClock
			}
			d.CompletedAt = combineCompletion(d.CompletionDate, d.CompletionTime)
		}
		if err := s.deliveries.UpdateTx(tx, d); err != nil {
			return err
		}

		if (setDate || setClock) && d.CompletedAt != nil && order.Status != model.OrderDelivered {
			delivered = true
			return s.orders.UpdateStatusTx(tx, order.ID, model.OrderDelivered)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if delivered {
		metrics.OrderStatusChanges.WithLabelValues(model.OrderDelivered).Inc()
		log.Info().Str("order_id", orderID.String()).Msg("delivery: completion recorded, order delivered")
	}
	resp := toDeliveryResponse(d, total)
	return &resp, nil
}

func (s *deliveryService) MarkCompleted(ctx context.Context, tc TenantContext, orderID uuid.UUID, req dto.CompleteDeliveryRequest) (*dto.CompleteDeliveryResponse, error) {
	at := now().UTC()
	if req.CompletedAt != nil && strings.TrimSpace(*req.CompletedAt) != "" {
		t, err := time.Parse(time.RFC3339, strings.TrimSpace(*req.CompletedAt))
		if err != nil {
			return nil, &ValidationError{Fields: map[string]string{"completed_at": "data e hora inválidas (RFC3339)"}}
		}
		at = t.UTC()
	}
	fe := fieldErrors{}
	limitText(fe, "delivered_by", req.DeliveredBy, 100)
	if err := fe.err(); err != nil {
		return nil, err
	}

	var (
		d       *model.Delivery
		order   *model.Order
		already bool
	)
	err := runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		var err error
		order, err = s.orders.FindForUpdateTx(tx, tc.TeamID(), orderID)
		if err != nil {
			return notFound(err)
		}
		d, err = s.deliveries.FindByOrderIDTx(tx, orderID)
		if err != nil {
			return notFound(err)
		}
		if d.IsCompleted() {
			already = true
			return nil
		}

		date := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)
		clock := at.Format(clockLayout)
		d.CompletedAt = &at
		d.CompletionDate = &date
		d.CompletionTime = &clock
		// Courier and signature already recorded on the delivery are kept
		// unless the request supplies new ones.
		if by := strings.TrimSpace(req.DeliveredBy); by != "" {
			d.DeliveredBy = by
		} else if d.DeliveredBy == "" {
			d.DeliveredBy = tc.UserName
		}
		if req.SignatureConfirmed != nil {
			d.SignatureConfirmed = *req.SignatureConfirmed
		}
		if err := s.deliveries.UpdateTx(tx, d); err != nil {
			return err
		}
		if order.Status != model.OrderDelivered {
			order.Status = model.OrderDelivered
			return s.orders.UpdateStatusTx(tx, order.ID, model.OrderDelivered)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if already {
		log.Warn().Str("order_id", orderID.String()).Msg("delivery: already completed")
	} else {
		metrics.DeliveriesCompleted.Inc()
		log.Info().Str("order_id", orderID.String()).Str("delivered_by", d.DeliveredBy).Msg("delivery: completed")
	}
	return &dto.CompleteDeliveryResponse{
		Delivery:         toDeliveryResponse(d, order.Total),
		AlreadyCompleted: already,
		OrderStatus:      order.Status,
	}, nil
}

// combineCompletion builds the completion timestamp from its date and HH:MM parts.
func combineCompletion(date *time.Time, clock *string) *time.Time {
	if date == nil && clock == nil {
		return nil
	}
	base := today()
	if date != nil {
		base = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	}
	if clock != nil {
		if t, err := parseClock(*clock); err == nil {
			base = base.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute)
		}
	}
	return &base
}

func toDeliveryResponse(d *model.Delivery, orderTotal decimal.Decimal) dto.DeliveryResponse {
	return dto.DeliveryResponse{
		ID:                 d.ID.String(),
		OrderID:            d.OrderID.String(),
		ScheduledDate:      fmtDate(d.ScheduledDate),
		ResponsibleName:    d.ResponsibleName,
		AdvancePayment:     d.AdvancePayment,
		PlannedDate:        fmtDatePtr(d.PlannedDate),
		CompletionDate:     fmtDatePtr(d.CompletionDate),
		CompletionTime:     d.CompletionTime,
		DeliveredBy:        d.DeliveredBy,
		SignatureConfirmed: d.SignatureConfirmed,
		CompletedAt:        fmtTimePtr(d.CompletedAt),
		Completed:          d.IsCompleted(),
		Notes:              d.Notes,
		OrderTotal:         orderTotal,
		RemainingBalance:   RemainingBalance(orderTotal, d.AdvancePayment),
	}
}
