package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Cozta1/sistema-encomendas-V2/internal/dto"
	"github.com/Cozta1/sistema-encomendas-V2/internal/metrics"
	"github.com/Cozta1/sistema-encomendas-V2/internal/model"
	"github.com/Cozta1/sistema-encomendas-V2/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderRenderer writes the printable document of a fully loaded order.
type OrderRenderer func(w io.Writer, team *model.Team, o *model.Order) error

type OrderService interface {
	Create(ctx context.Context, tc TenantContext, req dto.CreateOrderRequest) (*dto.OrderResponse, error)
	Get(ctx context.Context, tc TenantContext, id uuid.UUID) (*dto.OrderResponse, error)
	List(ctx context.Context, tc TenantContext, f dto.OrderFilter) (*dto.OrderListResponse, error)
	Edit(ctx context.Context, tc TenantContext, id uuid.UUID, req dto.EditOrderRequest) (*dto.OrderResponse, error)
	UpdateStatus(ctx context.Context, tc TenantContext, id uuid.UUID, status string) (*dto.OrderResponse, error)
	Delete(ctx context.Context, tc TenantContext, id uuid.UUID) error
	Recompute(ctx context.Context, tc TenantContext, id uuid.UUID) (*dto.RecomputeResponse, error)
	Dashboard(ctx context.Context, tc TenantContext) (*dto.DashboardResponse, error)
	RenderPDF(ctx context.Context, tc TenantContext, id uuid.UUID, w io.Writer) error
}

type orderService struct {
	orders    repository.OrderRepository
	teams     repository.TeamRepository
	clients   repository.ClientRepository
	products  repository.ProductRepository
	suppliers repository.SupplierRepository
	render    OrderRenderer
	pageSize  int
}

func NewOrderService(
	orders repository.OrderRepository,
	teams repository.TeamRepository,
	clients repository.ClientRepository,
	products repository.ProductRepository,
	suppliers repository.SupplierRepository,
	render OrderRenderer,
	pageSize int,
) OrderService {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &orderService{
		orders:    orders,
		teams:     teams,
		clients:   clients,
		products:  products,
		suppliers: suppliers,
		render:    render,
		pageSize:  pageSize,
	}
}

// mismatch reports a reference missing from the tenant as ErrTenantMismatch.
func mismatch(err error, field string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrTenantMismatch, field)
	}
	return err
}

// lineRefs checks product and supplier references against the tenant,
// caching lookups for the duration of one transaction.
type lineRefs struct {
	s        *orderService
	tx       *gorm.DB
	teamID   uuid.UUID
	products map[uuid.UUID]bool
	supplier map[uuid.UUID]bool
}

func (s *orderService) newLineRefs(tx *gorm.DB, teamID uuid.UUID) *lineRefs {
	return &lineRefs{s: s, tx: tx, teamID: teamID, products: map[uuid.UUID]bool{}, supplier: map[uuid.UUID]bool{}}
}

func (r *lineRefs) check(prefix string, productID, supplierID uuid.UUID) error {
	if !r.products[productID] {
		if _, err := r.s.products.FindByIDTx(r.tx, r.teamID, productID); err != nil {
			return mismatch(err, prefix+".product_id")
		}
		r.products[productID] = true
	}
	if !r.supplier[supplierID] {
		if _, err := r.s.suppliers.FindByIDTx(r.tx, r.teamID, supplierID); err != nil {
			return mismatch(err, prefix+".supplier_id")
		}
		r.supplier[supplierID] = true
	}
	return nil
}

// newLine builds a line from a validated request; Total is always Quantity × UnitPrice.
func newLine(orderID uuid.UUID, position int, req dto.OrderLineRequest) model.OrderLine {
	productID, _ := parseUUID(req.ProductID)
	supplierID, _ := parseUUID(req.SupplierID)
	return model.OrderLine{
		OrderID:    orderID,
		Position:   position,
		ProductID:  productID,
		SupplierID: supplierID,
		Quantity:   req.Quantity,
		UnitPrice:  req.UnitPrice,
		Total:      lineTotal(req.Quantity, req.UnitPrice),
		Notes:      strings.TrimSpace(req.Notes),
	}
}

func lineTotal(quantity int, price decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}

// recomputeTx sums the order's current lines and stores the result as the cached total.
func (s *orderService) recomputeTx(tx *gorm.DB, orderID uuid.UUID) (decimal.Decimal, error) {
	lines, err := s.orders.ListLinesTx(tx, orderID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Total)
	}
	total = total.Round(2)
	return total, s.orders.UpdateTotalTx(tx, orderID, total)
}

// ── Create ───────────────────────────────────────────────────────────────────

// Create inserts the order and all its lines in one transaction. Any line
// referencing another tenant's product or supplier rolls everything back.
func (s *orderService) Create(ctx context.Context, tc TenantContext, req dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	if err := ValidateCreateOrder(req); err != nil {
		return nil, err
	}
	clientID, _ := parseUUID(req.ClientID)
	orderDate := today()
	if req.OrderDate != nil {
		orderDate, _ = parseDate(*req.OrderDate)
	}
	creator := strings.TrimSpace(req.CreatedByName)
	if creator == "" {
		creator = tc.UserName
	}

	order := &model.Order{
		TeamID:        tc.TeamID(),
		ClientID:      clientID,
		OrderDate:     orderDate,
		CreatedByName: creator,
		Status:        model.OrderCreated,
		Notes:         strings.TrimSpace(req.Notes),
		Total:         decimal.Zero,
	}

	err := runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		if _, err := s.teams.LockTx(ctx, tx, tc.TeamID()); err != nil {
			return notFound(err)
		}
		if _, err := s.clients.FindByIDTx(tx, tc.TeamID(), clientID); err != nil {
			return mismatch(err, "client_id")
		}
		refs := s.newLineRefs(tx, tc.TeamID())
		for i, l := range req.Lines {
			productID, _ := parseUUID(l.ProductID)
			supplierID, _ := parseUUID(l.SupplierID)
			if err := refs.check(fmt.Sprintf("lines[%d]", i), productID, supplierID); err != nil {
				return err
			}
		}

		number, err := s.orders.NextNumberTx(tx, tc.TeamID())
		if err != nil {
			return err
		}
		order.Number = number
		if err := s.orders.CreateTx(tx, order); err != nil {
			return err
		}

		lines := make([]model.OrderLine, len(req.Lines))
		for i, l := range req.Lines {
			lines[i] = newLine(order.ID, i+1, l)
		}
		if err := s.orders.CreateLinesTx(tx, lines); err != nil {
			return err
		}
		order.Total, err = s.recomputeTx(tx, order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.OrdersCreated.Inc()
	log.Info().Str("team_id", tc.TeamID().String()).Str("order_id", order.ID.String()).
		Int64("number", order.Number).Str("total", order.Total.StringFixed(2)).Msg("order: created")
	return s.Get(ctx, tc, order.ID)
}

// ── Read ─────────────────────────────────────────────────────────────────────

func (s *orderService) Get(ctx context.Context, tc TenantContext, id uuid.UUID) (*dto.OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, tc.TeamID(), id)
	if err != nil {
		return nil, notFound(err)
	}
	resp := toOrderResponse(o)
	return &resp, nil
}

func (s *orderService) List(ctx context.Context, tc TenantContext, f dto.OrderFilter) (*dto.OrderListResponse, error) {
	if f.Status != "" {
		if err := ValidateOrderStatus(f.Status); err != nil {
			return nil, err
		}
	}
	page := f.Page
	if page < 1 {
		page = 1
	}
	rf := repository.OrderFilter{
		TeamID: tc.TeamID(),
		Status: f.Status,
		Search: f.Search,
		Page:   page,
		Limit:  s.pageSize,
	}
	if f.ClientID != "" {
		cid, err := parseUUID(f.ClientID)
		if err != nil {
			return nil, &ValidationError{Fields: map[string]string{"client_id": "identificador inválido"}}
		}
		rf.ClientID = &cid
	}

	orders, total, err := s.orders.List(ctx, rf)
	if err != nil {
		return nil, err
	}
	summary, err := s.orders.Summary(ctx, tc.TeamID())
	if err != nil {
		return nil, err
	}

	resp := &dto.OrderListResponse{
		Data:    make([]dto.OrderListItem, len(orders)),
		Total:   total,
		Page:    page,
		Limit:   s.pageSize,
		Summary: toSummaryResponse(summary),
	}
	for i := range orders {
		resp.Data[i] = toOrderListItem(&orders[i])
	}
	return resp, nil
}

// ── Edit ─────────────────────────────────────────────────────────────────────

// Edit applies header changes and a lines diff atomically, then recomputes
// the cached total from the resulting set of lines.
func (s *orderService) Edit(ctx context.Context, tc TenantContext, id uuid.UUID, req dto.EditOrderRequest) (*dto.OrderResponse, error) {
	if err := ValidateEditOrder(req); err != nil {
		return nil, err
	}

	var statusChanged string
	err := runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		order, err := s.orders.FindForUpdateTx(tx, tc.TeamID(), id)
		if err != nil {
			return notFound(err)
		}

		if req.ClientID != nil {
			clientID, _ := parseUUID(*req.ClientID)
			if _, err := s.clients.FindByIDTx(tx, tc.TeamID(), clientID); err != nil {
				return mismatch(err, "client_id")
			}
			order.ClientID = clientID
		}
		if req.OrderDate != nil {
			order.OrderDate, _ = parseDate(*req.OrderDate)
		}
		if req.Notes != nil {
			order.Notes = strings.TrimSpace(*req.Notes)
		}
		if req.Status != nil && *req.Status != order.Status {
			order.Status = *req.Status
			statusChanged = order.Status
		}

		if err := s.applyLinesDiff(tx, tc.TeamID(), order, req.Lines); err != nil {
			return err
		}
		if err := s.orders.UpdateTx(tx, order); err != nil {
			return err
		}
		_, err = s.recomputeTx(tx, order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if statusChanged != "" {
		metrics.OrderStatusChanges.WithLabelValues(statusChanged).Inc()
	}
	log.Info().Str("team_id", tc.TeamID().String()).Str("order_id", id.String()).
		Int("lines_added", len(req.Lines.Add)).Int("lines_updated", len(req.Lines.Update)).
		Int("lines_deleted", len(req.Lines.Delete)).Msg("order: edited")
	return s.Get(ctx, tc, id)
}

func (s *orderService) applyLinesDiff(tx *gorm.DB, teamID uuid.UUID, order *model.Order, diff dto.LinesDiff) error {
	existing := make(map[uuid.UUID]*model.OrderLine, len(order.Lines))
	for i := range order.Lines {
		existing[order.Lines[i].ID] = &order.Lines[i]
	}

	fe := fieldErrors{}
	deleted := make(map[uuid.UUID]bool, len(diff.Delete))
	deleteIDs := make([]uuid.UUID, 0, len(diff.Delete))
	for i, raw := range diff.Delete {
		lineID, _ := parseUUID(raw)
		if _, ok := existing[lineID]; !ok {
			fe.add(fmt.Sprintf("lines.delete[%d]", i), "item não pertence à encomenda")
			continue
		}
		if !deleted[lineID] {
			deleted[lineID] = true
			deleteIDs = append(deleteIDs, lineID)
		}
	}
	for i, u := range diff.Update {
		lineID, _ := parseUUID(u.ID)
		if _, ok := existing[lineID]; !ok || deleted[lineID] {
			fe.add(fmt.Sprintf("lines.update[%d].id", i), "item não pertence à encomenda")
		}
	}
	if len(existing)-len(deleteIDs)+len(diff.Add) < 1 {
		fe.add("lines", "a encomenda precisa de pelo menos um item")
	}
	if err := fe.err(); err != nil {
		return err
	}

	refs := s.newLineRefs(tx, teamID)

	if err := s.orders.DeleteLinesTx(tx, order.ID, deleteIDs); err != nil {
		return err
	}

	for i, u := range diff.Update {
		lineID, _ := parseUUID(u.ID)
		line := existing[lineID]
		if u.ProductID != nil {
			line.ProductID, _ = parseUUID(*u.ProductID)
		}
		if u.SupplierID != nil {
			line.SupplierID, _ = parseUUID(*u.SupplierID)
		}
		if u.Quantity != nil {
			line.Quantity = *u.Quantity
		}
		if u.UnitPrice != nil {
			line.UnitPrice = *u.UnitPrice
		}
		if u.Notes != nil {
			line.Notes = strings.TrimSpace(*u.Notes)
		}
		if err := refs.check(fmt.Sprintf("lines.update[%d]", i), line.ProductID, line.SupplierID); err != nil {
			return err
		}
		line.Total = lineTotal(line.Quantity, line.UnitPrice)
		if err := s.orders.UpdateLineTx(tx, line); err != nil {
			return err
		}
	}

	last := 0
	for _, l := range order.Lines {
		if l.Position > last {
			last = l.Position
		}
	}
	added := make([]model.OrderLine, len(diff.Add))
	for i, a := range diff.Add {
		added[i] = newLine(order.ID, last+i+1, a)
		if err := refs.check(fmt.Sprintf("lines.add[%d]", i), added[i].ProductID, added[i].SupplierID); err != nil {
			return err
		}
	}
	return s.orders.CreateLinesTx(tx, added)
}

// UpdateStatus sets any valid status; transitions are free-form.
func (s *orderService) UpdateStatus(ctx context.Context, tc TenantContext, id uuid.UUID, status string) (*dto.OrderResponse, error) {
	if err := ValidateOrderStatus(status); err != nil {
		return nil, err
	}
	changed := false
	err := runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		order, err := s.orders.FindForUpdateTx(tx, tc.TeamID(), id)
		if err != nil {
			return notFound(err)
		}
		if order.Status == status {
			return nil
		}
		changed = true
		return s.orders.UpdateStatusTx(tx, order.ID, status)
	})
	if err != nil {
		return nil, err
	}
	if changed {
		metrics.OrderStatusChanges.WithLabelValues(status).Inc()
		log.Info().Str("order_id", id.String()).Str("status", status).Msg("order: status changed")
	}
	return s.Get(ctx, tc, id)
}

// Delete removes the order together with its lines and delivery.
func (s *orderService) Delete(ctx context.Context, tc TenantContext, id uuid.UUID) error {
	ok, err := s.orders.Delete(ctx, tc.TeamID(), id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	metrics.OrdersDeleted.Inc()
	log.Info().Str("team_id", tc.TeamID().String()).Str("order_id", id.String()).Msg("order: deleted")
	return nil
}

// Recompute rewrites the cached total from the current lines. Repeated calls
// without intervening changes return the same value.
func (s *orderService) Recompute(ctx context.Context, tc TenantContext, id uuid.UUID) (*dto.RecomputeResponse, error) {
	var total decimal.Decimal
	err := runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		order, err := s.orders.FindForUpdateTx(tx, tc.TeamID(), id)
		if err != nil {
			return notFound(err)
		}
		total, err = s.recomputeTx(tx, order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &dto.RecomputeResponse{OrderID: id.String(), Total: total}, nil
}

// ── Dashboard / PDF ──────────────────────────────────────────────────────────

const dashboardRecent = 5

func (s *orderService) Dashboard(ctx context.Context, tc TenantContext) (*dto.DashboardResponse, error) {
	summary, err := s.orders.Summary(ctx, tc.TeamID())
	if err != nil {
		return nil, err
	}
	clients, err := s.clients.Count(ctx, tc.TeamID())
	if err != nil {
		return nil, err
	}
	recent, err := s.orders.Recent(ctx, tc.TeamID(), dashboardRecent)
	if err != nil {
		return nil, err
	}
	resp := &dto.DashboardResponse{
		Team:            toTeamResponse(tc.Team, tc.Role, 0),
		TotalOrders:     summary.Total,
		PendingOrders:   summary.Pending,
		DeliveredOrders: summary.Delivered,
		ClientCount:     clients,
		RecentOrders:    make([]dto.OrderListItem, len(recent)),
	}
	for i := range recent {
		resp.RecentOrders[i] = toOrderListItem(&recent[i])
	}
	return resp, nil
}

// RenderPDF loads the full order aggregate and hands it to the renderer.
func (s *orderService) RenderPDF(ctx context.Context, tc TenantContext, id uuid.UUID, w io.Writer) error {
	if s.render == nil {
		return errors.New("order: no renderer configured")
	}
	o, err := s.orders.FindByID(ctx, tc.TeamID(), id)
	if err != nil {
		return notFound(err)
	}
	return s.render(w, tc.Team, o)
}

// ── Mappers ──────────────────────────────────────────────────────────────────

func toOrderResponse(o *model.Order) dto.OrderResponse {
	resp := dto.OrderResponse{
		ID:            o.ID.String(),
		Number:        o.Number,
		TeamID:        o.TeamID.String(),
		ClientID:      o.ClientID.String(),
		OrderDate:     fmtDate(o.OrderDate),
		CreatedByName: o.CreatedByName,
		Status:        o.Status,
		Notes:         o.Notes,
		Total:         o.Total,
		Lines:         make([]dto.OrderLineResponse, len(o.Lines)),
		CreatedAt:     fmtTime(o.CreatedAt),
		UpdatedAt:     fmtTime(o.UpdatedAt),
	}
	if o.Client != nil {
		resp.ClientName = o.Client.Name
	}
	for i, l := range o.Lines {
		lr := dto.OrderLineResponse{
			ID:         l.ID.String(),
			ProductID:  l.ProductID.String(),
			SupplierID: l.SupplierID.String(),
			Quantity:   l.Quantity,
			UnitPrice:  l.UnitPrice,
			Total:      l.Total,
			Notes:      l.Notes,
		}
		if l.Product != nil {
			lr.ProductCode = l.Product.Code
			lr.ProductName = l.Product.Name
		}
		if l.Supplier != nil {
			lr.SupplierName = l.Supplier.Name
		}
		resp.Lines[i] = lr
	}
	if o.Delivery != nil {
		d := toDeliveryResponse(o.Delivery, o.Total)
		resp.Delivery = &d
	}
	return resp
}

func toOrderListItem(o *model.Order) dto.OrderListItem {
	item := dto.OrderListItem{
		ID:        o.ID.String(),
		Number:    o.Number,
		ClientID:  o.ClientID.String(),
		OrderDate: fmtDate(o.OrderDate),
		Status:    o.Status,
		Total:     o.Total,
		CreatedAt: fmtTime(o.CreatedAt),
	}
	if o.Client != nil {
		item.ClientName = o.Client.Name
	}
	if o.Delivery != nil {
		item.HasDelivery = true
		item.DeliveryCompleted = o.Delivery.IsCompleted()
	}
	return item
}

func toSummaryResponse(s repository.OrderSummary) dto.OrderSummaryResponse {
	return dto.OrderSummaryResponse{
		Total:      s.Total,
		Pending:    s.Pending,
		Delivered:  s.Delivered,
		TotalValue: s.TotalValue,
	}
}
