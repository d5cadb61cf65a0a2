package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/Cozta1/sistema-encomendas-V2/internal/dto"
	"github.com/Cozta1/sistema-encomendas-V2/internal/model"
	"github.com/Cozta1/sistema-encomendas-V2/internal/repository"
	"github.com/Cozta1/sistema-encomendas-V2/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── Fixture ──────────────────────────────────────────────────────────────────

type orderFixture struct {
	db         *gorm.DB
	orders     OrderService
	deliveries DeliveryService
	tc         TenantContext
	cat        testutil.Catalog
	// other is a second team with its own catalog, used for isolation checks.
	otherTC  TenantContext
	otherCat testutil.Catalog
}

func newOrderFixture(t *testing.T, render OrderRenderer) *orderFixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)

	ana := testutil.SeedUser(t, db, "ana@example.com", "Ana Souza")
	bruno := testutil.SeedUser(t, db, "bruno@example.com", "Bruno Lima")
	teamA := testutil.SeedTeam(t, db, "Equipe A", ana)
	teamB := testutil.SeedTeam(t, db, "Equipe B", bruno)

	orderRepo := repository.NewOrderRepository(db)
	return &orderFixture{
		db: db,
		orders: NewOrderService(
			orderRepo,
			repository.NewTeamRepository(db),
			repository.NewClientRepository(db),
			repository.NewProductRepository(db),
			repository.NewSupplierRepository(db),
			render,
			20,
		),
		deliveries: NewDeliveryService(repository.NewDeliveryRepository(db), orderRepo),
		tc:         TenantContext{Team: teamA, UserID: ana.ID, UserName: ana.FullName, Role: model.RoleAdministrator},
		cat:        testutil.SeedCatalog(t, db, teamA, "A"),
		otherTC:    TenantContext{Team: teamB, UserID: bruno.ID, UserName: bruno.FullName, Role: model.RoleAdministrator},
		otherCat:   testutil.SeedCatalog(t, db, teamB, "B"),
	}
}

func lineReq(cat testutil.Catalog, qty int, price string) dto.OrderLineRequest {
	return dto.OrderLineRequest{
		ProductID:  cat.Product.ID.String(),
		SupplierID: cat.Supplier.ID.String(),
		Quantity:   qty,
		UnitPrice:  decimal.RequireFromString(price),
	}
}

// createOrder places the standard two-line order: 2 × 10.50 + 3 × 5.00 = 36.00.
func (f *orderFixture) createOrder(t *testing.T) *dto.OrderResponse {
	t.Helper()
	resp, err := f.orders.Create(context.Background(), f.tc, dto.CreateOrderRequest{
		ClientID: f.cat.Client.ID.String(),
		Lines:    []dto.OrderLineRequest{lineReq(f.cat, 2, "10.50"), lineReq(f.cat, 3, "5.00")},
	})
	require.NoError(t, err)
	return resp
}

func (f *orderFixture) count(t *testing.T, m interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(m).Count(&n).Error)
	return n
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// lineByPrice finds the line quoted at price.
func lineByPrice(t *testing.T, lines []dto.OrderLineResponse, price string) dto.OrderLineResponse {
	t.Helper()
	for _, l := range lines {
		if l.UnitPrice.Equal(dec(price)) {
			return l
		}
	}
	t.Fatalf("no line priced %s", price)
	return dto.OrderLineResponse{}
}

// ── Create ───────────────────────────────────────────────────────────────────

func TestCreateOrder_ComputesTotalFromLines(t *testing.T) {
	f := newOrderFixture(t, nil)

	resp := f.createOrder(t)

	assert.Equal(t, int64(1), resp.Number)
	assert.Equal(t, model.OrderCreated, resp.Status)
	assert.Equal(t, "Ana Souza", resp.CreatedByName)
	assert.Equal(t, "A Cliente", resp.ClientName)
	require.Len(t, resp.Lines, 2)
	first := lineByPrice(t, resp.Lines, "10.50")
	second := lineByPrice(t, resp.Lines, "5.00")
	assert.True(t, first.Total.Equal(dec("21.00")), "got %s", first.Total)
	assert.True(t, second.Total.Equal(dec("15.00")), "got %s", second.Total)
	assert.True(t, resp.Total.Equal(dec("36.00")), "got %s", resp.Total)
	assert.Equal(t, "A Produto", first.ProductName)
	assert.Equal(t, "A Fornecedor", first.SupplierName)
}

func TestCreateOrder_KeepsLineOrder(t *testing.T) {
	f := newOrderFixture(t, nil)
	ctx := context.Background()
	prices := []string{"3.00", "1.00", "2.00", "5.00", "4.00"}
	lines := make([]dto.OrderLineRequest, len(prices))
	for i, p := range prices {
		lines[i] = lineReq(f.cat, 1, p)
	}

	resp, err := f.orders.Create(ctx, f.tc, dto.CreateOrderRequest{ClientID: f.cat.Client.ID.String(), Lines: lines})
	require.NoError(t, err)
	edited, err := f.orders.Edit(ctx, f.tc, uuid.MustParse(resp.ID), dto.EditOrderRequest{
		Lines: dto.LinesDiff{Add: []dto.OrderLineRequest{lineReq(f.cat, 1, "0.50")}},
	})
	require.NoError(t, err)

	want := append(prices, "0.50")
	require.Len(t, edited.Lines, len(want))
	for i, p := range want {
		assert.True(t, edited.Lines[i].UnitPrice.Equal(dec(p)), "line %d: got %s, want %s", i, edited.Lines[i].UnitPrice, p)
	}
}

func TestCreateOrder_NumberNotReusedAfterDelete(t *testing.T) {
	f := newOrderFixture(t, nil)
	ctx := context.Background()
	first := f.createOrder(t)
	second := f.createOrder(t)
	require.NoError(t, f.orders.Delete(ctx, f.tc, uuid.MustParse(second.ID)))

	third := f.createOrder(t)

	assert.Equal(t, int64(1), first.Number)
	assert.Equal(t, int64(2), second.Number)
	assert.Greater(t, third.Number, second.Number, "a deleted order's number is never handed out again")
}

func TestCreateOrder_TenantMismatchRollsBack(t *testing.T) {
	f := newOrderFixture(t, nil)

	_, err := f.orders.Create(context.Background(), f.tc, dto.CreateOrderRequest{
		ClientID: f.cat.Client.ID.String(),
		Lines: []dto.OrderLineRequest{
			lineReq(f.cat, 1, "10.00"),
			lineReq(f.otherCat, 1, "10.00"),
		},
	})

	require.ErrorIs(t, err, ErrTenantMismatch)
	assert.Contains(t, err.Error(), "lines[1].product_id")
	assert.Equal(t, int64(0), f.count(t, &model.Order{}), "no order may survive a rejected create")
	assert.Equal(t, int64(0), f.count(t, &model.OrderLine{}), "no line may survive a rejected create")
}

func TestCreateOrder_ForeignClient(t *testing.T) {
	f := newOrderFixture(t, nil)

	_, err := f.orders.Create(context.Background(), f.tc, dto.CreateOrderRequest{
		ClientID: f.otherCat.Client.ID.String(),
		Lines:    []dto.OrderLineRequest{lineReq(f.cat, 1, "10.00")},
	})

	require.ErrorIs(t, err, ErrTenantMismatch)
	assert.Contains(t, err.Error(), "client_id")
}

func TestCreateOrder_ForeignSupplier(t *testing.T) {
	f := newOrderFixture(t, nil)
	line := lineReq(f.cat, 1, "10.00")
	line.SupplierID = f.otherCat.Supplier.ID.String()

	_, err := f.orders.Create(context.Background(), f.tc, dto.CreateOrderRequest{
		ClientID: f.cat.Client.ID.String(),
		Lines:    []dto.OrderLineRequest{line},
	})

	require.ErrorIs(t, err, ErrTenantMismatch)
	assert.Contains(t, err.Error(), "lines[0].supplier_id")
}

func TestCreateOrder_RequiresLines(t *testing.T) {
	f := newOrderFixture(t, nil)

	_, err := f.orders.Create(context.Background(), f.tc, dto.CreateOrderRequest{
		ClientID: f.cat.Client.ID.String(),
	})

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "lines")
}

func TestCreateOrder_InvalidLineValues(t *testing.T) {
	f := newOrderFixture(t, nil)

	_, err := f.orders.Create(context.Background(), f.tc, dto.CreateOrderRequest{
		ClientID: f.cat.Client.ID.String(),
		Lines:    []dto.OrderLineRequest{lineReq(f.cat, 0, "10.00"), lineReq(f.cat, 1, "0.001")},
	})

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "lines[0].quantity")
	assert.Contains(t, ve.Fields, "lines[1].unit_price")
	assert.Equal(t, int64(0), f.count(t, &model.Order{}))
}

func TestCreateOrder_NumbersArePerTeam(t *testing.T) {
	f := newOrderFixture(t, nil)
	ctx := context.Background()

	first := f.createOrder(t)
	second := f.createOrder(t)
	other, err := f.orders.Create(ctx, f.otherTC, dto.CreateOrderRequest{
		ClientID: f.otherCat.Client.ID.String(),
		Lines:    []dto.OrderLineRequest{lineReq(f.otherCat, 1, "1.00")},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.Number)
	assert.Equal(t, int64(2), second.Number)
	assert.Equal(t, int64(1), other.Number)
}

func TestCreateOrder_ExplicitDateAndCreator(t *testing.T) {
	f := newOrderFixture(t, nil)
	date := "2025-03-14"

	resp, err := f.orders.Create(context.Background(), f.tc, dto.CreateOrderRequest{
		ClientID:      f.cat.Client.ID.String(),
		OrderDate:     &date,
		CreatedByName: "  Balcão  ",
		Lines:         []dto.OrderLineRequest{lineReq(f.cat, 1, "1.00")},
	})

	require.NoError(t, err)
	assert.Equal(t, "2025-03-14", resp.OrderDate)
	assert.Equal(t, "Balcão", resp.CreatedByName)
}

// ── Read ─────────────────────────────────────────────────────────────────────

func TestGetOrder_OtherTeamIsNotFound(t *testing.T) {
	f := newOrderFixture(t, nil)
	created := f.createOrder(t)
	id := uuid.MustParse(created.ID)

	_, err := f.orders.Get(context.Background(), f.otherTC, id)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListOrders_FiltersAndSummary(t *testing.T) {
	f := newOrderFixture(t, nil)
	ctx := context.Background()
	first := f.createOrder(t)
	f.createOrder(t)
	_, err := f.orders.UpdateStatus(ctx, f.tc, uuid.MustParse(first.ID), model.OrderDelivered)
	require.NoError(t, err)

	all, err := f.orders.List(ctx, f.tc, dto.OrderFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Total)
	assert.Len(t, all.Data, 2)
	assert.Equal(t, int64(2), all.Summary.Total)
	assert.Equal(t, int64(1), all.Summary.Pending)
	assert.Equal(t, int64(1), all.Summary.Delivered)
	assert.True(t, all.Summary.TotalValue.Equal(dec("72.00")), "got %s", all.Summary.TotalValue)

	delivered, err := f.orders.List(ctx, f.tc, dto.OrderFilter{Status: model.OrderDelivered})
	require.NoError(t, err)
	require.Len(t, delivered.Data, 1)
	assert.Equal(t, first.ID, delivered.Data[0].ID)

	_, err = f.orders.List(ctx, f.tc, dto.OrderFilter{Status: "shipped"})
	assert.ErrorIs(t, err, ErrValidation)

	other, err := f.orders.List(ctx, f.otherTC, dto.OrderFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), other.Total)
}

// ── Edit ─────────────────────────────────────────────────────────────────────

func TestEditOrder_LinesDiffRecomputesTotal(t *testing.T) {
	f := newOrderFixture(t, nil)
	ctx := context.Background()
	created := f.createOrder(t)
	id := uuid.MustParse(created.ID)
	keep := lineByPrice(t, created.Lines, "10.50")
	drop := lineByPrice(t, created.Lines, "5.00")
	qty := 4
	notes := "urgente"

	resp, err := f.orders.Edit(ctx, f.tc, id, dto.EditOrderRequest{
		Notes: &notes,
		Lines: dto.LinesDiff{
			Update: []dto.UpdateLineRequest{{ID: keep.ID, Quantity: &qty}},
			Delete: []string{drop.ID},
			Add:    []dto.OrderLineRequest{lineReq(f.cat, 1, "7.25")},
		},
	})

	require.NoError(t, err)
	require.Len(t, resp.Lines, 2)
	assert.Equal(t, "urgente", resp.Notes)
	// 4 × 10.50 + 1 × 7.25
	assert.True(t, resp.Total.Equal(dec("49.25")), "got %s", resp.Total)
	for _, l := range resp.Lines {
		assert.NotEqual(t, drop.ID, l.ID)
		if l.ID == keep.ID {
			assert.Equal(t, 4, l.Quantity)
			assert.True(t, l.Total.Equal(dec("42.00")))
		}
	}
}

func TestEditOrder_ForeignLineIsRejected(t *testing.T) {
	f := newOrderFixture(t, nil)
	ctx := context.Background()
	mine := f.createOrder(t)
	theirs, err := f.orders.Create(ctx, f.otherTC, dto.CreateOrderRequest{
		ClientID: f.otherCat.Client.ID.String(),
		Lines:    []dto.OrderLineRequest{lineReq(f.otherCat, 1, "1.00")},
	})
	require.NoError(t, err)

	_, err = f.orders.Edit(ctx, f.tc, uuid.MustParse(mine.ID), dto.EditOrderRequest{
		Lines: dto.LinesDiff{Delete: []string{theirs.Lines[0].ID}},
	})

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "lines.delete[0]")
	assert.Equal(t, int64(3), f.count(t, &model.OrderLine{}))
}

func TestEditOrder_CannotRemoveEveryLine(t *testing.T) {
	f := newOrderFixture(t, nil)
	created := f.createOrder(t)

	_, err := f.orders.Edit(context.Background(), f.tc, uuid.MustParse(created.ID), dto.EditOrderRequest{
		Lines: dto.LinesDiff{Delete: []string{created.Lines[0].ID, created.Lines[1].ID}},
	})

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "lines")
	assert.Equal(t, int64(2), f.count(t, &model.OrderLine{}))
}

func TestEditOrder_TenantMismatchRollsBack(t *testing.T) {
	f := newOrderFixture(t, nil)
	ctx := context.Background()
	created := f.createOrder(t)
	id := uuid.MustParse(created.ID)
	notes := "não deve persistir"

	_, err := f.orders.Edit(ctx, f.tc, id, dto.EditOrderRequest{
		Notes: &notes,
		Lines: dto.LinesDiff{
			Delete: []string{lineByPrice(t, created.Lines, "5.00").ID},
			Add:    []dto.OrderLineRequest{lineReq(f.otherCat, 1, "1.00")},
		},
	})

	require.ErrorIs(t, err, ErrTenantMismatch)
	assert.Contains(t, err.Error(), "lines.add[0].product_id")
	after, err := f.orders.Get(ctx, f.tc, id)
	require.NoError(t, err)
	assert.Len(t, after.Lines, 2, "deleted line must be restored by the rollback")
	assert.Empty(t, after.Notes)
	assert.True(t, after.Total.Equal(dec("36.00")))
}

func TestEditOrder_NotFound(t *testing.T) {
	f := newOrderFixture(t, nil)

	_, err := f.orders.Edit(context.Background(), f.tc, uuid.New(), dto.EditOrderRequest{})

	assert.ErrorIs(t, err, ErrNotFound)
}

// ── Status / Delete / Recompute ──────────────────────────────────────────────

func TestUpdateStatus_FreeFormTransitions(t *testing.T) {
	f := newOrderFixture(t, nil)
	ctx := context.Background()
	id := uuid.MustParse(f.createOrder(t).ID)

	resp, err := f.orders.UpdateStatus(ctx, f.tc, id, model.OrderCancelled)
	require.NoError(t, err)
	assert.Equal(t, model.OrderCancelled, resp.Status)

	resp, err = f.orders.UpdateStatus(ctx, f.tc, id, model.OrderQuotation)
	require.NoError(t, err)
	assert.Equal(t, model.OrderQuotation, resp.Status)

	_, err = f.orders.UpdateStatus(ctx, f.tc, id, "shipped")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeleteOrder_CascadesLinesAndDelivery(t *testing.T) {
	f := newOrderFixture(t, nil)
	ctx := context.Background()
	id := uuid.MustParse(f.createOrder(t).ID)
	_, err := f.deliveries.Schedule(ctx, f.tc, id, dto.ScheduleDeliveryRequest{})
	require.NoError(t, err)

	require.NoError(t, f.orders.Delete(ctx, f.tc, id))

	assert.Equal(t, int64(0), f.count(t, &model.Order{}))
	assert.Equal(t, int64(0), f.count(t, &model.OrderLine{}))
	assert.Equal(t, int64(0), f.count(t, &model.Delivery{}))
	assert.ErrorIs(t, f.orders.Delete(ctx, f.tc, id), ErrNotFound)
}

func TestDeleteOrder_OtherTeamIsNotFound(t *testing.T) {
	f := newOrderFixture(t, nil)
	id := uuid.MustParse(f.createOrder(t).ID)

	err := f.orders.Delete(context.Background(), f.otherTC, id)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int64(1), f.count(t, &model.Order{}))
}

func TestRecompute_IsIdempotentAndRepairsTotal(t *testing.T) {
	f := newOrderFixture(t, nil)
	ctx := context.Background()
	id := uuid.MustParse(f.createOrder(t).ID)
	require.NoError(t, f.db.Model(&model.Order{}).Where("id = ?", id).Update("total", dec("999.99")).Error)

	first, err := f.orders.Recompute(ctx, f.tc, id)
	require.NoError(t, err)
	second, err := f.orders.Recompute(ctx, f.tc, id)
	require.NoError(t, err)

	assert.True(t, first.Total.Equal(dec("36.00")), "got %s", first.Total)
	assert.True(t, second.Total.Equal(first.Total))
	got, err := f.orders.Get(ctx, f.tc, id)
	require.NoError(t, err)
	assert.True(t, got.Total.Equal(dec("36.00")))
}

// ── Dashboard / PDF ──────────────────────────────────────────────────────────

func TestDashboard_CountsAndRecentOrders(t *testing.T) {
	f := newOrderFixture(t, nil)
	for i := 0; i < 6; i++ {
		f.createOrder(t)
	}

	resp, err := f.orders.Dashboard(context.Background(), f.tc)

	require.NoError(t, err)
	assert.Equal(t, int64(6), resp.TotalOrders)
	assert.Equal(t, int64(6), resp.PendingOrders)
	assert.Equal(t, int64(0), resp.DeliveredOrders)
	assert.Equal(t, int64(1), resp.ClientCount)
	assert.Len(t, resp.RecentOrders, 5)
	assert.Equal(t, "Equipe A", resp.Team.Name)
}

func TestRenderPDF_PassesFullAggregate(t *testing.T) {
	var got *model.Order
	render := func(w io.Writer, team *model.Team, o *model.Order) error {
		got = o
		_, err := w.Write([]byte("%PDF-" + team.Name))
		return err
	}
	f := newOrderFixture(t, render)
	id := uuid.MustParse(f.createOrder(t).ID)

	var buf bytes.Buffer
	require.NoError(t, f.orders.RenderPDF(context.Background(), f.tc, id, &buf))

	assert.Equal(t, "%PDF-Equipe A", buf.String())
	require.NotNil(t, got)
	require.NotNil(t, got.Client)
	require.Len(t, got.Lines, 2)
	assert.NotNil(t, got.Lines[0].Product)
	assert.NotNil(t, got.Lines[0].Supplier)
}

func TestRenderPDF_WithoutRenderer(t *testing.T) {
	f := newOrderFixture(t, nil)
	id := uuid.MustParse(f.createOrder(t).ID)

	err := f.orders.RenderPDF(context.Background(), f.tc, id, io.Discard)

	assert.Error(t, err)
}
