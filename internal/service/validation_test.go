package service

import (
	"testing"
	"time"

	"github.com/Cozta1/sistema-encomendas-V2/internal/dto"
	"github.com/Cozta1/sistema-encomendas-V2/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.ErrorIs(t, err, ErrValidation)
	return ve.Fields
}

func TestValidateOrderLine(t *testing.T) {
	tests := []struct {
		name   string
		qty    int
		price  string
		fields []string
	}{
		{"valid", 1, "0.01", nil},
		{"zero quantity", 0, "10.00", []string{"lines[0].quantity"}},
		{"price below minimum", 2, "0.00", []string{"lines[0].unit_price"}},
		{"three decimal places", 2, "1.005", []string{"lines[0].unit_price"}},
		{"both wrong", -1, "-5", []string{"lines[0].quantity", "lines[0].unit_price"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOrderLine("lines[0]", tt.qty, dec(tt.price))
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}
			fields := fieldsOf(t, err)
			assert.Len(t, fields, len(tt.fields))
			for _, f := range tt.fields {
				assert.Contains(t, fields, f)
			}
		})
	}
}

func TestValidateCreateOrder_ReportsEveryLine(t *testing.T) {
	bad := "01/02/2025"
	req := dto.CreateOrderRequest{
		ClientID:  uuid.NewString(),
		OrderDate: &bad,
		Lines: []dto.OrderLineRequest{
			{ProductID: uuid.NewString(), SupplierID: uuid.NewString(), Quantity: 1, UnitPrice: dec("1.00")},
			{ProductID: "x", SupplierID: uuid.NewString(), Quantity: 0, UnitPrice: dec("1.00")},
		},
	}

	fields := fieldsOf(t, ValidateCreateOrder(req))

	assert.Contains(t, fields, "order_date")
	assert.Contains(t, fields, "lines[1].product_id")
	assert.Contains(t, fields, "lines[1].quantity")
	assert.NotContains(t, fields, "lines[0].quantity")
}

func TestValidateEditOrder_NamespacesDiff(t *testing.T) {
	status := "shipped"
	req := dto.EditOrderRequest{
		Status: &status,
		Lines: dto.LinesDiff{
			Add:    []dto.OrderLineRequest{{ProductID: uuid.NewString(), SupplierID: uuid.NewString(), Quantity: 0, UnitPrice: dec("2.00")}},
			Update: []dto.UpdateLineRequest{{ID: "nope"}},
		},
	}

	fields := fieldsOf(t, ValidateEditOrder(req))

	assert.Contains(t, fields, "status")
	assert.Contains(t, fields, "lines.add[0].quantity")
	assert.Contains(t, fields, "lines.update[0].id")
}

func TestValidEmail(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"ana@example.com", true},
		{"ana.souza+pedidos@doceria.com.br", true},
		{"", false},
		{"invalido", false},
		{"ana@", false},
		{"Ana <ana@example.com>", false},
		{"ana @example.com", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, validEmail(tt.in), tt.in)
	}
}

func TestValidateDeliveryAmounts(t *testing.T) {
	assert.NoError(t, ValidateDeliveryAmounts(dec("0")))
	assert.NoError(t, ValidateDeliveryAmounts(dec("150.50")))
	assert.Contains(t, fieldsOf(t, ValidateDeliveryAmounts(dec("-0.01"))), "advance_payment")
	assert.Contains(t, fieldsOf(t, ValidateDeliveryAmounts(dec("1.999"))), "advance_payment")
}

func TestValidateOrderStatus(t *testing.T) {
	for _, s := range model.OrderStatuses {
		assert.NoError(t, ValidateOrderStatus(s), s)
	}
	assert.Contains(t, fieldsOf(t, ValidateOrderStatus("entregue")), "status")
}

func TestValidateTeam(t *testing.T) {
	assert.NoError(t, ValidateTeam("Doceria", ""))
	assert.Contains(t, fieldsOf(t, ValidateTeam("   ", "")), "name")
}

func TestInvitationValidity(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	inv := &model.Invitation{Status: model.InvitationPending, ExpiresAt: at}

	assert.True(t, inv.IsValid(at.Add(-time.Second)))
	assert.False(t, inv.IsValid(at), "the deadline itself is already expired")
	assert.True(t, inv.IsExpired(at))

	inv.Status = model.InvitationAccepted
	assert.False(t, inv.IsValid(at.Add(-time.Hour)))
	assert.False(t, inv.IsExpired(at.Add(time.Hour)))
}
