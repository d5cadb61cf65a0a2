package infra

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/Cozta1/sistema-encomendas-V2/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleOrder() *model.Order {
	completed := time.Date(2025, 6, 2, 15, 45, 0, 0, time.UTC)
	return &model.Order{
		Number:        7,
		OrderDate:     time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		CreatedByName: "Ana Souza",
		Status:        model.OrderDelivered,
		Notes:         "Sem glúten",
		Total:         decimal.RequireFromString("36.00"),
		Client: &model.Client{
			Code: "C-1", Name: "Maria Oliveira", Address: "Av. Brasil, 500",
			Neighborhood: "Jardim", Reference: "Portão azul", Phone: "11 99999-0000",
		},
		Lines: []model.OrderLine{
			{
				Quantity: 2, UnitPrice: decimal.RequireFromString("10.50"), Total: decimal.RequireFromString("21.00"),
				Product:  &model.Product{Name: "Bolo de cenoura com cobertura de chocolate meio amargo"},
				Supplier: &model.Supplier{Name: "Confeitaria São João"},
			},
			{Quantity: 3, UnitPrice: decimal.RequireFromString("5.00"), Total: decimal.RequireFromString("15.00")},
		},
		Delivery: &model.Delivery{
			ScheduledDate:      time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
			ResponsibleName:    "Carlos",
			AdvancePayment:     decimal.RequireFromString("10.00"),
			CompletedAt:        &completed,
			DeliveredBy:        "Carlos",
			SignatureConfirmed: true,
		},
	}
}

func TestRenderOrderPDF(t *testing.T) {
	var buf bytes.Buffer

	err := RenderOrderPDF(&buf, &model.Team{Name: "Doceria Central"}, sampleOrder())

	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 1000)
}

func TestRenderOrderPDF_MinimalOrder(t *testing.T) {
	var buf bytes.Buffer

	err := RenderOrderPDF(&buf, nil, &model.Order{Number: 1, Status: "custom"})

	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "curto", truncate("curto", 10))
	got := truncate(strings.Repeat("á", 12), 10)
	assert.Equal(t, 10, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, "…"))
}
