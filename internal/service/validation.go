package service

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/Cozta1/sistema-encomendas-V2/internal/dto"
	"github.com/Cozta1/sistema-encomendas-V2/internal/model"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var minPrice = decimal.RequireFromString("0.01")

// validate checks single values with the same rules the request DTOs use.
var validate = validator.New()

// ValidatePassword enforces: at least 6 characters, one uppercase, one lowercase and one digit.
func ValidatePassword(pw string) error {
	fe := fieldErrors{}
	var upper, lowerCase, digit bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lowerCase = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	switch {
	case len([]rune(pw)) < 6:
		fe.add("password", "a senha deve ter pelo menos 6 caracteres")
	case !upper:
		fe.add("password", "a senha deve conter pelo menos uma letra maiúscula")
	case !lowerCase:
		fe.add("password", "a senha deve conter pelo menos uma letra minúscula")
	case !digit:
		fe.add("password", "a senha deve conter pelo menos um número")
	}
	return fe.err()
}

func validEmail(s string) bool {
	return validate.Var(s, "required,email,max=254") == nil
}

func requireText(fe fieldErrors, field, value string, max int) {
	v := strings.TrimSpace(value)
	if v == "" {
		fe.add(field, "obrigatório")
		return
	}
	if max > 0 && len([]rune(v)) > max {
		fe.add(field, fmt.Sprintf("máximo de %d caracteres", max))
	}
}

func limitText(fe fieldErrors, field, value string, max int) {
	if len([]rune(value)) > max {
		fe.add(field, fmt.Sprintf("máximo de %d caracteres", max))
	}
}

// validMoney accepts amounts with at most two fractional digits.
func validMoney(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

// ValidateTeam checks the fields of a new or edited team.
func ValidateTeam(name, description string) error {
	fe := fieldErrors{}
	requireText(fe, "name", name, 100)
	limitText(fe, "description", description, 2000)
	return fe.err()
}

func ValidateClient(req dto.CreateClientRequest) error {
	fe := fieldErrors{}
	requireText(fe, "code", req.Code, 50)
	requireText(fe, "name", req.Name, 200)
	requireText(fe, "address", req.Address, 0)
	requireText(fe, "neighborhood", req.Neighborhood, 100)
	limitText(fe, "reference", req.Reference, 200)
	limitText(fe, "phone", req.Phone, 20)
	return fe.err()
}

func ValidateSupplier(req dto.CreateSupplierRequest) error {
	fe := fieldErrors{}
	requireText(fe, "code", req.Code, 50)
	requireText(fe, "name", req.Name, 200)
	limitText(fe, "contact", req.Contact, 200)
	limitText(fe, "phone", req.Phone, 20)
	if req.Email != "" && !validEmail(req.Email) {
		fe.add("email", "email inválido")
	}
	return fe.err()
}

func ValidateProduct(req dto.CreateProductRequest) error {
	fe := fieldErrors{}
	requireText(fe, "code", req.Code, 50)
	requireText(fe, "name", req.Name, 200)
	limitText(fe, "category", req.Category, 100)
	if req.BasePrice.LessThan(minPrice) {
		fe.add("base_price", "deve ser no mínimo 0.01")
	} else if !validMoney(req.BasePrice) {
		fe.add("base_price", "no máximo duas casas decimais")
	}
	return fe.err()
}

// ValidateOrderLine checks quantity ≥ 1 and price ≥ 0.01 with two decimal places.
// prefix namespaces the field names (e.g. "lines[2]").
func ValidateOrderLine(prefix string, quantity int, price decimal.Decimal) error {
	fe := fieldErrors{}
	validateLineInto(fe, prefix, quantity, price)
	return fe.err()
}

func validateLineInto(fe fieldErrors, prefix string, quantity int, price decimal.Decimal) {
	if quantity < 1 {
		fe.add(prefix+".quantity", "deve ser no mínimo 1")
	}
	if price.LessThan(minPrice) {
		fe.add(prefix+".unit_price", "deve ser no mínimo 0.01")
	} else if !validMoney(price) {
		fe.add(prefix+".unit_price", "no máximo duas casas decimais")
	}
}

// ValidateCreateOrder checks the order header and every line before any lookup.
func ValidateCreateOrder(req dto.CreateOrderRequest) error {
	fe := fieldErrors{}
	if _, err := parseUUID(req.ClientID); err != nil {
		fe.add("client_id", "obrigatório")
	}
	if req.OrderDate != nil {
		if _, err := parseDate(*req.OrderDate); err != nil {
			fe.add("order_date", "data inválida (AAAA-MM-DD)")
		}
	}
	limitText(fe, "created_by_name", req.CreatedByName, 100)
	if len(req.Lines) == 0 {
		fe.add("lines", "a encomenda precisa de pelo menos um item")
	}
	for i, l := range req.Lines {
		prefix := fmt.Sprintf("lines[%d]", i)
		if _, err := parseUUID(l.ProductID); err != nil {
			fe.add(prefix+".product_id", "obrigatório")
		}
		if _, err := parseUUID(l.SupplierID); err != nil {
			fe.add(prefix+".supplier_id", "obrigatório")
		}
		validateLineInto(fe, prefix, l.Quantity, l.UnitPrice)
	}
	return fe.err()
}

func ValidateOrderStatus(status string) error {
	if !model.ValidOrderStatus(status) {
		return &ValidationError{Fields: map[string]string{"status": "status inválido"}}
	}
	return nil
}

// ValidateDeliveryAmounts checks the advance payment is non-negative money.
func ValidateDeliveryAmounts(advance decimal.Decimal) error {
	fe := fieldErrors{}
	if advance.IsNegative() {
		fe.add("advance_payment", "não pode ser negativo")
	} else if !validMoney(advance) {
		fe.add("advance_payment", "no máximo duas casas decimais")
	}
	return fe.err()
}

func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(dto.DateLayout, strings.TrimSpace(s), time.UTC)
}

// parseClock parses HH:MM (seconds tolerated).
func parseClock(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("15:04", s); err == nil {
		return t, nil
	}
	return time.Parse("15:04:05", s)
}

// ValidateEditOrder checks the header fields and the lines diff of an edit.
// Ownership of the referenced lines is checked later, against the stored order.
func ValidateEditOrder(req dto.EditOrderRequest) error {
	fe := fieldErrors{}
	if req.ClientID != nil {
		if _, err := parseUUID(*req.ClientID); err != nil {
			fe.add("client_id", "identificador inválido")
		}
	}
	if req.OrderDate != nil {
		if _, err := parseDate(*req.OrderDate); err != nil {
			fe.add("order_date", "data inválida (AAAA-MM-DD)")
		}
	}
	if req.Status != nil && !model.ValidOrderStatus(*req.Status) {
		fe.add("status", "status inválido")
	}
	for i, l := range req.Lines.Add {
		prefix := fmt.Sprintf("lines.add[%d]", i)
		if _, err := parseUUID(l.ProductID); err != nil {
			fe.add(prefix+".product_id", "obrigatório")
		}
		if _, err := parseUUID(l.SupplierID); err != nil {
			fe.add(prefix+".supplier_id", "obrigatório")
		}
		validateLineInto(fe, prefix, l.Quantity, l.UnitPrice)
	}
	for i, u := range req.Lines.Update {
		prefix := fmt.Sprintf("lines.update[%d]", i)
		if _, err := parseUUID(u.ID); err != nil {
			fe.add(prefix+".id", "obrigatório")
		}
		if u.ProductID != nil {
			if _, err := parseUUID(*u.ProductID); err != nil {
				fe.add(prefix+".product_id", "identificador inválido")
			}
		}
		if u.SupplierID != nil {
			if _, err := parseUUID(*u.SupplierID); err != nil {
				fe.add(prefix+".supplier_id", "identificador inválido")
			}
		}
		if u.Quantity != nil && *u.Quantity < 1 {
			fe.add(prefix+".quantity", "deve ser no mínimo 1")
		}
		if u.UnitPrice != nil {
			if u.UnitPrice.LessThan(minPrice) {
				fe.add(prefix+".unit_price", "deve ser no mínimo 0.01")
			} else if !validMoney(*u.UnitPrice) {
				fe.add(prefix+".unit_price", "no máximo duas casas decimais")
			}
		}
	}
	for i, raw := range req.Lines.Delete {
		if _, err := parseUUID(raw); err != nil {
			fe.add(fmt.Sprintf("lines.delete[%d]", i), "identificador inválido")
		}
	}
	return fe.err()
}
