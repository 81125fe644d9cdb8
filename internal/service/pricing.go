package service

import (
	"boxoffice/internal/models"

	"github.com/shopspring/decimal"
)

// ServiceFeeRate is applied to the subtotal of a line item.
var ServiceFeeRate = decimal.RequireFromString("0.10")

var basePrices = map[models.TicketType]decimal.Decimal{
	models.TicketTypeGeneral: decimal.RequireFromString("50.00"),
	models.TicketTypeVIP:     decimal.RequireFromString("100.00"),
}

// BasePrice returns the flat per-ticket price for t.
func BasePrice(t models.TicketType) decimal.Decimal {
	return basePrices[t]
}

// CalculatePrice returns base*quantity plus the service fee on that subtotal.
// The result is exact; rounding to cents happens in UnitPrice.
func CalculatePrice(base decimal.Decimal, quantity int) decimal.Decimal {
	subtotal := base.Mul(decimal.NewFromInt(int64(quantity)))
	fee := subtotal.Mul(ServiceFeeRate)
	return subtotal.Add(fee)
}

// UnitPrice splits total evenly over quantity and rounds to cents. This is
// the price stored on each of the quantity item rows, so the order total can
// differ from total by up to half a cent per unit.
func UnitPrice(total decimal.Decimal, quantity int) decimal.Decimal {
	return total.Div(decimal.NewFromInt(int64(quantity))).Round(2)
}
