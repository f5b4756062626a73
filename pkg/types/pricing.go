package types

import (
	"database/sql/driver"

	"github.com/shopspring/decimal"
)

// PriceBreakdown is frozen on the order at placement time.
type PriceBreakdown struct {
	Subtotal     decimal.Decimal `json:"subtotal"`
	TransportFee decimal.Decimal `json:"transportFee"`
	PlatformFee  decimal.Decimal `json:"platformFee"`
	Total        decimal.Decimal `json:"total"`
}

// NewPriceBreakdown prices quantity units at unitPrice. The platform fee is a
// percentage of the subtotal rounded to two places.
func NewPriceBreakdown(unitPrice, quantity, transportFee, platformPercent decimal.Decimal) PriceBreakdown {
	subtotal := unitPrice.Mul(quantity).Round(2)
	platformFee := subtotal.Mul(platformPercent).Div(decimal.NewFromInt(100)).Round(2)
	return PriceBreakdown{
		Subtotal:     subtotal,
		TransportFee: transportFee,
		PlatformFee:  platformFee,
		Total:        subtotal.Add(transportFee).Add(platformFee),
	}
}

func (p PriceBreakdown) Value() (driver.Value, error) {
	return marshalJSONB(p)
}

func (p *PriceBreakdown) Scan(value any) error {
	var out PriceBreakdown
	if _, err := scanJSONB(value, &out, "price breakdown"); err != nil {
		return err
	}
	*p = out
	return nil
}
