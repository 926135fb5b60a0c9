package domain

import "github.com/shopspring/decimal"

// Pricer derives order amounts from resolved line items using fixed policy
// rates. Pricing is deterministic and has no failure modes; amounts stay
// exact decimals and are only rounded when the gateway amount is derived.
type Pricer struct {
	taxRate        decimal.Decimal
	deliveryCharge decimal.Decimal
}

// NewPricer builds a Pricer from a tax rate (e.g. 0.10) and a flat
// delivery charge.
func NewPricer(taxRate, deliveryCharge decimal.Decimal) Pricer {
	return Pricer{taxRate: taxRate, deliveryCharge: deliveryCharge}
}

// Price computes subtotal, tax, delivery charge and total for the items.
func (p Pricer) Price(items []LineItem) Amounts {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	tax := subtotal.Mul(p.taxRate)
	total := subtotal.Add(tax).Add(p.deliveryCharge)

	return Amounts{
		Subtotal:       subtotal,
		Tax:            tax,
		DeliveryCharge: p.deliveryCharge,
		Total:          total,
	}
}
