package service

import (
	"math"

	"github.com/quadrasoft/fiscal/internal/config"
	documentdomain "github.com/quadrasoft/fiscal/internal/document/domain"
	orderdomain "github.com/quadrasoft/fiscal/internal/order/domain"
)

// ComputeTotals derives document-level totals from resolved items. No
// rounding happens here; precision is applied at serialization only, so
// repeated derivation from the same inputs is deterministic.
func ComputeTotals(header orderdomain.Order, items []orderdomain.LineItem, policy config.PolicyConfig) documentdomain.Totals {
	var product float64
	for _, item := range items {
		product += item.Total
	}

	discount := resolveDiscount(header, product)

	net := product - discount
	if policy.ClampNegativeNet && net < 0 {
		net = 0
	}

	return documentdomain.Totals{
		ProductTotal: product,
		Discount:     discount,
		Net:          net,
	}
}

// resolveDiscount applies the documented precedence: explicit absolute
// order discount, then percentage-of-subtotal, then fixed value, then zero.
func resolveDiscount(header orderdomain.Order, subtotal float64) float64 {
	if header.Discount > 0 {
		return header.Discount
	}
	switch header.DiscountKind {
	case orderdomain.DiscountPercentage:
		if header.DiscountValue > 0 {
			return subtotal * header.DiscountValue / 100
		}
	case orderdomain.DiscountFixed:
		if header.DiscountValue > 0 {
			return header.DiscountValue
		}
	}
	return 0
}

// CheckPayments enforces the optional payment-sum policy. The source system
// never enforced this, so it defaults to off; tolerance is half a cent.
func CheckPayments(payments []orderdomain.Payment, net float64, policy config.PolicyConfig) error {
	if !policy.EnforcePaymentSum {
		return nil
	}
	var sum float64
	for _, p := range payments {
		sum += p.Amount
	}
	if math.Abs(sum-net) >= 0.005 {
		return documentdomain.ErrPaymentSumMismatch
	}
	return nil
}
