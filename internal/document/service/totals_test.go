package service

import (
	"testing"

	"github.com/quadrasoft/fiscal/internal/config"
	orderdomain "github.com/quadrasoft/fiscal/internal/order/domain"
	"github.com/stretchr/testify/assert"
)

func items(totals ...float64) []orderdomain.LineItem {
	out := make([]orderdomain.LineItem, len(totals))
	for i, v := range totals {
		out[i] = orderdomain.LineItem{Total: v}
	}
	return out
}

func TestComputeTotals_PercentageDiscount(t *testing.T) {
	header := orderdomain.Order{
		DiscountKind:  orderdomain.DiscountPercentage,
		DiscountValue: 10,
	}
	got := ComputeTotals(header, items(80, 20), config.PolicyConfig{})
	assert.InDelta(t, 100.0, got.ProductTotal, 1e-9)
	assert.InDelta(t, 10.0, got.Discount, 1e-9)
	assert.InDelta(t, 90.0, got.Net, 1e-9)
}

func TestComputeTotals_FixedDiscount(t *testing.T) {
	header := orderdomain.Order{
		DiscountKind:  orderdomain.DiscountFixed,
		DiscountValue: 7.5,
	}
	got := ComputeTotals(header, items(50), config.PolicyConfig{})
	assert.InDelta(t, 7.5, got.Discount, 1e-9)
	assert.InDelta(t, 42.5, got.Net, 1e-9)
}

func TestComputeTotals_AbsoluteDiscountWins(t *testing.T) {
	// The sale schema stores an absolute discount; it takes precedence over
	// any kind+value pair.
	header := orderdomain.Order{
		Discount:      5,
		DiscountKind:  orderdomain.DiscountPercentage,
		DiscountValue: 50,
	}
	got := ComputeTotals(header, items(100), config.PolicyConfig{})
	assert.InDelta(t, 5.0, got.Discount, 1e-9)
	assert.InDelta(t, 95.0, got.Net, 1e-9)
}

func TestComputeTotals_NoDiscount(t *testing.T) {
	got := ComputeTotals(orderdomain.Order{}, items(12.34, 0.66), config.PolicyConfig{})
	assert.InDelta(t, 0.0, got.Discount, 1e-9)
	assert.InDelta(t, 13.0, got.Net, 1e-9)
}

func TestComputeTotals_NegativeNetPreservedByDefault(t *testing.T) {
	header := orderdomain.Order{Discount: 150}
	got := ComputeTotals(header, items(100), config.PolicyConfig{})
	assert.InDelta(t, -50.0, got.Net, 1e-9)
}

func TestComputeTotals_NegativeNetClampedByPolicy(t *testing.T) {
	header := orderdomain.Order{Discount: 150}
	got := ComputeTotals(header, items(100), config.PolicyConfig{ClampNegativeNet: true})
	assert.InDelta(t, 0.0, got.Net, 1e-9)
}

func TestCheckPayments_OffByDefault(t *testing.T) {
	payments := []orderdomain.Payment{{Amount: 1}}
	assert.NoError(t, CheckPayments(payments, 999, config.PolicyConfig{}))
}

func TestCheckPayments_Enforced(t *testing.T) {
	policy := config.PolicyConfig{EnforcePaymentSum: true}

	ok := []orderdomain.Payment{{Amount: 60}, {Amount: 40.001}}
	assert.NoError(t, CheckPayments(ok, 100, policy))

	bad := []orderdomain.Payment{{Amount: 60}, {Amount: 30}}
	assert.Error(t, CheckPayments(bad, 100, policy))
}
