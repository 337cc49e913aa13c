// Package domain contains the canonical order aggregate the fiscal engine
// consumes. Two historical store schemas (comandas and vendas) normalize
// into these types.
package domain

import "time"

// DiscountKind mirrors comandas.desconto_tipo.
type DiscountKind string

const (
	DiscountNone       DiscountKind = ""
	DiscountPercentage DiscountKind = "percentual"
	DiscountFixed      DiscountKind = "fixo"
)

// Order is the normalized transaction header.
type Order struct {
	ID           string
	Number       string
	MerchantCode string
	CustomerID   string
	ClosedAt     *time.Time

	// Discount is the absolute document discount carried by the sale
	// schema. The tab schema expresses discounts as kind+value instead.
	Discount      float64
	DiscountKind  DiscountKind
	DiscountValue float64
}

// TaxProfile is the raw product attribute bag. Column names differ between
// schema generations (camelCase legacy vs snake_case current), so values are
// kept keyed as stored and resolved later by ordered candidate lists.
type TaxProfile map[string]any

// LineItem is a normalized order line with its product tax snapshot.
type LineItem struct {
	ProductID   string
	ProductCode string
	Description string
	Quantity    float64
	UnitPrice   float64
	Discount    float64
	// Total is the stored line total when present, otherwise
	// Quantity*UnitPrice-Discount.
	Total   float64
	Profile TaxProfile
}

// Payment statuses excluded from the aggregate.
const (
	PaymentStatusCancelled = "Cancelado"
	PaymentStatusReversed  = "Estornado"
)

// Payment is a settled payment against the order.
type Payment struct {
	Amount      float64
	MethodLabel string
	// MethodCode is the tax-authority payment-type code recorded on the
	// payment method (finalizadoras.codigo_sefaz). Empty when unmapped.
	MethodCode string
	Status     string
}

// Merchant is the issuing party.
type Merchant struct {
	Code              string
	CNPJ              string
	CorporateName     string
	TradeName         string
	Street            string
	Number            string
	District          string
	City              string
	CityCode          string
	UF                string
	UFCode            string
	ZIP               string
	Phone             string
	StateRegistration string
	TaxRegime         string
	Series            string
}

// Customer is the optional recipient. A nil customer means a consumer-final
// anonymous transaction, which is valid.
type Customer struct {
	ID                string
	Name              string
	PersonType        string // PF | PJ
	TaxID             string
	StateRegistration string
	Street            string
	Number            string
	District          string
	City              string
	CityCode          string
	UF                string
	ZIP               string
	Email             string
}

// Aggregate is the fully resolved record set handed to the assembler.
type Aggregate struct {
	Header   Order
	Items    []LineItem
	Payments []Payment
	Merchant Merchant
	Customer *Customer

	// FallbackSchema marks that the header came from the secondary (sale)
	// schema rather than the primary (tab) one.
	FallbackSchema bool
}
