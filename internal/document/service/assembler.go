package service

import (
	"fmt"
	"strings"
	"time"

	documentdomain "github.com/quadrasoft/fiscal/internal/document/domain"
	"github.com/quadrasoft/fiscal/internal/document/format"
	"github.com/quadrasoft/fiscal/internal/document/serialize"
	orderdomain "github.com/quadrasoft/fiscal/internal/order/domain"
	taxdomain "github.com/quadrasoft/fiscal/internal/tax/domain"
)

// Stage tracks assembly progress. Transitions are strictly sequential with
// no branching back; each build method is a pure function of the previous
// stage's output.
type Stage int

const (
	StageIdle Stage = iota
	StageHeaderBuilt
	StagePartiesBuilt
	StageItemsBuilt
	StageTotalsBuilt
	StagePaymentsBuilt
	StageSerialized
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "IDLE"
	case StageHeaderBuilt:
		return "HEADER_BUILT"
	case StagePartiesBuilt:
		return "PARTIES_BUILT"
	case StageItemsBuilt:
		return "ITEMS_BUILT"
	case StageTotalsBuilt:
		return "TOTALS_BUILT"
	case StagePaymentsBuilt:
		return "PAYMENTS_BUILT"
	case StageSerialized:
		return "SERIALIZED"
	default:
		return "UNKNOWN"
	}
}

// HeaderInput carries everything the header stage needs.
type HeaderInput struct {
	Model    documentdomain.Model
	Merchant orderdomain.Merchant
	// CustomerUF derives the destination indicator; empty (anonymous) means
	// same-region.
	CustomerUF string
	OrderRef   string
	Number     string
	Series     string
	NatOp      string
	// Environment is tpAmb; zero defaults to test.
	Environment int
	Finality    int
	// Destination overrides the derived idDest when non-zero.
	Destination int
	Inbound     bool
	IssuedAt    time.Time
	AppVersion  string
}

// Builder assembles the document tree stage by stage.
type Builder struct {
	stage Stage
	doc   documentdomain.Document
}

func NewBuilder() *Builder {
	return &Builder{stage: StageIdle}
}

// Stage returns the current assembly stage.
func (b *Builder) Stage() Stage { return b.stage }

// Document exposes the tree built so far.
func (b *Builder) Document() documentdomain.Document { return b.doc }

func (b *Builder) BuildHeader(in HeaderInput) error {
	if err := b.expect(StageIdle); err != nil {
		return err
	}
	if !in.Model.Valid() {
		return documentdomain.ErrInvalidModel
	}

	number := strings.TrimSpace(in.Number)
	if number == "" {
		number = "1"
	}
	series := strings.TrimSpace(in.Series)
	if series == "" {
		series = strings.TrimSpace(in.Merchant.Series)
	}
	if series == "" {
		series = "1"
	}
	natOp := strings.TrimSpace(in.NatOp)
	if natOp == "" {
		natOp = "VENDA"
	}

	direction := 1
	if in.Inbound {
		direction = 0
	}

	dest := in.Destination
	if dest == 0 {
		dest = documentdomain.DestSameRegion
		if in.CustomerUF != "" && !strings.EqualFold(in.CustomerUF, in.Merchant.UF) {
			dest = documentdomain.DestCrossRegion
		}
	}

	env := in.Environment
	if env == 0 {
		env = documentdomain.EnvTest
	}
	finality := in.Finality
	if finality == 0 {
		finality = 1
	}

	ufCode := strings.TrimSpace(in.Merchant.UFCode)
	if ufCode == "" {
		ufCode = "35"
	}

	b.doc.Header = documentdomain.Header{
		UFCode:      ufCode,
		NumericCode: format.NumericCode(number),
		NatOp:       natOp,
		Model:       in.Model,
		Series:      series,
		Number:      number,
		IssuedAt:    in.IssuedAt,
		Direction:   direction,
		Destination: dest,
		CityCode:    in.Merchant.CityCode,
		PrintFormat: 4,
		EmissionTyp: 1,
		Environment: env,
		Finality:    finality,
		FinalBuyer:  1,
		Presence:    1,
		Process:     0,
		Version:     in.AppVersion,
	}
	b.doc.Key = format.DocumentKey(in.Merchant.CNPJ, number)
	b.doc.FreightMode = 9
	b.doc.ExtraInfo = fmt.Sprintf("Comanda: %s | Modelo: %s", in.OrderRef, modelLabel(in.Model))

	b.stage = StageHeaderBuilt
	return nil
}

// BuildParties renders the issuer always and the recipient only when a
// customer was resolved; anonymous transactions emit a minimal recipient
// block carrying only the generic tax indicator.
func (b *Builder) BuildParties(merchant orderdomain.Merchant, customer *orderdomain.Customer) error {
	if err := b.expect(StageHeaderBuilt); err != nil {
		return err
	}

	b.doc.Issuer = documentdomain.Issuer{
		CNPJ:          merchant.CNPJ,
		CorporateName: fallback(merchant.CorporateName, merchant.TradeName),
		TradeName:     merchant.TradeName,
		Address: documentdomain.Address{
			Street:      merchant.Street,
			Number:      fallback(merchant.Number, "S/N"),
			District:    merchant.District,
			CityCode:    merchant.CityCode,
			City:        merchant.City,
			UF:          merchant.UF,
			ZIP:         format.Digits(merchant.ZIP),
			CountryCode: "1058",
			Country:     "BRASIL",
			Phone:       format.Digits(merchant.Phone),
		},
		StateRegistration: merchant.StateRegistration,
		TaxRegime:         fallback(merchant.TaxRegime, "1"),
	}

	recipient := documentdomain.Recipient{TaxIndicator: 9}
	if customer != nil {
		taxID := format.Digits(customer.TaxID)
		if strings.EqualFold(customer.PersonType, "PJ") {
			recipient.CNPJ = taxID
		} else {
			recipient.CPF = taxID
		}
		recipient.Name = customer.Name
		recipient.Email = customer.Email
		recipient.Address = &documentdomain.Address{
			Street:      customer.Street,
			Number:      fallback(customer.Number, "S/N"),
			District:    customer.District,
			CityCode:    customer.CityCode,
			City:        customer.City,
			UF:          customer.UF,
			ZIP:         format.Digits(customer.ZIP),
			CountryCode: "1058",
			Country:     "BRASIL",
		}
	}
	b.doc.Recipient = recipient

	b.stage = StagePartiesBuilt
	return nil
}

// BuildItems renders one block per line item with its nested tax
// sub-blocks. fields must parallel items; regime selection follows the
// presence of a simplified-regime code on the resolved profile.
func (b *Builder) BuildItems(items []orderdomain.LineItem, fields []taxdomain.Fields) error {
	if err := b.expect(StagePartiesBuilt); err != nil {
		return err
	}
	if len(items) != len(fields) {
		return fmt.Errorf("%w: %d items with %d tax field sets", documentdomain.ErrStage, len(items), len(fields))
	}

	out := make([]documentdomain.Item, 0, len(items))
	for i, item := range items {
		tf := fields[i]
		base := item.Total

		tax := documentdomain.ItemTax{
			Origin:       tf.Origin,
			CSOSN:        tf.CSOSN,
			ICMSCST:      tf.ICMSCST,
			PISCST:       tf.PISCST,
			PISBase:      base,
			PISRate:      tf.PISRate,
			PISAmount:    base * tf.PISRate / 100,
			COFINSCST:    tf.COFINSCST,
			COFINSBase:   base,
			COFINSRate:   tf.COFINSRate,
			COFINSAmount: base * tf.COFINSRate / 100,
		}
		if !tf.Simplified() {
			tax.ICMSBase = base
			tax.ICMSRate = tf.ICMSRate
			tax.ICMSAmount = base * tf.ICMSRate / 100
		}
		if tf.IPICST != "" && tf.IPIRate > 0 {
			tax.HasIPI = true
			tax.IPICST = tf.IPICST
			tax.IPIBase = base
			tax.IPIRate = tf.IPIRate
			tax.IPIAmount = base * tf.IPIRate / 100
		}

		out = append(out, documentdomain.Item{
			Number: i + 1,
			Product: documentdomain.Product{
				Code:          fallback(item.ProductCode, item.ProductID),
				EAN:           "SEM GTIN",
				Description:   fallback(item.Description, "Produto"),
				NCM:           tf.NCM,
				CEST:          tf.CEST,
				CFOP:          tf.CFOP,
				Unit:          "UN",
				Quantity:      item.Quantity,
				UnitPrice:     item.UnitPrice,
				Total:         item.Total,
				TaxableEAN:    "SEM GTIN",
				TaxableUnit:   "UN",
				TaxableQty:    item.Quantity,
				TaxableUnitPr: item.UnitPrice,
				InTotal:       1,
			},
			Tax: tax,
		})
	}
	b.doc.Items = out

	b.stage = StageItemsBuilt
	return nil
}

func (b *Builder) BuildTotals(totals documentdomain.Totals) error {
	if err := b.expect(StageItemsBuilt); err != nil {
		return err
	}
	b.doc.Totals = totals
	b.stage = StageTotalsBuilt
	return nil
}

// BuildPayments emits one block per resolved payment, mapping each to a
// tax-authority payment-type code.
func (b *Builder) BuildPayments(payments []orderdomain.Payment) error {
	if err := b.expect(StageTotalsBuilt); err != nil {
		return err
	}
	out := make([]documentdomain.PaymentDetail, 0, len(payments))
	for _, p := range payments {
		out = append(out, documentdomain.PaymentDetail{
			TypeCode: PaymentTypeCode(p),
			Amount:   p.Amount,
		})
	}
	b.doc.Payments = out
	b.stage = StagePaymentsBuilt
	return nil
}

// Serialize renders the assembled tree and moves to the terminal stage.
func (b *Builder) Serialize() (string, error) {
	if err := b.expect(StagePaymentsBuilt); err != nil {
		return "", err
	}
	out := serialize.Render(b.doc)
	b.stage = StageSerialized
	return out, nil
}

func (b *Builder) expect(want Stage) error {
	if b.stage != want {
		return fmt.Errorf("%w: at %s, expected %s", documentdomain.ErrStage, b.stage, want)
	}
	return nil
}

func modelLabel(m documentdomain.Model) string {
	if m == documentdomain.ModelInvoice {
		return "NF-e"
	}
	return "NFC-e"
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return def
}
