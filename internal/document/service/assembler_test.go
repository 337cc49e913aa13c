package service

import (
	"strings"
	"testing"
	"time"

	documentdomain "github.com/quadrasoft/fiscal/internal/document/domain"
	orderdomain "github.com/quadrasoft/fiscal/internal/order/domain"
	taxdomain "github.com/quadrasoft/fiscal/internal/tax/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMerchant() orderdomain.Merchant {
	return orderdomain.Merchant{
		Code:              "001",
		CNPJ:              "12345678000190",
		CorporateName:     "Padaria Central LTDA",
		TradeName:         "Padaria Central",
		Street:            "Rua das Flores",
		Number:            "100",
		District:          "Centro",
		City:              "Sao Paulo",
		CityCode:          "3550308",
		UF:                "SP",
		UFCode:            "35",
		ZIP:               "01310-100",
		StateRegistration: "123456789",
		TaxRegime:         "1",
		Series:            "1",
	}
}

func TestBuilder_FullSequence(t *testing.T) {
	b := NewBuilder()

	require.NoError(t, b.BuildHeader(HeaderInput{
		Model:      documentdomain.ModelReceipt,
		Merchant:   testMerchant(),
		OrderRef:   "cmd-1",
		Number:     "42",
		IssuedAt:   time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		AppVersion: "1.0.0",
	}))
	require.NoError(t, b.BuildParties(testMerchant(), nil))
	require.NoError(t, b.BuildItems(
		[]orderdomain.LineItem{{ProductID: "p1", Quantity: 2, UnitPrice: 5, Total: 10}},
		[]taxdomain.Fields{{CFOP: "5102", NCM: "00000000", Origin: "0", ICMSCST: "00"}},
	))
	require.NoError(t, b.BuildTotals(documentdomain.Totals{ProductTotal: 10, Net: 10}))
	require.NoError(t, b.BuildPayments([]orderdomain.Payment{{Amount: 10, MethodCode: "01"}}))

	xml, err := b.Serialize()
	require.NoError(t, err)
	assert.Equal(t, StageSerialized, b.Stage())
	assert.Contains(t, xml, "NFe12345678000190000000042")
}

func TestBuilder_OutOfOrderFails(t *testing.T) {
	b := NewBuilder()
	err := b.BuildItems(nil, nil)
	require.ErrorIs(t, err, documentdomain.ErrStage)

	err = b.BuildTotals(documentdomain.Totals{})
	require.ErrorIs(t, err, documentdomain.ErrStage)

	_, err = b.Serialize()
	require.ErrorIs(t, err, documentdomain.ErrStage)
}

func TestBuilder_TerminalStage(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.BuildHeader(HeaderInput{
		Model:    documentdomain.ModelReceipt,
		Merchant: testMerchant(),
		IssuedAt: time.Now(),
	}))
	require.NoError(t, b.BuildParties(testMerchant(), nil))
	require.NoError(t, b.BuildItems(nil, nil))
	require.NoError(t, b.BuildTotals(documentdomain.Totals{}))
	require.NoError(t, b.BuildPayments(nil))
	_, err := b.Serialize()
	require.NoError(t, err)

	// No restart from the terminal stage.
	_, err = b.Serialize()
	require.ErrorIs(t, err, documentdomain.ErrStage)
	require.ErrorIs(t, b.BuildHeader(HeaderInput{Model: documentdomain.ModelReceipt}), documentdomain.ErrStage)
}

func TestBuildHeader_InvalidModel(t *testing.T) {
	b := NewBuilder()
	err := b.BuildHeader(HeaderInput{Model: "60", Merchant: testMerchant()})
	assert.ErrorIs(t, err, documentdomain.ErrInvalidModel)
	assert.Equal(t, StageIdle, b.Stage())
}

func TestBuildHeader_DestinationDerivation(t *testing.T) {
	build := func(customerUF string) documentdomain.Header {
		b := NewBuilder()
		require.NoError(t, b.BuildHeader(HeaderInput{
			Model:      documentdomain.ModelInvoice,
			Merchant:   testMerchant(),
			CustomerUF: customerUF,
			IssuedAt:   time.Now(),
		}))
		return b.Document().Header
	}

	assert.Equal(t, documentdomain.DestSameRegion, build("").Destination)
	assert.Equal(t, documentdomain.DestSameRegion, build("SP").Destination)
	assert.Equal(t, documentdomain.DestCrossRegion, build("RJ").Destination)
}

func TestBuildHeader_ExtraInfoCarriesOrderAndModel(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.BuildHeader(HeaderInput{
		Model:    documentdomain.ModelInvoice,
		Merchant: testMerchant(),
		OrderRef: "abc-123",
		IssuedAt: time.Now(),
	}))
	assert.Equal(t, "Comanda: abc-123 | Modelo: NF-e", b.Document().ExtraInfo)
}

func TestBuildParties_AnonymousRecipient(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.BuildHeader(HeaderInput{
		Model:    documentdomain.ModelReceipt,
		Merchant: testMerchant(),
		IssuedAt: time.Now(),
	}))
	require.NoError(t, b.BuildParties(testMerchant(), nil))

	dest := b.Document().Recipient
	assert.Empty(t, dest.CPF)
	assert.Empty(t, dest.CNPJ)
	assert.Nil(t, dest.Address)
	assert.Equal(t, 9, dest.TaxIndicator)
}

func TestBuildParties_PersonTypeSelectsTaxIDField(t *testing.T) {
	build := func(personType string) documentdomain.Recipient {
		b := NewBuilder()
		require.NoError(t, b.BuildHeader(HeaderInput{
			Model:    documentdomain.ModelInvoice,
			Merchant: testMerchant(),
			IssuedAt: time.Now(),
		}))
		require.NoError(t, b.BuildParties(testMerchant(), &orderdomain.Customer{
			Name:       "Fulano",
			PersonType: personType,
			TaxID:      "123.456.789-09",
			UF:         "SP",
		}))
		return b.Document().Recipient
	}

	pf := build("PF")
	assert.Equal(t, "12345678909", pf.CPF)
	assert.Empty(t, pf.CNPJ)

	pj := build("PJ")
	assert.Equal(t, "12345678909", pj.CNPJ)
	assert.Empty(t, pj.CPF)
}

func TestBuildItems_RegimeSelection(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.BuildHeader(HeaderInput{
		Model:    documentdomain.ModelReceipt,
		Merchant: testMerchant(),
		IssuedAt: time.Now(),
	}))
	require.NoError(t, b.BuildParties(testMerchant(), nil))

	require.NoError(t, b.BuildItems(
		[]orderdomain.LineItem{
			{ProductID: "p1", Quantity: 1, UnitPrice: 100, Total: 100},
			{ProductID: "p2", Quantity: 1, UnitPrice: 200, Total: 200},
		},
		[]taxdomain.Fields{
			{CSOSN: "102", Origin: "0"},
			{ICMSCST: "00", ICMSRate: 18, Origin: "0"},
		},
	))

	items := b.Document().Items
	require.Len(t, items, 2)

	assert.Equal(t, "102", items[0].Tax.CSOSN)
	assert.Zero(t, items[0].Tax.ICMSAmount)

	assert.Empty(t, items[1].Tax.CSOSN)
	assert.InDelta(t, 200.0, items[1].Tax.ICMSBase, 1e-9)
	assert.InDelta(t, 36.0, items[1].Tax.ICMSAmount, 1e-9)
}

func TestBuildItems_LengthMismatch(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.BuildHeader(HeaderInput{
		Model:    documentdomain.ModelReceipt,
		Merchant: testMerchant(),
		IssuedAt: time.Now(),
	}))
	require.NoError(t, b.BuildParties(testMerchant(), nil))

	err := b.BuildItems([]orderdomain.LineItem{{}}, nil)
	assert.ErrorIs(t, err, documentdomain.ErrStage)
}

func TestPaymentTypeCode(t *testing.T) {
	tests := []struct {
		name    string
		payment orderdomain.Payment
		want    string
	}{
		{"stored code", orderdomain.Payment{MethodCode: "17"}, "17"},
		{"single digit code normalized", orderdomain.Payment{MethodCode: "1"}, "01"},
		{"unknown code falls back to label", orderdomain.Payment{MethodCode: "77", MethodLabel: "PIX"}, "17"},
		{"label with accents", orderdomain.Payment{MethodLabel: "Cartão de Crédito"}, "03"},
		{"cash label", orderdomain.Payment{MethodLabel: "Dinheiro"}, "01"},
		{"unmapped", orderdomain.Payment{MethodLabel: "fichas do clube"}, "99"},
		{"empty", orderdomain.Payment{}, "99"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PaymentTypeCode(tt.payment))
		})
	}
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "IDLE", StageIdle.String())
	assert.Equal(t, "SERIALIZED", StageSerialized.String())
	assert.True(t, strings.HasSuffix(Stage(99).String(), "UNKNOWN"))
}
