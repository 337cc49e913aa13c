// Package domain contains the assembled fiscal document tree. The shape
// mirrors the consuming 4.00 schema; field order and presence are part of
// the contract.
package domain

import "time"

// Model selects the document variant.
type Model string

const (
	ModelInvoice Model = "55" // full invoice
	ModelReceipt Model = "65" // consumer receipt
)

// Valid reports whether m is a known document model.
func (m Model) Valid() bool { return m == ModelInvoice || m == ModelReceipt }

// Environment flag (tpAmb).
const (
	EnvProduction = 1
	EnvTest       = 2
)

// Destination indicator (idDest).
const (
	DestSameRegion  = 1
	DestCrossRegion = 2
)

// Header carries the ide block.
type Header struct {
	UFCode      string
	NumericCode string // cNF, zero-padded to 8
	NatOp       string
	Model       Model
	Series      string
	Number      string // nNF, human-readable
	IssuedAt    time.Time
	Direction   int // tpNF: 0 inbound, 1 outbound
	Destination int // idDest
	CityCode    string
	PrintFormat int // tpImp
	EmissionTyp int // tpEmis
	Environment int // tpAmb
	Finality    int // finNFe
	FinalBuyer  int // indFinal
	Presence    int // indPres
	Process     int // procEmi
	Version     string
}

// Address is shared by issuer and recipient blocks.
type Address struct {
	Street      string
	Number      string
	District    string
	CityCode    string
	City        string
	UF          string
	ZIP         string
	CountryCode string
	Country     string
	Phone       string
}

// Issuer is the emit block.
type Issuer struct {
	CNPJ              string
	CorporateName     string
	TradeName         string
	Address           Address
	StateRegistration string
	TaxRegime         string
}

// Recipient is the dest block. A zero Recipient with only TaxIndicator set
// renders the minimal anonymous block.
type Recipient struct {
	CNPJ         string
	CPF          string
	Name         string
	Address      *Address
	TaxIndicator int // indIEDest
	Email        string
}

// Product is the prod sub-block of an item.
type Product struct {
	Code          string
	EAN           string
	Description   string
	NCM           string
	CEST          string
	CFOP          string
	Unit          string
	Quantity      float64
	UnitPrice     float64
	Total         float64
	TaxableEAN    string
	TaxableUnit   string
	TaxableQty    float64
	TaxableUnitPr float64
	InTotal       int
}

// ItemTax is the imposto sub-block. Simplified (CSOSN set) selects the
// presumptive regime rendering; otherwise the detailed regime is used.
// Amounts stay unrounded; precision is applied at serialization only.
type ItemTax struct {
	Origin string
	CSOSN  string

	ICMSCST    string
	ICMSBase   float64
	ICMSRate   float64
	ICMSAmount float64

	PISCST    string
	PISBase   float64
	PISRate   float64
	PISAmount float64

	COFINSCST    string
	COFINSBase   float64
	COFINSRate   float64
	COFINSAmount float64

	HasIPI    bool
	IPICST    string
	IPIBase   float64
	IPIRate   float64
	IPIAmount float64
}

// Item is one det block.
type Item struct {
	Number  int
	Product Product
	Tax     ItemTax
}

// Totals is the ICMSTot block. Fields absent here are emitted as literal
// zero by the serializer; the consuming schema requires every field.
type Totals struct {
	ProductTotal float64
	Discount     float64
	Net          float64
}

// PaymentDetail is one pag/detPag block.
type PaymentDetail struct {
	TypeCode string
	Amount   float64
}

// Document is the assembled tree handed to the serializer.
type Document struct {
	Key       string // lookup key, rendered as the Id attribute
	Header    Header
	Issuer    Issuer
	Recipient Recipient
	Items     []Item
	Totals    Totals
	// FreightMode is the transp/modFrete value; 9 = no transport.
	FreightMode int
	Payments    []PaymentDetail
	ExtraInfo   string
}
