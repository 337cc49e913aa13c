// Package domain defines the per-item tax classification resolved from a
// product's tax profile snapshot.
package domain

// Defaults applied when a profile attribute does not resolve.
// These codes are SCHEMA-CONSTANTS of the consuming fiscal format.
// Do NOT change them once documents have been emitted.
const (
	DefaultCFOPOutbound = "5102"
	DefaultCFOPInbound  = "1102"
	DefaultICMSCST      = "00"
	DefaultPISCST       = "01"
	DefaultCOFINSCST    = "01"
	DefaultNCM          = "00000000"
	DefaultOrigin       = "0"
)

// Fields is the resolved tax classification for one line item. Rates are
// percentages (aliquota), not fractions.
type Fields struct {
	CFOP   string
	NCM    string
	CEST   string
	Origin string

	// CSOSN is the simplified-regime situation code. Non-empty selects the
	// presumptive regime block; empty selects the detailed regime.
	CSOSN    string
	ICMSCST  string
	ICMSRate float64

	PISCST  string
	PISRate float64

	COFINSCST  string
	COFINSRate float64

	IPICST  string
	IPIRate float64

	// Incomplete marks that one or more attributes fell back to defaults.
	// This is a logged condition, never an error.
	Incomplete bool
	Missing    []string
}

// Simplified reports whether the item uses the simplified tax regime.
func (f Fields) Simplified() bool { return f.CSOSN != "" }

// ResolveOptions select the candidate variants: Inbound flips the CFOP
// default, Interstate prefers the cross-region column variants.
type ResolveOptions struct {
	Inbound    bool
	Interstate bool
}

// Resolver derives tax fields from a raw product attribute bag. The bag may
// carry either column-name generation; resolution walks ordered candidate
// lists per attribute.
type Resolver interface {
	Resolve(productID string, profile map[string]any, opts ResolveOptions) Fields
}
