// Package domain defines the emission operation: one request in, one
// serialized fiscal document out.
package domain

import (
	"context"
	"time"

	documentdomain "github.com/quadrasoft/fiscal/internal/document/domain"
	orderdomain "github.com/quadrasoft/fiscal/internal/order/domain"
)

// EmitRequest asks for a document to be assembled for an order. Model is
// required; everything else falls back to merchant record or configuration.
type EmitRequest struct {
	OrderID      string
	MerchantCode string
	Model        documentdomain.Model

	// Optional header overrides.
	NatOp       string
	Series      string
	Number      string
	Environment int
	Destination int
	Finality    int
	Inbound     bool
	IssuedAt    *time.Time

	// Override bypasses the store entirely and assembles from the supplied
	// aggregate. Used by backfills and tests.
	Override *orderdomain.Aggregate
}

// EmitResult is the assembled document plus derived facts callers care
// about without parsing the XML.
type EmitResult struct {
	EmissionID string
	XML        string
	Key        string
	Model      documentdomain.Model
	Number     string
	Totals     documentdomain.Totals

	// IncompleteItems lists product ids whose tax profile needed default
	// fills. Informational; emission still succeeds.
	IncompleteItems []string
}

// Service is the engine's public operation.
type Service interface {
	Emit(ctx context.Context, req EmitRequest) (*EmitResult, error)
}
