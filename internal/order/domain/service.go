package domain

import "context"

// ResolveRequest identifies the transaction to load. When Override is set the
// store is not consulted at all; the aggregate is used as given (synthetic or
// ad-hoc documents).
type ResolveRequest struct {
	OrderID      string
	MerchantCode string
	Override     *Aggregate
}

// Service resolves an order aggregate across schema generations.
type Service interface {
	Resolve(ctx context.Context, req ResolveRequest) (*Aggregate, error)
}
