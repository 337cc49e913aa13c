package domain

import "errors"

var (
	ErrInvalidOrderID    = errors.New("invalid_order_id")
	ErrInvalidMerchant   = errors.New("invalid_merchant_code")
	ErrOrderNotFound     = errors.New("order_not_found")
	ErrMerchantNotFound  = errors.New("merchant_not_found")
	ErrUpstream          = errors.New("upstream_store_error")
	ErrEmptyOverride     = errors.New("empty_override_aggregate")
)
