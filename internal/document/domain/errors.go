package domain

import "errors"

var (
	ErrInvalidModel       = errors.New("invalid_document_model")
	ErrStage              = errors.New("invalid_assembly_stage")
	ErrPaymentSumMismatch = errors.New("payment_sum_mismatch")
)
