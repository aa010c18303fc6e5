package db

import "errors"

// Domain-level database error sentinels.
var (
	// Ledger errors
	ErrRecordNotFound = errors.New("idempotency record not found")
	ErrNotInProgress  = errors.New("idempotency record is not in progress")

	// Entity errors
	ErrCustomerNotFound = errors.New("customer not found")
	ErrVendorNotFound   = errors.New("vendor not found")
	ErrPartNotFound     = errors.New("part not found")

	// Document errors
	ErrQuoteNotFound = errors.New("quote not found")
	ErrOrderNotFound = errors.New("purchase order not found")
)
