package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrInvalidQuantity      = errors.New("quantity must be positive")
	ErrNotInCart            = errors.New("product not in cart")
	ErrStockShortage        = errors.New("stock shortage")
	ErrTicketCreationFailed = errors.New("ticket creation failed")
	ErrWrite                = errors.New("write error")
	ErrInvalidProduct       = errors.New("invalid product")
	ErrInvalidRole          = errors.New("invalid role")
	ErrUnauthenticated      = errors.New("unauthenticated")
	ErrForbidden            = errors.New("forbidden")
	ErrDuplicateRequest     = errors.New("duplicate request")
)

// Shortage is a cart line whose requested quantity exceeds live stock.
type Shortage struct {
	ProductID string
	Name      string
	Available int
	Requested int
}

type StockShortageError struct {
	Shortages []Shortage
}

func (e *StockShortageError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		parts = append(parts, fmt.Sprintf("%s: available %d, requested %d", s.Name, s.Available, s.Requested))
	}
	return fmt.Sprintf("%s: %s", ErrStockShortage, strings.Join(parts, "; "))
}

func (e *StockShortageError) Is(target error) bool {
	return target == ErrStockShortage
}

// WriteError is a failed persistence call against the record store.
type WriteError struct {
	Op  string
	Err error
}

func NewWriteError(op string, err error) *WriteError {
	return &WriteError{Op: op, Err: err}
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrWrite, e.Op, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

func (e *WriteError) Is(target error) bool {
	return target == ErrWrite
}
