package domain

import "fmt"

type CheckoutState string

const (
	StateIdle             CheckoutState = "idle"
	StateValidatingStock  CheckoutState = "validating_stock"
	StateCreating         CheckoutState = "creating"
	StateWritingLines     CheckoutState = "writing_lines"
	StateWritingStock     CheckoutState = "writing_stock"
	StateComplete         CheckoutState = "complete"
	StateAborted          CheckoutState = "aborted"
	StatePartiallyWritten CheckoutState = "partially_written"
)

// CheckoutError reports the state a failed checkout stopped in. Once the ticket
// has been inserted TicketID is set; nothing written before the failure is undone.
type CheckoutError struct {
	State    CheckoutState
	TicketID string
	Err      error
}

func (e *CheckoutError) Error() string {
	if e.TicketID != "" {
		return fmt.Sprintf("checkout %s (ticket %s): %v", e.State, e.TicketID, e.Err)
	}
	return fmt.Sprintf("checkout %s: %v", e.State, e.Err)
}

func (e *CheckoutError) Unwrap() error {
	return e.Err
}
