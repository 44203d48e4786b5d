package enum

// ── Group A: State machines ──

const (
	SubmissionIdle       = "IDLE"
	SubmissionSubmitting = "SUBMITTING"
	SubmissionAccepted   = "ACCEPTED"
	SubmissionRejected   = "REJECTED"
)

// ── Group B: Recorded on the transaction (CHECK constrained in DB) ──

const (
	PaymentTypeCash  = "CASH"
	PaymentTypeCard  = "CARD"
	PaymentTypeUPI   = "UPI"
	PaymentTypeDue   = "DUE"
	PaymentTypeSplit = "SPLIT"
)

const (
	UserRoleOwner   = "OWNER"
	UserRoleManager = "MANAGER"
	UserRoleCashier = "CASHIER"
)

// ── Group C: Documents and live events ──

const (
	DocumentInvoice = "INVOICE"
	DocumentKOT     = "KOT"
)

const (
	DocumentFormatPNG = "png"
	DocumentFormatPDF = "pdf"
)

const (
	EventCartUpdated         = "cart.updated"
	EventCartCleared         = "cart.cleared"
	EventTimerTick           = "timer.tick"
	EventTransactionAccepted = "transaction.accepted"
)
