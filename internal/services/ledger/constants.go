package ledger

// Operation names used in metrics and logs
const (
	OpOpenAccount   = "open_account"
	OpRecordRevenue = "record_revenue"
	OpReverseEntry  = "reverse_entry"
	OpReconcile     = "reconcile"
)

// Audit actions
const (
	ActionRevenueRecorded = "revenue.recorded"
	ActionRevenueReversed = "revenue.reversed"
	ActionAccountOpened   = "account.opened"
)

const maxDescriptionLength = 500
