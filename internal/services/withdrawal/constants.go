package withdrawal

const (
	OpRequest = "withdrawal_request"
	OpSettle  = "withdrawal_settle"
	OpReject  = "withdrawal_reject"
)

const (
	ActionRequested = "withdrawal.requested"
	ActionSettled   = "withdrawal.settled"
	ActionRejected  = "withdrawal.rejected"
)

const (
	DefaultPageSize    = 20
	MaxPageSize        = 100
	maxReferenceLength = 128
	maxReasonLength    = 500
)
