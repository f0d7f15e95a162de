/*
Package ledger records gym revenue and maintains gym balances.

Every billable event (a membership purchase or a class booking) becomes one
append-only RevenueEntry. The gross amount is split into the platform's
commission and the gym's share; the gym's share is credited to its
GymAccount in the same database transaction that stores the entry.

Usage:

	svc := ledger.NewService(repo, ledger.FixedCommission(rate), sink, ledger.Options{
	    Metrics: collector,
	    Cache:   reportCache,
	    Logger:  log,
	})

	entry, err := svc.RecordRevenue(ctx, ledger.RecordRevenueInput{
	    GymID:      3,
	    SourceType: models.SourceMembershipPurchase,
	    Gross:      money.MustParse("1000"),
	})

Commission:

The platform cut is gross × rate / 100 rounded half-up to the cent. The gym
share is the remainder, so share + cut always equals gross.

Corrections:

Entries are never edited. ReverseEntry appends an offsetting entry with the
amounts negated and takes the original share back out of the balance.

Reconciliation:

Reconcile recomputes a balance from the ledger as

	Σ gym_share − Σ withdrawals (pending or completed)

and reports the difference from the stored balance. The scheduler runs
ReconcileAll periodically.

Errors:

All errors belong to the taxonomy in internal/errors: ErrValidation,
ErrNotFound, ErrInsufficientBalance, ErrAlreadyResolved and
ErrLedgerWriteFailed.
*/
package ledger
