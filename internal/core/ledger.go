package core

// Side is the direction a transaction moves the running balance.
type Side int

const (
	Credit Side = iota // increases the balance
	Debit              // decreases the balance
)

// Side classifies a transaction type as credit or debit. This is the
// single source of truth for directionality: balance computation,
// rendering and export colouring must all go through it.
//
// Credit iff the type is SALE or UDHAAR_RECEIVED; every other member
// of the enumeration is a debit. An unrecognized type is a defect and
// returns ErrUnknownTransactionType; callers must not coerce it to a
// default side.
func (tt TransactionType) Side() (Side, error) {
	switch tt {
	case Sale, UdhaarReceived:
		return Credit, nil
	case Purchase, UdhaarGiven, Expense, PaymentOut, PaymentIn:
		return Debit, nil
	default:
		return 0, ErrUnknownTransactionType
	}
}

// IsCredit reports whether the transaction increases the balance.
func (t Transaction) IsCredit() (bool, error) {
	side, err := t.Type.Side()
	if err != nil {
		return false, err
	}
	return side == Credit, nil
}

// RunningBalances folds an ordered transaction list into a same-length
// running balance sequence: balance[i] = balance[i-1] + amount[i] for
// credits, - amount[i] for debits, starting from zero. The input order
// is the caller's display order and is never re-sorted here.
//
// Entries whose type cannot be classified contribute nothing to the
// balance; their indices are returned in skipped so the caller can warn
// loudly instead of guessing a side.
func RunningBalances(entries []Transaction) (balances []Money, skipped []int) {
	balances = make([]Money, len(entries))
	var running int64
	for i, t := range entries {
		side, err := t.Type.Side()
		if err != nil {
			skipped = append(skipped, i)
			balances[i] = Money{Paise: running}
			continue
		}
		if side == Credit {
			running += t.Amount.Paise
		} else {
			running -= t.Amount.Paise
		}
		balances[i] = Money{Paise: running}
	}
	return balances, skipped
}

// BalanceSuffix returns "Cr" for a non-negative balance and "Dr" for a
// negative one. The suffix is a direct function of the computed sign;
// views must not derive it independently.
func BalanceSuffix(balance Money) string {
	if balance.Paise >= 0 {
		return "Cr"
	}
	return "Dr"
}

// FilterByParty returns the entries whose party name equals name, in
// input order. The join is by display name because the backend does not
// expose a counterparty id on ledger entries yet; two parties sharing a
// name would be conflated.
func FilterByParty(entries []Transaction, name string) []Transaction {
	var out []Transaction
	for _, t := range entries {
		if t.PartyName == name {
			out = append(out, t)
		}
	}
	return out
}

// FilterCash returns the cash-method subset of the ledger (the
// cashbook view), in input order.
func FilterCash(entries []Transaction) []Transaction {
	var out []Transaction
	for _, t := range entries {
		if t.Method == Cash {
			out = append(out, t)
		}
	}
	return out
}

// FilterExpenses returns the expense entries, in input order.
func FilterExpenses(entries []Transaction) []Transaction {
	var out []Transaction
	for _, t := range entries {
		if t.Type == Expense {
			out = append(out, t)
		}
	}
	return out
}

// Overview is the aggregate snapshot the backend computes for the
// dashboard landing view. The client renders it as-is and never
// recomputes the totals.
type Overview struct {
	TotalSales        Money
	TotalPurchases    Money
	TotalExpenses     Money
	NetIncome         Money
	OutstandingUdhaar Money
	RecentActivity    []Transaction
}
