package core

import "testing"

func TestSideTotality(t *testing.T) {
	for _, tt := range AllTransactionTypes {
		side, err := tt.Side()
		if err != nil {
			t.Fatalf("type %s is unclassified: %v", tt, err)
		}
		if side != Credit && side != Debit {
			t.Fatalf("type %s mapped to neither side: %v", tt, side)
		}
	}
}

func TestSideMapping(t *testing.T) {
	credits := map[TransactionType]bool{Sale: true, UdhaarReceived: true}
	for _, tt := range AllTransactionTypes {
		side, err := tt.Side()
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", tt, err)
		}
		want := Debit
		if credits[tt] {
			want = Credit
		}
		if side != want {
			t.Fatalf("type %s: got side %v, want %v", tt, side, want)
		}
	}
}

func TestSideUnknownType(t *testing.T) {
	if _, err := TransactionType("REFUND").Side(); err != ErrUnknownTransactionType {
		t.Fatalf("expected ErrUnknownTransactionType, got %v", err)
	}
}

func entry(tt TransactionType, rupees int64) Transaction {
	return Transaction{
		Date:      "2023-10-24",
		PartyName: "Ravi Kumar",
		Amount:    Money{Paise: rupees * 100},
		Type:      tt,
		Status:    StatusCompleted,
		Method:    Cash,
	}
}

func TestRunningBalances(t *testing.T) {
	entries := []Transaction{
		entry(Sale, 100),
		entry(Expense, 30),
		entry(UdhaarReceived, 50),
		entry(PaymentOut, 20),
	}
	balances, skipped := RunningBalances(entries)
	if len(skipped) != 0 {
		t.Fatalf("unexpected skipped entries: %v", skipped)
	}
	want := []int64{100, 70, 120, 100}
	if len(balances) != len(want) {
		t.Fatalf("got %d balances, want %d", len(balances), len(want))
	}
	for i, w := range want {
		if balances[i].Paise != w*100 {
			t.Fatalf("balance[%d] = %d paise, want %d", i, balances[i].Paise, w*100)
		}
	}
}

func TestRunningBalancesDeltas(t *testing.T) {
	entries := []Transaction{
		entry(Purchase, 10),
		entry(Sale, 55),
		entry(UdhaarGiven, 5),
		entry(PaymentIn, 20),
		entry(UdhaarReceived, 7),
	}
	balances, _ := RunningBalances(entries)

	var prev int64
	var sumDeltas int64
	for i, tr := range entries {
		delta := balances[i].Paise - prev
		credit, err := tr.IsCredit()
		if err != nil {
			t.Fatalf("entry %d: %v", i, err)
		}
		want := tr.Amount.Paise
		if !credit {
			want = -want
		}
		if delta != want {
			t.Fatalf("entry %d: delta %d, want %d", i, delta, want)
		}
		sumDeltas += delta
		prev = balances[i].Paise
	}
	if final := balances[len(balances)-1].Paise; sumDeltas != final {
		t.Fatalf("sum of deltas %d != final balance %d", sumDeltas, final)
	}
}

func TestRunningBalancesIdempotent(t *testing.T) {
	entries := []Transaction{
		entry(Sale, 100),
		entry(Expense, 30),
	}
	first, _ := RunningBalances(entries)
	second, _ := RunningBalances(entries)
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("balance[%d] differs between runs: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestRunningBalancesZeroAmount(t *testing.T) {
	for _, tt := range AllTransactionTypes {
		entries := []Transaction{entry(Sale, 40), entry(tt, 0), entry(Sale, 10)}
		balances, skipped := RunningBalances(entries)
		if len(skipped) != 0 {
			t.Fatalf("type %s: unexpected skips %v", tt, skipped)
		}
		if balances[1].Paise != balances[0].Paise {
			t.Fatalf("type %s: zero amount moved balance from %d to %d",
				tt, balances[0].Paise, balances[1].Paise)
		}
	}
}

func TestRunningBalancesSkipsUnknownType(t *testing.T) {
	entries := []Transaction{
		entry(Sale, 100),
		entry(TransactionType("MYSTERY"), 999),
		entry(Expense, 30),
	}
	balances, skipped := RunningBalances(entries)
	if len(skipped) != 1 || skipped[0] != 1 {
		t.Fatalf("expected index 1 skipped, got %v", skipped)
	}
	want := []int64{10000, 10000, 7000}
	for i, w := range want {
		if balances[i].Paise != w {
			t.Fatalf("balance[%d] = %d, want %d", i, balances[i].Paise, w)
		}
	}
}

func TestBalanceSuffix(t *testing.T) {
	cases := []struct {
		paise int64
		want  string
	}{
		{100, "Cr"},
		{0, "Cr"},
		{-1, "Dr"},
	}
	for _, tc := range cases {
		if got := BalanceSuffix(Money{Paise: tc.paise}); got != tc.want {
			t.Fatalf("suffix(%d) = %s, want %s", tc.paise, got, tc.want)
		}
	}
}

func TestFilters(t *testing.T) {
	a := entry(Sale, 10)
	a.PartyName = "Anjali Trade"
	a.Method = UPI
	b := entry(Expense, 5)
	b.PartyName = "Office Rent"
	c := entry(Purchase, 20)
	c.PartyName = "Anjali Trade"
	entries := []Transaction{a, b, c}

	byParty := FilterByParty(entries, "Anjali Trade")
	if len(byParty) != 2 || byParty[0].Type != Sale || byParty[1].Type != Purchase {
		t.Fatalf("unexpected party filter result: %+v", byParty)
	}

	cash := FilterCash(entries)
	if len(cash) != 2 || cash[0].PartyName != "Office Rent" {
		t.Fatalf("unexpected cashbook result: %+v", cash)
	}

	exp := FilterExpenses(entries)
	if len(exp) != 1 || exp[0].PartyName != "Office Rent" {
		t.Fatalf("unexpected expense result: %+v", exp)
	}
}
