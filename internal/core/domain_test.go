package core

import "testing"

func validTransaction() Transaction {
	return Transaction{
		ID:        "t1",
		Date:      "2023-10-24",
		PartyName: "Ravi Kumar",
		Amount:    Money{Paise: 120000},
		Type:      UdhaarGiven,
		Status:    StatusPending,
		Method:    Cash,
	}
}

func TestTransactionValidate(t *testing.T) {
	if err := validTransaction().Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	zero := validTransaction()
	zero.Amount = Money{}
	if err := zero.Validate(); err != nil {
		t.Fatalf("zero amount must be valid, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Transaction)
		want   error
	}{
		{"negative amount", func(tr *Transaction) { tr.Amount.Paise = -1 }, ErrNegativeAmount},
		{"unknown type", func(tr *Transaction) { tr.Type = "REFUND" }, ErrUnknownTransactionType},
		{"empty date", func(tr *Transaction) { tr.Date = " " }, ErrEmptyDate},
		{"bad status", func(tr *Transaction) { tr.Status = "DONE" }, ErrInvalidStatus},
		{"bad method", func(tr *Transaction) { tr.Method = "CHEQUE" }, ErrInvalidPaymentMethod},
	}
	for _, tc := range cases {
		tr := validTransaction()
		tc.mutate(&tr)
		if err := tr.Validate(); err != tc.want {
			t.Fatalf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestValidatePhone(t *testing.T) {
	cases := []struct {
		phone string
		ok    bool
	}{
		{"9876543210", true},
		{"+91 98765 43210", true},
		{"919876543210", true},
		{"12345", false},
		{"98765abc10", false},
		{"", false},
		{"12345678901234567", false},
	}
	for _, tc := range cases {
		err := ValidatePhone(tc.phone)
		if tc.ok && err != nil {
			t.Fatalf("%q: expected ok, got %v", tc.phone, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q: expected error", tc.phone)
		}
	}
}

func TestTypeLabel(t *testing.T) {
	if got := UdhaarGiven.Label(); got != "UDHAAR GIVEN" {
		t.Fatalf("got %q", got)
	}
}
