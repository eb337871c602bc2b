package core

import (
	"errors"
	"strings"
	"unicode"
)

const (
	Sale           TransactionType = "SALE"
	Purchase       TransactionType = "PURCHASE"
	UdhaarGiven    TransactionType = "UDHAAR_GIVEN"
	UdhaarReceived TransactionType = "UDHAAR_RECEIVED"
	Expense        TransactionType = "EXPENSE"
	PaymentOut     TransactionType = "PAYMENT_OUT"
	PaymentIn      TransactionType = "PAYMENT_IN"
)

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
)

const (
	Cash PaymentMethod = "CASH"
	UPI  PaymentMethod = "UPI"
	Bank PaymentMethod = "BANK"
)

type (
	TransactionType string

	Status string

	PaymentMethod string

	Money struct {
		Paise int64
	}

	// Transaction is a single ledger entry as delivered by the backend.
	// Amount is always a non-negative magnitude; direction is derived
	// from Type, never stored.
	Transaction struct {
		ID         string
		Date       string // calendar date as delivered, e.g. "2023-10-24"
		PartyName  string
		Amount     Money
		Type       TransactionType
		Status     Status
		Note       string
		Category   string
		Method     PaymentMethod
		Reconciled bool
	}

	// Party is a customer or supplier with its server-computed
	// outstanding balance. Positive balance means owed to the business,
	// negative means owed by the business.
	Party struct {
		ID           int64
		Name         string
		Phone        string
		Balance      Money
		LastActivity string
	}

	// Profile is the authenticated shop owner.
	Profile struct {
		ID          int64
		PhoneNumber string
		Name        string
		ShopName    string
	}
)

var (
	ErrUnknownTransactionType = errors.New("unknown transaction type")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrNegativeAmount         = errors.New("negative amount")
	ErrEmptyDate              = errors.New("empty date")
	ErrInvalidStatus          = errors.New("invalid status")
	ErrInvalidPaymentMethod   = errors.New("invalid payment method")
	ErrInvalidPhoneNumber     = errors.New("invalid phone number")
)

// AllTransactionTypes lists every member of the closed type enumeration.
// Classification must stay total over this list.
var AllTransactionTypes = []TransactionType{
	Sale, Purchase, UdhaarGiven, UdhaarReceived, Expense, PaymentOut, PaymentIn,
}

func (tt TransactionType) Valid() bool {
	switch tt {
	case Sale, Purchase, UdhaarGiven, UdhaarReceived, Expense, PaymentOut, PaymentIn:
		return true
	}
	return false
}

// Label returns the type as shown to users, e.g. "UDHAAR GIVEN".
func (tt TransactionType) Label() string {
	return strings.ReplaceAll(string(tt), "_", " ")
}

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

func (pm PaymentMethod) Valid() bool {
	return pm == Cash || pm == UPI || pm == Bank
}

func (t Transaction) Validate() error {
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !t.Type.Valid() {
		return ErrUnknownTransactionType
	}
	if strings.TrimSpace(t.Date) == "" {
		return ErrEmptyDate
	}
	if !t.Status.Valid() {
		return ErrInvalidStatus
	}
	if !t.Method.Valid() {
		return ErrInvalidPaymentMethod
	}
	return nil
}

// ValidatePhone checks a login phone number before any request is
// issued: 10 to 15 digits, optional leading +, spaces allowed.
func ValidatePhone(phone string) error {
	phone = strings.TrimSpace(phone)
	phone = strings.TrimPrefix(phone, "+")
	digits := 0
	for _, r := range phone {
		if r == ' ' {
			continue
		}
		if !unicode.IsDigit(r) {
			return ErrInvalidPhoneNumber
		}
		digits++
	}
	if digits < 10 || digits > 15 {
		return ErrInvalidPhoneNumber
	}
	return nil
}
