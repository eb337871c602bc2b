package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"munimji/internal/core"
)

// Wire shapes, snake_case as the backend sends them.

type profileData struct {
	ID          int64  `json:"id"`
	PhoneNumber string `json:"phone_number"`
	Name        string `json:"name,omitempty"`
	ShopName    string `json:"shop_name,omitempty"`
}

func (p profileData) toCore() core.Profile {
	return core.Profile{
		ID:          p.ID,
		PhoneNumber: p.PhoneNumber,
		Name:        p.Name,
		ShopName:    p.ShopName,
	}
}

type ledgerEntryData struct {
	ID               int64   `json:"id"`
	Date             string  `json:"date,omitempty"`
	Type             string  `json:"type"`
	Amount           float64 `json:"amount"`
	Description      string  `json:"description,omitempty"`
	CounterpartyName string  `json:"counterparty_name,omitempty"`
	Category         string  `json:"category,omitempty"`
	Status           string  `json:"status,omitempty"`
	PaymentMethod    string  `json:"payment_method,omitempty"`
	IsReconciled     bool    `json:"is_reconciled,omitempty"`
}

// toCore normalizes a wire entry. Status and payment method are
// optional on older backend rows; absent values default to COMPLETED
// and CASH, matching how the backend stores pre-migration entries.
// Type is carried verbatim: classification decides later, loudly,
// whether it is known.
func (e ledgerEntryData) toCore() core.Transaction {
	t := core.Transaction{
		ID:         strconv.FormatInt(e.ID, 10),
		Date:       e.Date,
		PartyName:  e.CounterpartyName,
		Amount:     core.Money{Paise: core.PaiseFromRupees(e.Amount)},
		Type:       core.TransactionType(e.Type),
		Note:       e.Description,
		Category:   e.Category,
		Status:     core.Status(e.Status),
		Method:     core.PaymentMethod(e.PaymentMethod),
		Reconciled: e.IsReconciled,
	}
	if t.Status == "" {
		t.Status = core.StatusCompleted
	}
	if t.Method == "" {
		t.Method = core.Cash
	}
	return t
}

type partyData struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	PhoneNumber        string  `json:"phone_number,omitempty"`
	OutstandingBalance float64 `json:"outstanding_balance"`
	LastActivity       string  `json:"last_activity,omitempty"`
}

func (p partyData) toCore() core.Party {
	return core.Party{
		ID:           p.ID,
		Name:         p.Name,
		Phone:        p.PhoneNumber,
		Balance:      core.Money{Paise: core.PaiseFromRupees(p.OutstandingBalance)},
		LastActivity: p.LastActivity,
	}
}

type overviewData struct {
	TotalSales        float64           `json:"total_sales"`
	TotalPurchases    float64           `json:"total_purchases"`
	TotalExpenses     float64           `json:"total_expenses"`
	NetIncome         float64           `json:"net_income"`
	OutstandingUdhaar float64           `json:"outstanding_udhaar"`
	RecentActivity    []ledgerEntryData `json:"recent_activity"`
}

// LoginResult is the outcome of a successful login.
type LoginResult struct {
	Token string
	User  core.Profile
}

// NewEntry is a manual ledger entry to be created via add-entry.
type NewEntry struct {
	Type             core.TransactionType
	Amount           core.Money
	Description      string
	CounterpartyName string
	CounterpartyType string // "customer" or "supplier"
}

// Validate rejects a malformed entry before any request is issued.
func (e NewEntry) Validate() error {
	if !e.Type.Valid() {
		return core.ErrUnknownTransactionType
	}
	return e.Amount.Validate()
}

// ProfileUpdate carries the editable profile fields; nil means leave
// unchanged.
type ProfileUpdate struct {
	Name              *string `json:"name,omitempty"`
	ShopName          *string `json:"shop_name,omitempty"`
	PreferredLanguage *string `json:"preferred_language,omitempty"`
}

// Login exchanges a phone number for a session token and profile. The
// phone number is validated locally first; a malformed number never
// reaches the wire.
func (c *Client) Login(ctx context.Context, phone string) (LoginResult, error) {
	if err := core.ValidatePhone(phone); err != nil {
		return LoginResult{}, err
	}
	var resp struct {
		Success bool        `json:"success"`
		Token   string      `json:"token"`
		User    profileData `json:"user"`
	}
	body := map[string]string{"phone_number": phone}
	if err := c.send(ctx, "POST", "/api/auth/login", body, &resp); err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: resp.Token, User: resp.User.toCore()}, nil
}

// Logout invalidates the session server-side. Clearing the local
// session store is the caller's job; the two are separate steps so a
// dead backend cannot trap a user in a logged-in CLI.
func (c *Client) Logout(ctx context.Context) error {
	return c.send(ctx, "POST", "/api/auth/logout", nil, nil)
}

// Overview fetches the aggregate dashboard snapshot.
func (c *Client) Overview(ctx context.Context) (core.Overview, error) {
	var resp overviewData
	if err := c.get(ctx, "/api/dashboard/overview", &resp); err != nil {
		return core.Overview{}, err
	}
	ov := core.Overview{
		TotalSales:        core.Money{Paise: core.PaiseFromRupees(resp.TotalSales)},
		TotalPurchases:    core.Money{Paise: core.PaiseFromRupees(resp.TotalPurchases)},
		TotalExpenses:     core.Money{Paise: core.PaiseFromRupees(resp.TotalExpenses)},
		NetIncome:         core.Money{Paise: core.PaiseFromRupees(resp.NetIncome)},
		OutstandingUdhaar: core.Money{Paise: core.PaiseFromRupees(resp.OutstandingUdhaar)},
	}
	for _, e := range resp.RecentActivity {
		ov.RecentActivity = append(ov.RecentActivity, e.toCore())
	}
	return ov, nil
}

// Ledger fetches up to limit ledger entries in display order.
func (c *Client) Ledger(ctx context.Context, limit int) ([]core.Transaction, error) {
	return c.entries(ctx, fmt.Sprintf("/api/dashboard/ledger?limit=%d", limit))
}

// Transaction fetches a single entry by id.
func (c *Client) Transaction(ctx context.Context, id string) (core.Transaction, error) {
	var resp ledgerEntryData
	path := "/api/dashboard/transactions/" + url.PathEscape(id)
	if err := c.get(ctx, path, &resp); err != nil {
		return core.Transaction{}, err
	}
	return resp.toCore(), nil
}

// Customers fetches the customer list with outstanding balances.
func (c *Client) Customers(ctx context.Context) ([]core.Party, error) {
	return c.parties(ctx, "/api/dashboard/customers")
}

// Suppliers fetches the supplier list with outstanding balances.
func (c *Client) Suppliers(ctx context.Context) ([]core.Party, error) {
	return c.parties(ctx, "/api/dashboard/suppliers")
}

// Udhaar fetches the outstanding-credit entries.
func (c *Client) Udhaar(ctx context.Context) ([]core.Transaction, error) {
	return c.entries(ctx, "/api/dashboard/udhaar")
}

// Cashbook fetches the cash-method entries.
func (c *Client) Cashbook(ctx context.Context) ([]core.Transaction, error) {
	return c.entries(ctx, "/api/dashboard/cashbook")
}

// Expenses fetches the expense entries.
func (c *Client) Expenses(ctx context.Context) ([]core.Transaction, error) {
	return c.entries(ctx, "/api/dashboard/expenses")
}

// Reports fetches report data. The shape varies by report period, so
// it is handed to the caller undecoded.
func (c *Client) Reports(ctx context.Context) (json.RawMessage, error) {
	var resp json.RawMessage
	if err := c.get(ctx, "/api/dashboard/reports", &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// AddEntry creates a manual ledger entry and returns its id.
func (c *Client) AddEntry(ctx context.Context, entry NewEntry) (string, error) {
	if err := entry.Validate(); err != nil {
		return "", err
	}
	body := map[string]any{
		"type":   string(entry.Type),
		"amount": entry.Amount.Rupees(),
	}
	if entry.Description != "" {
		body["description"] = entry.Description
	}
	if entry.CounterpartyName != "" {
		body["counterparty_name"] = entry.CounterpartyName
	}
	if entry.CounterpartyType != "" {
		body["counterparty_type"] = entry.CounterpartyType
	}
	var resp struct {
		Success bool  `json:"success"`
		ID      int64 `json:"id"`
	}
	if err := c.send(ctx, "POST", "/api/dashboard/add-entry", body, &resp); err != nil {
		return "", err
	}
	return strconv.FormatInt(resp.ID, 10), nil
}

// Me fetches the current user profile.
func (c *Client) Me(ctx context.Context) (core.Profile, error) {
	var resp profileData
	if err := c.get(ctx, "/api/me", &resp); err != nil {
		return core.Profile{}, err
	}
	return resp.toCore(), nil
}

// UpdateMe updates profile fields and returns the resulting profile.
func (c *Client) UpdateMe(ctx context.Context, update ProfileUpdate) (core.Profile, error) {
	var resp struct {
		Success bool        `json:"success"`
		User    profileData `json:"user"`
	}
	if err := c.send(ctx, "PUT", "/api/me", update, &resp); err != nil {
		return core.Profile{}, err
	}
	return resp.User.toCore(), nil
}

func (c *Client) entries(ctx context.Context, path string) ([]core.Transaction, error) {
	var resp []ledgerEntryData
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	out := make([]core.Transaction, len(resp))
	for i, e := range resp {
		out[i] = e.toCore()
	}
	return out, nil
}

func (c *Client) parties(ctx context.Context, path string) ([]core.Party, error) {
	var resp []partyData
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	out := make([]core.Party, len(resp))
	for i, p := range resp {
		out[i] = p.toCore()
	}
	return out, nil
}
