// munimji is the terminal dashboard for the Munimji WhatsApp ledger.
// It talks to the dashboard API with the saved session token, renders
// ledger views with running balances, and falls back to the local
// snapshot when the gateway is unreachable.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"munimji/internal/api"
	"munimji/internal/cli"
	"munimji/internal/config"
	"munimji/internal/core"
	"munimji/internal/export"
	gexport "munimji/internal/export/google"
	applog "munimji/internal/log"
	"munimji/internal/session"
	"munimji/internal/storage"
)

const usage = `Usage: munimji [-v] <command> [arguments]

Commands:
  login <phone>     start a session for the given phone number
  logout            end the current session
  whoami            show the logged-in profile
  profile           update profile fields (-name, -shop)
  overview          business totals and recent activity
  ledger            full ledger with running balance
  show <id>         one transaction in full
  party <name>      ledger filtered to one party, with running balance
  customers         customer list with outstanding balances
  suppliers         supplier list with outstanding balances
  udhaar            open credit (udhaar) entries
  cashbook          cash entries with running balance
  expenses          expense entries
  add-entry         record a manual entry (-type, -amount, -note, -party, -party-type)
  reports           raw report payload from the server
  export            write a ledger view to CSV or Google Sheets (-party, -target, -title)
`

type app struct {
	cfg      *config.Config
	logger   *applog.Logger
	sessions *session.FileStore
	client   *api.Client
}

func main() {
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cli.LoadEnvFile()
	logger := cli.SetupLogger(*verbose)
	cfg := cli.LoadAndValidateConfig(logger)
	sessions := cli.OpenSession(logger, cfg.SessionFile)

	a := &app{
		cfg:      cfg,
		logger:   logger,
		sessions: sessions,
		client: api.NewClient(cfg.APIBaseURL, sessions, logger,
			api.WithTimeout(cfg.HTTPTimeout),
			api.WithRetries(cfg.MaxRetries, 500*time.Millisecond)),
	}

	ctx := context.Background()
	command := flag.Arg(0)
	args := flag.Args()[1:]

	var err error
	switch command {
	case "login":
		err = a.login(ctx, args)
	case "logout":
		err = a.logout(ctx)
	case "whoami":
		err = a.whoami(ctx)
	case "profile":
		err = a.updateProfile(ctx, args)
	case "overview":
		err = a.overview(ctx)
	case "ledger":
		err = a.ledger(ctx, "")
	case "show":
		if len(args) != 1 {
			err = errors.New("show: expected exactly one transaction id")
			break
		}
		err = a.show(ctx, args[0])
	case "reports":
		err = a.reports(ctx)
	case "party":
		if len(args) < 1 {
			err = errors.New("party: missing party name")
			break
		}
		err = a.ledger(ctx, strings.Join(args, " "))
	case "customers":
		err = a.parties(ctx, "customers")
	case "suppliers":
		err = a.parties(ctx, "suppliers")
	case "udhaar":
		err = a.entryList(ctx, "udhaar")
	case "cashbook":
		err = a.cashbook(ctx)
	case "expenses":
		err = a.entryList(ctx, "expenses")
	case "add-entry":
		err = a.addEntry(ctx, args)
	case "export":
		err = a.export(ctx, args)
	default:
		fmt.Fprintf(os.Stderr, "munimji: unknown command %q\n\n", command)
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "munimji: %v\n", describe(err))
		os.Exit(1)
	}
}

// describe turns gateway errors into actionable messages.
func describe(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		if apiErr.Unauthorized() {
			return "session expired, run 'munimji login <phone>' again"
		}
		if apiErr.Transport() {
			return fmt.Sprintf("cannot reach the server: %s", apiErr.Message)
		}
	}
	return err.Error()
}

func (a *app) login(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("login: expected exactly one phone number")
	}

	result, err := a.client.Login(ctx, args[0])
	if err != nil {
		return err
	}
	if err := a.sessions.Establish(result.Token, result.User); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	name := result.User.Name
	if name == "" {
		name = result.User.PhoneNumber
	}
	fmt.Printf("Logged in as %s\n", name)
	return nil
}

func (a *app) logout(ctx context.Context) error {
	// Best effort on the server side; the local session is cleared
	// regardless so a dead gateway cannot pin a stale token.
	if err := a.client.Logout(ctx); err != nil {
		a.logger.Warn("Server-side logout failed", applog.FieldError, err)
	}
	if err := a.sessions.Clear(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	fmt.Println("Logged out")
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	profile, err := a.client.Me(ctx)
	if err != nil {
		// The saved profile still identifies the user offline.
		var apiErr *api.Error
		if errors.As(err, &apiErr) && apiErr.Transport() {
			if saved, serr := a.sessions.User(); serr == nil {
				printProfile(saved, true)
				return nil
			}
		}
		return err
	}
	printProfile(profile, false)
	return nil
}

func printProfile(p core.Profile, offline bool) {
	fmt.Printf("Phone: %s\n", p.PhoneNumber)
	if p.Name != "" {
		fmt.Printf("Name:  %s\n", p.Name)
	}
	if p.ShopName != "" {
		fmt.Printf("Shop:  %s\n", p.ShopName)
	}
	if offline {
		fmt.Println("(offline, showing saved profile)")
	}
}

func (a *app) updateProfile(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("profile", flag.ExitOnError)
	name := fs.String("name", "", "display name")
	shop := fs.String("shop", "", "shop name")
	lang := fs.String("lang", "", "preferred language code")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var update api.ProfileUpdate
	if *name != "" {
		update.Name = name
	}
	if *shop != "" {
		update.ShopName = shop
	}
	if *lang != "" {
		update.PreferredLanguage = lang
	}
	if update.Name == nil && update.ShopName == nil && update.PreferredLanguage == nil {
		return errors.New("profile: nothing to update, pass -name, -shop or -lang")
	}

	profile, err := a.client.UpdateMe(ctx, update)
	if err != nil {
		return err
	}
	fmt.Println("Profile updated")
	printProfile(profile, false)
	return nil
}

func (a *app) overview(ctx context.Context) error {
	ov, err := a.client.Overview(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Total sales\t₹%s\n", ov.TotalSales)
	fmt.Fprintf(w, "Total purchases\t₹%s\n", ov.TotalPurchases)
	fmt.Fprintf(w, "Total expenses\t₹%s\n", ov.TotalExpenses)
	fmt.Fprintf(w, "Net income\t₹%s\n", ov.NetIncome)
	fmt.Fprintf(w, "Outstanding udhaar\t₹%s\n", ov.OutstandingUdhaar)
	w.Flush()

	if len(ov.RecentActivity) > 0 {
		fmt.Println("\nRecent activity:")
		renderEntries(ov.RecentActivity, false)
	}
	return nil
}

// ledger renders the full ledger, or one party's slice of it, with a
// running balance per row. When the gateway is unreachable the local
// snapshot serves the same view, marked as possibly stale.
func (a *app) ledger(ctx context.Context, party string) error {
	entries, offline, err := a.fetchLedger(ctx)
	if err != nil {
		return err
	}
	if party != "" {
		entries = core.FilterByParty(entries, party)
		if len(entries) == 0 {
			fmt.Printf("No entries for %q\n", party)
			return nil
		}
	}
	renderEntries(entries, true)
	if offline {
		a.printStaleNote(ctx)
	}
	return nil
}

func (a *app) show(ctx context.Context, id string) error {
	t, err := a.client.Transaction(ctx, id)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "ID\t%s\n", t.ID)
	fmt.Fprintf(w, "Date\t%s\n", t.Date)
	fmt.Fprintf(w, "Party\t%s\n", t.PartyName)
	fmt.Fprintf(w, "Type\t%s\n", t.Type.Label())
	fmt.Fprintf(w, "Amount\t₹%s\n", t.Amount)
	fmt.Fprintf(w, "Status\t%s\n", t.Status)
	fmt.Fprintf(w, "Method\t%s\n", t.Method)
	if t.Category != "" {
		fmt.Fprintf(w, "Category\t%s\n", t.Category)
	}
	if t.Note != "" {
		fmt.Fprintf(w, "Note\t%s\n", t.Note)
	}
	w.Flush()
	return nil
}

func (a *app) reports(ctx context.Context) error {
	raw, err := a.client.Reports(ctx)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		os.Stdout.Write(raw)
		fmt.Println()
		return nil
	}
	fmt.Println(buf.String())
	return nil
}

func (a *app) cashbook(ctx context.Context) error {
	entries, err := a.client.Cashbook(ctx)
	if err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) && apiErr.Transport() {
			all, offline, ferr := a.fetchLedger(ctx)
			if ferr != nil {
				return err
			}
			renderEntries(core.FilterCash(all), true)
			if offline {
				a.printStaleNote(ctx)
			}
			return nil
		}
		return err
	}
	renderEntries(entries, true)
	return nil
}

func (a *app) entryList(ctx context.Context, view string) error {
	var (
		entries []core.Transaction
		err     error
	)
	switch view {
	case "udhaar":
		entries, err = a.client.Udhaar(ctx)
	case "expenses":
		entries, err = a.client.Expenses(ctx)
	}
	if err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) && apiErr.Transport() && view == "expenses" {
			all, offline, ferr := a.fetchLedger(ctx)
			if ferr != nil {
				return err
			}
			renderEntries(core.FilterExpenses(all), false)
			if offline {
				a.printStaleNote(ctx)
			}
			return nil
		}
		return err
	}
	renderEntries(entries, view == "udhaar")
	return nil
}

func (a *app) parties(ctx context.Context, kind string) error {
	var (
		list []core.Party
		err  error
	)
	if kind == "customers" {
		list, err = a.client.Customers(ctx)
	} else {
		list, err = a.client.Suppliers(ctx)
	}
	if err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) && apiErr.Transport() {
			snapshot, serr := a.openSnapshot()
			if serr != nil {
				return err
			}
			defer snapshot.Close()
			storeKind := storage.Customers
			if kind == "suppliers" {
				storeKind = storage.Suppliers
			}
			list, serr = snapshot.ListParties(ctx, storeKind)
			if serr != nil {
				return err
			}
			renderParties(list)
			a.printStaleNote(ctx)
			return nil
		}
		return err
	}
	renderParties(list)
	return nil
}

func renderParties(list []core.Party) {
	if len(list) == 0 {
		fmt.Println("No parties")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPHONE\tBALANCE\tLAST ACTIVITY")
	for _, p := range list {
		fmt.Fprintf(w, "%s\t%s\t₹%s %s\t%s\n",
			p.Name, p.Phone, p.Balance.Abs(), core.BalanceSuffix(p.Balance), p.LastActivity)
	}
	w.Flush()
}

// renderEntries prints ledger rows, optionally with the running
// balance column. Entries whose type the client does not recognize are
// excluded from the balance and reported, never silently mis-summed.
func renderEntries(entries []core.Transaction, withBalance bool) {
	if len(entries) == 0 {
		fmt.Println("No entries")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	if withBalance {
		balances, skipped := core.RunningBalances(entries)
		fmt.Fprintln(w, "DATE\tPARTY\tTYPE\tAMOUNT\tSTATUS\tBALANCE\tNOTE")
		skip := make(map[int]bool, len(skipped))
		for _, i := range skipped {
			skip[i] = true
		}
		for i, t := range entries {
			amount := "₹" + t.Amount.String()
			if skip[i] {
				amount += " (?)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t₹%s %s\t%s\n",
				t.Date, t.PartyName, t.Type.Label(), amount, t.Status,
				balances[i].Abs(), core.BalanceSuffix(balances[i]), t.Note)
		}
		w.Flush()
		if len(skipped) > 0 {
			fmt.Fprintf(os.Stderr, "warning: %d entr%s with unrecognized type excluded from the balance\n",
				len(skipped), plural(len(skipped), "y", "ies"))
		}
		return
	}

	fmt.Fprintln(w, "DATE\tPARTY\tTYPE\tAMOUNT\tSTATUS\tNOTE")
	for _, t := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t₹%s\t%s\t%s\n",
			t.Date, t.PartyName, t.Type.Label(), t.Amount, t.Status, t.Note)
	}
	w.Flush()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func (a *app) addEntry(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add-entry", flag.ExitOnError)
	entryType := fs.String("type", "", "entry type: SALE, PURCHASE, EXPENSE, UDHAAR_GIVEN, UDHAAR_RECEIVED, PAYMENT_IN, PAYMENT_OUT")
	amount := fs.String("amount", "", "amount in rupees, e.g. 2500 or 2500.50")
	note := fs.String("note", "", "description")
	party := fs.String("party", "", "counterparty name")
	partyType := fs.String("party-type", "customer", "counterparty type: customer or supplier")
	if err := fs.Parse(args); err != nil {
		return err
	}

	paise, err := core.ParseDecimalToPaise(*amount)
	if err != nil {
		return fmt.Errorf("add-entry: %w", err)
	}

	entry := api.NewEntry{
		Type:             core.TransactionType(strings.ToUpper(*entryType)),
		Amount:           core.Money{Paise: paise},
		Description:      *note,
		CounterpartyName: *party,
		CounterpartyType: *partyType,
	}
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("add-entry: %w", err)
	}

	id, err := a.client.AddEntry(ctx, entry)
	if err != nil {
		return err
	}
	fmt.Printf("Entry %s recorded: %s ₹%s\n", id, entry.Type.Label(), entry.Amount)
	return nil
}

func (a *app) export(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	party := fs.String("party", "", "export one party's ledger instead of the full ledger")
	target := fs.String("target", "csv", "export target: csv or sheets")
	title := fs.String("title", "", "export title, defaults to the party or shop name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	entries, offline, err := a.fetchLedger(ctx)
	if err != nil {
		return err
	}
	if *party != "" {
		entries = core.FilterByParty(entries, *party)
	}

	name := *title
	if name == "" {
		name = *party
	}
	if name == "" {
		if saved, err := a.sessions.User(); err == nil && saved.ShopName != "" {
			name = saved.ShopName
		}
	}

	switch *target {
	case "csv":
		path, err := export.SaveCSV(a.cfg.ExportDir, name, entries)
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %d entries to %s\n", len(entries), path)
	case "sheets":
		if a.cfg.GoogleSpreadsheetID == "" {
			return errors.New("export: GOOGLE_SPREADSHEET_ID is not configured")
		}
		sheets, err := gexport.New(ctx, a.cfg.GoogleSpreadsheetID)
		if err != nil {
			return err
		}
		if err := sheets.AppendLedger(ctx, name, entries); err != nil {
			return err
		}
		fmt.Printf("Appended %d entries to spreadsheet %s\n", len(entries), a.cfg.GoogleSpreadsheetID)
	default:
		return fmt.Errorf("export: unknown target %q, use csv or sheets", *target)
	}

	if offline {
		a.printStaleNote(ctx)
	}
	return nil
}

// fetchLedger pulls the ledger from the gateway, falling back to the
// local snapshot on transport failure only. Server rejections,
// including 401, surface to the caller untouched.
func (a *app) fetchLedger(ctx context.Context) (entries []core.Transaction, offline bool, err error) {
	entries, err = a.client.Ledger(ctx, a.cfg.SyncLimit)
	if err == nil {
		return entries, false, nil
	}

	var apiErr *api.Error
	if !errors.As(err, &apiErr) || !apiErr.Transport() {
		return nil, false, err
	}

	snapshot, serr := a.openSnapshot()
	if serr != nil {
		return nil, false, err
	}
	defer snapshot.Close()

	entries, serr = snapshot.ListTransactions(ctx)
	if serr != nil {
		return nil, false, err
	}
	return entries, true, nil
}

func (a *app) openSnapshot() (*storage.SnapshotRepository, error) {
	return storage.NewSnapshotRepository(a.cfg.SnapshotDBPath)
}

func (a *app) printStaleNote(ctx context.Context) {
	note := "(offline, showing local snapshot)"
	if snapshot, err := a.openSnapshot(); err == nil {
		if at, err := snapshot.LastSynced(ctx); err == nil && !at.IsZero() {
			note = fmt.Sprintf("(offline, showing local snapshot from %s)", at.Format("2006-01-02 15:04"))
		}
		snapshot.Close()
	}
	fmt.Println(note)
}
