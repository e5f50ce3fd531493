package settlement

import (
	"sort"
	"time"

	"github.com/SscSPs/settlement_engine/internal/core/domain"
)

// DefaultTopN is used when a dashboard filter does not ask for a size.
const DefaultTopN = 5

// DashboardInput is the already-consistent state a dashboard is built from.
type DashboardInput struct {
	BankAccounts []domain.BankAccount
	Transactions []domain.Transaction
	Invoices     []domain.Invoice
	Parties      []domain.Party
}

// BuildDashboard rolls up balances, cash flow, receivables, payables and the top
// outstanding parties as of f.AsOf, which the caller supplies. It never mutates its input.
func BuildDashboard(in DashboardInput, f domain.DashboardFilter) domain.Dashboard {
	asOf := f.AsOf
	topN := f.TopN
	if topN <= 0 {
		topN = DefaultTopN
	}
	scoped := entityScope(f.EntityIDs)

	d := domain.Dashboard{AsOf: domain.DateOnly(asOf)}

	balances := map[string]domain.Money{}
	for _, a := range in.BankAccounts {
		if !scoped(a.EntityID) || !a.IsActive {
			continue
		}
		c := a.Currency()
		balances[c] = domain.SumMoney(c, balances[c], a.CurrentBalance)
	}
	for _, c := range sortedKeys(balances) {
		d.BankBalances = append(d.BankBalances, balances[c])
	}

	flows := map[string]*domain.CashFlowTotals{}
	for _, t := range in.Transactions {
		if !scoped(t.EntityID) || t.Status == domain.TransactionCancelled || !inWindow(t.TransactionDate, f.From, f.To) {
			continue
		}
		c := t.Amount.Currency
		cf, ok := flows[c]
		if !ok {
			cf = &domain.CashFlowTotals{Currency: c, Income: domain.ZeroMoney(c), Expense: domain.ZeroMoney(c), Net: domain.ZeroMoney(c)}
			flows[c] = cf
		}
		if t.Type == domain.TransactionIncome {
			cf.Income = cf.Income.Add(t.Amount)
		} else {
			cf.Expense = cf.Expense.Add(t.Amount)
		}
		cf.Net = cf.Income.Sub(cf.Expense)
	}
	for _, c := range sortedKeys(flows) {
		d.CashFlow = append(d.CashFlow, *flows[c])
	}

	ar := map[string]*domain.CurrencyTotals{}
	ap := map[string]*domain.CurrencyTotals{}
	perParty := map[string]*domain.PartyOutstanding{}
	for _, inv := range in.Invoices {
		if !scoped(inv.EntityID) || inv.IsCancelled() || !inv.AmountDue.IsPositive() || !inWindow(inv.InvoiceDate, f.From, f.To) {
			continue
		}
		overdue := DaysOverdue(inv.DueDate, asOf) > 0
		target := ar
		if inv.InvoiceType == domain.InvoicePurchase {
			target = ap
		}
		addCurrencyTotals(target, inv, overdue)

		key := inv.PartyID() + "|" + inv.Currency
		po, ok := perParty[key]
		if !ok {
			po = &domain.PartyOutstanding{
				PartyID:     inv.PartyID(),
				Outstanding: domain.ZeroMoney(inv.Currency),
				Overdue:     domain.ZeroMoney(inv.Currency),
			}
			perParty[key] = po
		}
		po.Outstanding = po.Outstanding.Add(inv.AmountDue)
		if overdue {
			po.Overdue = po.Overdue.Add(inv.AmountDue)
		}
		po.InvoiceCount++
	}
	for _, c := range sortedKeys(ar) {
		d.Receivables = append(d.Receivables, *ar[c])
	}
	for _, c := range sortedKeys(ap) {
		d.Payables = append(d.Payables, *ap[c])
	}

	parties := make(map[string]domain.Party, len(in.Parties))
	for _, p := range in.Parties {
		parties[p.PartyID] = p
	}
	var customers, vendors []domain.PartyOutstanding
	for _, po := range perParty {
		p, ok := parties[po.PartyID]
		if !ok {
			continue
		}
		po.PartyName, po.Kind = p.Name, p.Kind
		if p.Kind == domain.PartyVendor {
			vendors = append(vendors, *po)
		} else {
			customers = append(customers, *po)
		}
	}
	d.TopCustomers = topOutstanding(customers, topN)
	d.TopVendors = topOutstanding(vendors, topN)
	return d
}

func addCurrencyTotals(m map[string]*domain.CurrencyTotals, inv domain.Invoice, overdue bool) {
	c := inv.Currency
	t, ok := m[c]
	if !ok {
		t = &domain.CurrencyTotals{Currency: c, Outstanding: domain.ZeroMoney(c), Overdue: domain.ZeroMoney(c)}
		m[c] = t
	}
	t.Outstanding = t.Outstanding.Add(inv.AmountDue)
	t.InvoiceCount++
	if overdue {
		t.Overdue = t.Overdue.Add(inv.AmountDue)
		t.OverdueCount++
	}
}

// topOutstanding orders by outstanding descending. Amounts in different currencies are
// compared numerically; ties break on name for a stable order.
func topOutstanding(rows []domain.PartyOutstanding, n int) []domain.PartyOutstanding {
	sort.Slice(rows, func(i, j int) bool {
		if c := rows[i].Outstanding.Amount.Cmp(rows[j].Outstanding.Amount); c != 0 {
			return c > 0
		}
		return rows[i].PartyName < rows[j].PartyName
	})
	if len(rows) > n {
		rows = rows[:n]
	}
	return rows
}

func entityScope(ids []string) func(string) bool {
	if len(ids) == 0 {
		return func(string) bool { return true }
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return func(id string) bool {
		_, ok := set[id]
		return ok
	}
}

func inWindow(t time.Time, from, to *time.Time) bool {
	d := domain.DateOnly(t)
	if from != nil && d.Before(domain.DateOnly(*from)) {
		return false
	}
	if to != nil && d.After(domain.DateOnly(*to)) {
		return false
	}
	return true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
