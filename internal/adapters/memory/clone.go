package memory

import (
	"slices"
	"time"

	"github.com/SscSPs/settlement_engine/internal/core/domain"
)

// Records are stored and returned by value; the helpers below copy the parts that
// would otherwise be shared through slices and pointers.

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func cloneInvoice(inv domain.Invoice) domain.Invoice {
	inv.LineItems = slices.Clone(inv.LineItems)
	inv.Allocations = slices.Clone(inv.Allocations)
	inv.FinalizedAt = cloneTime(inv.FinalizedAt)
	inv.CancelledAt = cloneTime(inv.CancelledAt)
	return inv
}

func clonePayment(p domain.Payment) domain.Payment {
	p.Allocations = slices.Clone(p.Allocations)
	return p
}

func cloneParty(p domain.Party) domain.Party {
	if p.Address != nil {
		a := *p.Address
		p.Address = &a
	}
	if p.Bank != nil {
		b := *p.Bank
		p.Bank = &b
	}
	return p
}

func cloneBankAccount(a domain.BankAccount) domain.BankAccount {
	if a.Bank != nil {
		b := *a.Bank
		a.Bank = &b
	}
	return a
}

func cloneImportBatch(b domain.ImportBatch) domain.ImportBatch {
	b.Rows = slices.Clone(b.Rows)
	b.Errors = slices.Clone(b.Errors)
	b.CommittedAt = cloneTime(b.CommittedAt)
	if b.Result != nil {
		r := *b.Result
		b.Result = &r
	}
	return b
}
