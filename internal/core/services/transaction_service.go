package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/settlement_engine/internal/apperrors"
	"github.com/SscSPs/settlement_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/settlement_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/settlement_engine/internal/core/ports/services"
	"github.com/SscSPs/settlement_engine/internal/dto"
)

type transactionService struct {
	ledgerRunner
	transactionRepo portsrepo.TransactionReader
	entityRepo      portsrepo.EntityReader
}

var _ portssvc.TransactionSvc = (*transactionService)(nil)

// NewTransactionService creates the bank transaction service.
func NewTransactionService(ledger portsrepo.LedgerRepository, transactions portsrepo.TransactionReader, entities portsrepo.EntityReader, opts ...ServiceOption) portssvc.TransactionSvc {
	o := buildOptions(opts)
	return &transactionService{
		ledgerRunner:    ledgerRunner{BaseService: o.base, ledger: ledger, locker: o.locker},
		transactionRepo: transactions,
		entityRepo:      entities,
	}
}

func (s *transactionService) GetTransactionByID(ctx context.Context, entityID string, transactionID string) (*domain.Transaction, error) {
	t, err := s.transactionRepo.FindTransactionByID(ctx, entityID, transactionID)
	if err != nil {
		s.LogFailure(ctx, err, "Failed to find transaction", slog.String("transaction_id", transactionID))
		return nil, err
	}
	return t, nil
}

func (s *transactionService) CreateTransaction(ctx context.Context, entityID string, req dto.CreateTransactionRequest, userID string) (*domain.Transaction, error) {
	entity, err := s.entityRepo.FindEntityByID(ctx, entityID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	var created domain.Transaction

	err = s.run(ctx, entityID, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		var account *domain.BankAccount
		currency := strings.ToUpper(strings.TrimSpace(req.Currency))
		if req.BankAccountID != "" {
			var err error
			if account, err = tx.FindBankAccountForUpdate(ctx, req.BankAccountID); err != nil {
				return err
			}
			if currency == "" {
				currency = account.Currency()
			}
			if currency != account.Currency() {
				return fmt.Errorf("%w: bank account %s is in %s, transaction is in %s", apperrors.ErrValidation, account.Name, account.Currency(), currency)
			}
		}
		if currency == "" {
			currency = entity.BaseCurrency
		}

		t := domain.Transaction{
			TransactionID:   s.NewID(),
			EntityID:        entityID,
			BankAccountID:   req.BankAccountID,
			TransactionDate: domain.DateOnly(req.TransactionDate),
			Type:            req.Type,
			Amount:          domain.NewMoney(req.Amount, currency),
			PartyName:       strings.TrimSpace(req.PartyName),
			Description:     req.Description,
			Status:          domain.TransactionPending,
			AuditFields:     domain.NewAuditFields(userID, now),
		}
		if err := t.Validate(); err != nil {
			return err
		}
		if req.Status == domain.TransactionPaid {
			delta, _, err := t.Transition(domain.TransactionPaid)
			if err != nil {
				return err
			}
			t.Status = domain.TransactionPaid
			if err := applyBalance(ctx, tx, account, delta, userID, now); err != nil {
				return err
			}
		}
		if err := tx.InsertTransactions(ctx, []domain.Transaction{t}); err != nil {
			return err
		}
		t.Version = 1
		created = t
		return nil
	})
	s.Metrics.ObserveOperation("create_transaction", err)
	if err != nil {
		s.LogFailure(ctx, err, "Failed to create transaction", slog.String("entity_id", entityID))
		return nil, err
	}
	s.LogInfo(ctx, "Transaction created", slog.String("transaction_id", created.TransactionID), slog.String("status", string(created.Status)))
	return &created, nil
}

// UpdateTransactionStatuses gives every ID its own unit of work so one failure never
// blocks the rest of the batch.
func (s *transactionService) UpdateTransactionStatuses(ctx context.Context, entityID string, req dto.BulkTransactionStatusRequest, userID string) ([]domain.StatusUpdateOutcome, error) {
	if req.Status != domain.TransactionPaid && req.Status != domain.TransactionCancelled {
		return nil, fmt.Errorf("%w: status must be paid or cancelled", apperrors.ErrValidation)
	}
	if len(req.TransactionIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one transaction is required", apperrors.ErrValidation)
	}
	if _, err := s.entityRepo.FindEntityByID(ctx, entityID); err != nil {
		return nil, err
	}

	outcomes := make([]domain.StatusUpdateOutcome, 0, len(req.TransactionIDs))
	for _, id := range req.TransactionIDs {
		outcome := s.updateOne(ctx, entityID, id, req.Status, userID)
		outcomes = append(outcomes, outcome)
	}
	resp := dto.NewBulkTransactionStatusResponse(outcomes)
	s.LogInfo(ctx, "Bulk transaction status applied",
		slog.String("entity_id", entityID),
		slog.String("status", string(req.Status)),
		slog.Int("updated", resp.Updated),
		slog.Int("unchanged", resp.Unchanged),
		slog.Int("failed", resp.Failed))
	return outcomes, nil
}

func (s *transactionService) updateOne(ctx context.Context, entityID, transactionID string, to domain.TransactionStatus, userID string) domain.StatusUpdateOutcome {
	now := s.now()
	outcome := domain.StatusUpdateOutcome{TransactionID: transactionID}

	err := s.run(ctx, entityID, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		found, err := tx.FindTransactionsForUpdate(ctx, []string{transactionID})
		if err != nil {
			return err
		}
		t, ok := found[transactionID]
		if !ok {
			return fmt.Errorf("%w: transaction %s", apperrors.ErrNotFound, transactionID)
		}
		delta, changed, err := t.Transition(to)
		if err != nil {
			return err
		}
		outcome.Status = t.Status
		if !changed {
			outcome.Result = domain.OutcomeUnchanged
			return nil
		}
		if t.BankAccountID != "" && !delta.IsZero() {
			account, err := tx.FindBankAccountForUpdate(ctx, t.BankAccountID)
			if err != nil {
				return err
			}
			if err := applyBalance(ctx, tx, account, delta, userID, now); err != nil {
				return err
			}
		}
		t.Status = to
		t.Touch(userID, now)
		if err := tx.UpdateTransaction(ctx, t); err != nil {
			return err
		}
		outcome.Status = to
		outcome.Result = domain.OutcomeUpdated
		return nil
	})
	s.Metrics.ObserveOperation("update_transaction_status", err)
	if err != nil {
		s.LogFailure(ctx, err, "Transaction status update failed", slog.String("transaction_id", transactionID))
		outcome.Result = domain.OutcomeFailed
		outcome.Error = err.Error()
	}
	return outcome
}

// applyBalance moves a bank account balance by delta inside the caller's unit of work.
func applyBalance(ctx context.Context, tx portsrepo.LedgerTx, account *domain.BankAccount, delta domain.Money, userID string, at time.Time) error {
	if account == nil || delta.IsZero() {
		return nil
	}
	if !account.CurrentBalance.SameCurrency(delta) {
		return fmt.Errorf("%w: bank account %s is in %s, movement is in %s", apperrors.ErrValidation, account.Name, account.Currency(), delta.Currency)
	}
	account.CurrentBalance = account.CurrentBalance.Add(delta)
	account.Touch(userID, at)
	return tx.UpdateBankAccount(ctx, account)
}
