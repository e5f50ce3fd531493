package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/settlement_engine/internal/apperrors"
	"github.com/SscSPs/settlement_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/settlement_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/settlement_engine/internal/core/ports/services"
	"github.com/SscSPs/settlement_engine/internal/dto"
	"github.com/SscSPs/settlement_engine/internal/utils/pagination"
	"github.com/shopspring/decimal"
)

// Column headers of a transaction import, matched case-insensitively.
const (
	colDate        = "date"
	colEntity      = "entity"
	colType        = "type"
	colAmount      = "amount"
	colPartyName   = "party name"
	colBankAccount = "bank account"
	colCurrency    = "currency"
	colDescription = "description"
)

var requiredColumns = []string{colDate, colEntity, colType, colAmount, colPartyName}

// importDateLayouts are tried in order for the Date column.
var importDateLayouts = []string{time.DateOnly, "02-01-2006", "02/01/2006", "2006/01/02"}

type importService struct {
	ledgerRunner
	importRepo      portsrepo.ImportBatchRepositoryFacade
	entityRepo      portsrepo.EntityReader
	bankAccountRepo portsrepo.BankAccountReader
	ttl             time.Duration
}

var _ portssvc.ImportSvc = (*importService)(nil)

// NewImportService creates the two-phase transaction import service.
func NewImportService(repos portsrepo.RepositoryProvider, opts ...ServiceOption) portssvc.ImportSvc {
	o := buildOptions(opts)
	return &importService{
		ledgerRunner:    ledgerRunner{BaseService: o.base, ledger: repos.LedgerRepo, locker: o.locker},
		importRepo:      repos.ImportRepo,
		entityRepo:      repos.EntityRepo,
		bankAccountRepo: repos.BankAccountRepo,
		ttl:             o.importTTL,
	}
}

func (s *importService) PreviewTransactions(ctx context.Context, entityID string, r io.Reader, userID string) (*dto.ImportPreviewResponse, error) {
	entity, err := s.entityRepo.FindEntityByID(ctx, entityID)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: import file is empty", apperrors.ErrValidation)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable csv header: %s", apperrors.ErrValidation, err.Error())
	}
	cols, err := indexColumns(header)
	if err != nil {
		return nil, err
	}

	now := s.now()
	batch := domain.ImportBatch{
		BatchID:     s.NewID(),
		EntityID:    entityID,
		Rows:        []domain.ImportRow{},
		Errors:      []domain.ImportRowError{},
		Status:      domain.ImportStaged,
		ExpiresAt:   now.Add(s.ttl),
		AuditFields: domain.NewAuditFields(userID, now),
	}
	batch.Reference = pagination.EncodeMultiFieldToken(entityID, batch.BatchID)

	accounts := map[string]*domain.BankAccount{}
	for n := 1; ; n++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			batch.Errors = append(batch.Errors, domain.ImportRowError{Row: n, Error: err.Error()})
			continue
		}
		if blank(record) {
			continue
		}
		row, err := s.parseRow(ctx, entity, cols, record, accounts)
		if err != nil {
			batch.Errors = append(batch.Errors, domain.ImportRowError{Row: n, Error: err.Error()})
			continue
		}
		row.Row = n
		batch.Rows = append(batch.Rows, row)
	}

	if err := s.importRepo.SaveImportBatch(ctx, batch); err != nil {
		s.LogError(ctx, err, "Failed to stage import", slog.String("entity_id", entityID))
		return nil, fmt.Errorf("failed to stage import: %w", err)
	}
	s.Metrics.ObserveImport(0, 0, len(batch.Errors))
	s.LogInfo(ctx, "Import staged",
		slog.String("entity_id", entityID),
		slog.String("batch_id", batch.BatchID),
		slog.Int("valid_rows", len(batch.Rows)),
		slog.Int("rejected_rows", len(batch.Errors)))
	return &dto.ImportPreviewResponse{
		Preview:      batch.Rows,
		Errors:       batch.Errors,
		TempFilePath: batch.Reference,
		ExpiresAt:    batch.ExpiresAt,
	}, nil
}

func indexColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing column(s): %s", apperrors.ErrValidation, strings.Join(missing, ", "))
	}
	return cols, nil
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func field(record []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// parseRow validates one record. accounts caches bank account lookups by lower-cased name.
func (s *importService) parseRow(ctx context.Context, entity *domain.Entity, cols map[string]int, record []string, accounts map[string]*domain.BankAccount) (domain.ImportRow, error) {
	row := domain.ImportRow{
		Entity:      field(record, cols, colEntity),
		PartyName:   field(record, cols, colPartyName),
		BankAccount: field(record, cols, colBankAccount),
		Currency:    strings.ToUpper(field(record, cols, colCurrency)),
		Description: field(record, cols, colDescription),
	}

	if !strings.EqualFold(row.Entity, entity.EntityID) && !strings.EqualFold(row.Entity, entity.Name) {
		return row, fmt.Errorf("entity %q does not match %s", row.Entity, entity.Name)
	}
	date, err := parseImportDate(field(record, cols, colDate))
	if err != nil {
		return row, err
	}
	row.Date = date

	row.Type = domain.TransactionType(strings.ToLower(field(record, cols, colType)))
	if !row.Type.Valid() {
		return row, fmt.Errorf("type must be income or expense, got %q", field(record, cols, colType))
	}
	amount, err := decimal.NewFromString(strings.ReplaceAll(field(record, cols, colAmount), ",", ""))
	if err != nil {
		return row, fmt.Errorf("invalid amount %q", field(record, cols, colAmount))
	}
	if !amount.IsPositive() {
		return row, fmt.Errorf("amount must be positive")
	}
	row.Amount = amount.Round(domain.MoneyScale)
	if row.PartyName == "" {
		return row, fmt.Errorf("party name is required")
	}

	if row.BankAccount != "" {
		key := strings.ToLower(row.BankAccount)
		account, cached := accounts[key]
		if !cached {
			account, err = s.bankAccountRepo.FindBankAccountByName(ctx, entity.EntityID, row.BankAccount)
			if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
				return row, err
			}
			accounts[key] = account
		}
		if account == nil {
			return row, fmt.Errorf("unknown bank account %q", row.BankAccount)
		}
		if row.Currency == "" {
			row.Currency = account.Currency()
		}
		if row.Currency != account.Currency() {
			return row, fmt.Errorf("currency %s does not match bank account currency %s", row.Currency, account.Currency())
		}
	}
	if row.Currency == "" {
		row.Currency = entity.BaseCurrency
	}
	if len(row.Currency) != 3 {
		return row, fmt.Errorf("invalid currency %q", row.Currency)
	}
	return row, nil
}

func parseImportDate(value string) (time.Time, error) {
	for _, layout := range importDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return domain.DateOnly(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", value)
}

func (s *importService) CommitTransactions(ctx context.Context, entityID string, reference string, userID string) (*domain.ImportResult, error) {
	fields, err := pagination.DecodeMultiFieldToken(reference, 2)
	if err != nil || fields[0] != entityID {
		return nil, fmt.Errorf("%w: import %s", apperrors.ErrNotFound, reference)
	}

	staged, err := s.importRepo.FindImportBatch(ctx, entityID, reference)
	if err != nil {
		return nil, err
	}
	if staged.IsCommitted() && staged.Result != nil {
		s.LogInfo(ctx, "Import already committed; returning stored result", slog.String("entity_id", entityID))
		result := *staged.Result
		return &result, nil
	}
	// Accounts are resolved only for batches still to be applied.
	accounts, err := s.resolveAccounts(ctx, entityID, staged.Rows)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var (
		result   domain.ImportResult
		replayed bool
	)
	err = s.run(ctx, entityID, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		batch, err := tx.FindImportBatchForUpdate(ctx, reference)
		if err != nil {
			return err
		}
		if batch.IsCommitted() && batch.Result != nil {
			result, replayed = *batch.Result, true
			return nil
		}
		if batch.Expired(now) {
			return fmt.Errorf("%w: import %s expired at %s", apperrors.ErrInvalidStateTransition, batch.BatchID, batch.ExpiresAt.Format(time.RFC3339))
		}

		seen, err := tx.TransactionFingerprints(ctx)
		if err != nil {
			return err
		}
		txs := make([]domain.Transaction, 0, len(batch.Rows))
		for _, row := range batch.Rows {
			fp := row.Fingerprint()
			if _, dup := seen[fp]; dup {
				result.Skipped++
				continue
			}
			seen[fp] = struct{}{}

			txs = append(txs, domain.Transaction{
				TransactionID:   s.NewID(),
				EntityID:        entityID,
				BankAccountID:   accounts[strings.ToLower(row.BankAccount)],
				TransactionDate: row.Date,
				Type:            row.Type,
				Amount:          domain.NewMoney(row.Amount, row.Currency),
				PartyName:       row.PartyName,
				Description:     row.Description,
				Status:          domain.TransactionPending,
				ImportBatchID:   batch.BatchID,
				AuditFields:     domain.NewAuditFields(userID, now),
			})
		}
		if len(txs) > 0 {
			if err := tx.InsertTransactions(ctx, txs); err != nil {
				return err
			}
		}
		result.Imported = len(txs)

		batch.Status = domain.ImportCommitted
		batch.Result = &result
		batch.CommittedAt = &now
		batch.Touch(userID, now)
		return tx.UpdateImportBatch(ctx, batch)
	})
	s.Metrics.ObserveOperation("commit_import", err)
	if err != nil {
		s.LogFailure(ctx, err, "Import commit failed", slog.String("entity_id", entityID))
		return nil, err
	}
	if replayed {
		s.LogInfo(ctx, "Import already committed; returning stored result", slog.String("entity_id", entityID))
		return &result, nil
	}
	s.Metrics.ObserveImport(result.Imported, result.Skipped, 0)
	s.LogInfo(ctx, "Import committed", slog.String("entity_id", entityID), slog.Int("imported", result.Imported), slog.Int("skipped", result.Skipped))
	return &result, nil
}

// resolveAccounts maps the staged bank account names to IDs. It runs before the ledger
// unit of work so that no directory read happens while the ledger is held.
func (s *importService) resolveAccounts(ctx context.Context, entityID string, rows []domain.ImportRow) (map[string]string, error) {
	ids := map[string]string{}
	for _, row := range rows {
		if row.BankAccount == "" {
			continue
		}
		key := strings.ToLower(row.BankAccount)
		if _, ok := ids[key]; ok {
			continue
		}
		account, err := s.bankAccountRepo.FindBankAccountByName(ctx, entityID, row.BankAccount)
		if err != nil {
			return nil, err
		}
		ids[key] = account.BankAccountID
	}
	return ids, nil
}
