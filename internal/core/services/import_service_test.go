package services_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/SscSPs/settlement_engine/internal/apperrors"
	"github.com/SscSPs/settlement_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/settlement_engine/internal/core/ports/repositories"
	"github.com/stretchr/testify/suite"
)

const importCSV = "\ufeffDate,Entity,Type,Amount,Party Name,Bank Account,Currency,Description\n" +
	"2024-06-10,Acme Traders,income,\"1,500.00\",Globex,HDFC Current,,June retainer\n" +
	"10/06/2024,ent_1,expense,200,Initech,,,Paper\n" +
	"2024-06-10,acme traders,Income,1500,globex,hdfc current,INR,same as the first row\n" +
	",,,,,,,\n" +
	"2024-13-01,Acme Traders,income,10,Globex,,,bad date\n" +
	"2024-06-11,Other Co,income,10,Globex,,,wrong entity\n" +
	"2024-06-11,Acme Traders,transfer,10,Globex,,,bad type\n" +
	"2024-06-11,Acme Traders,income,-5,Globex,,,negative\n" +
	"2024-06-11,Acme Traders,income,5,Globex,Unknown Bank,,unknown account\n" +
	"2024-06-11,Acme Traders,income,5,Globex,HDFC Current,USD,currency mismatch\n"

type ImportServiceTestSuite struct {
	serviceSuite
}

func TestImportServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ImportServiceTestSuite))
}

func (s *ImportServiceTestSuite) TestPreview_ValidatesRows() {
	preview, err := s.svc.Import.PreviewTransactions(s.ctx, entityID, strings.NewReader(importCSV), userID)
	s.Require().NoError(err)

	s.Len(preview.Preview, 3)
	s.Len(preview.Errors, 6)
	s.NotEmpty(preview.TempFilePath)
	s.Equal(today.Add(time.Hour), preview.ExpiresAt)

	first := preview.Preview[0]
	s.Equal(1, first.Row)
	s.Equal("1500.00", first.Amount.StringFixed(2))
	s.Equal("INR", first.Currency, "currency is taken from the bank account")
	second := preview.Preview[1]
	s.Equal(time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), second.Date)
	s.Equal(domain.TransactionExpense, second.Type)

	rows := make([]int, 0, len(preview.Errors))
	for _, e := range preview.Errors {
		rows = append(rows, e.Row)
	}
	s.Equal([]int{5, 6, 7, 8, 9, 10}, rows)
}

func (s *ImportServiceTestSuite) TestPreview_RejectsFile() {
	_, err := s.svc.Import.PreviewTransactions(s.ctx, entityID, strings.NewReader(""), userID)
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.svc.Import.PreviewTransactions(s.ctx, entityID, strings.NewReader("Date,Amount\n2024-06-01,10\n"), userID)
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.svc.Import.PreviewTransactions(s.ctx, "ent_missing", strings.NewReader(importCSV), userID)
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *ImportServiceTestSuite) TestCommit_DeduplicatesAndIsIdempotent() {
	preview, err := s.svc.Import.PreviewTransactions(s.ctx, entityID, strings.NewReader(importCSV), userID)
	s.Require().NoError(err)

	result, err := s.svc.Import.CommitTransactions(s.ctx, entityID, preview.TempFilePath, userID)
	s.Require().NoError(err)
	s.Equal(domain.ImportResult{Imported: 2, Skipped: 1}, *result)

	again, err := s.svc.Import.CommitTransactions(s.ctx, entityID, preview.TempFilePath, userID)
	s.Require().NoError(err)
	s.Equal(*result, *again, "re-committing returns the stored result")

	txs, err := s.store.ListTransactions(s.ctx, []string{entityID})
	s.Require().NoError(err)
	s.Len(txs, 2)
	for _, t := range txs {
		s.Equal(domain.TransactionPending, t.Status)
		s.NotEmpty(t.ImportBatchID)
		if t.Type == domain.TransactionIncome {
			s.Equal(accountID, t.BankAccountID)
		}
	}
	account, err := s.store.FindBankAccountByID(s.ctx, entityID, accountID)
	s.Require().NoError(err)
	s.Equal("10000.00", fixed(account.CurrentBalance))

	second, err := s.svc.Import.PreviewTransactions(s.ctx, entityID, strings.NewReader(importCSV), userID)
	s.Require().NoError(err)
	replay, err := s.svc.Import.CommitTransactions(s.ctx, entityID, second.TempFilePath, userID)
	s.Require().NoError(err)
	s.Equal(domain.ImportResult{Imported: 0, Skipped: 3}, *replay, "rows already stored are skipped")
}

func (s *ImportServiceTestSuite) TestCommit_ReplayIgnoresLaterAccountChanges() {
	preview, err := s.svc.Import.PreviewTransactions(s.ctx, entityID, strings.NewReader(importCSV), userID)
	s.Require().NoError(err)
	result, err := s.svc.Import.CommitTransactions(s.ctx, entityID, preview.TempFilePath, userID)
	s.Require().NoError(err)

	s.Require().NoError(s.store.WithinLedgerTx(s.ctx, entityID, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		account, err := tx.FindBankAccountForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		account.Name = "HDFC Renamed"
		return tx.UpdateBankAccount(ctx, account)
	}))

	again, err := s.svc.Import.CommitTransactions(s.ctx, entityID, preview.TempFilePath, userID)
	s.Require().NoError(err)
	s.Equal(*result, *again)
}

func (s *ImportServiceTestSuite) TestCommit_ExpiredOrForeign() {
	preview, err := s.svc.Import.PreviewTransactions(s.ctx, entityID, strings.NewReader(importCSV), userID)
	s.Require().NoError(err)

	_, err = s.svc.Import.CommitTransactions(s.ctx, "ent_other", preview.TempFilePath, userID)
	s.ErrorIs(err, apperrors.ErrNotFound)

	_, err = s.svc.Import.CommitTransactions(s.ctx, entityID, "not-a-reference", userID)
	s.ErrorIs(err, apperrors.ErrNotFound)

	s.clock.Advance(2 * time.Hour)
	_, err = s.svc.Import.CommitTransactions(s.ctx, entityID, preview.TempFilePath, userID)
	s.ErrorIs(err, apperrors.ErrInvalidStateTransition)

	txs, err := s.store.ListTransactions(s.ctx, []string{entityID})
	s.Require().NoError(err)
	s.Empty(txs)
}
