package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/settlement_engine/internal/apperrors"
	"github.com/SscSPs/settlement_engine/internal/core/domain"
)

// AgingQuery selects an aging report. AsOf is YYYY-MM-DD and defaults to today.
type AgingQuery struct {
	InvoiceType domain.InvoiceType `form:"invoiceType" binding:"omitempty,oneof=sales purchase"`
	AsOf        string             `form:"asOf"`
}

// DashboardQuery selects a dashboard read. Dates are YYYY-MM-DD.
type DashboardQuery struct {
	EntityIDs []string `form:"entityID"`
	From      string   `form:"from"`
	To        string   `form:"to"`
	AsOf      string   `form:"asOf"`
	TopN      int      `form:"topN" binding:"omitempty,min=1,max=100"`
}

// AgingReportResponse wraps the per-currency reports.
type AgingReportResponse struct {
	Reports []domain.AgingReport `json:"reports"`
}

// ParseDate parses an optional YYYY-MM-DD query value.
func ParseDate(field, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be YYYY-MM-DD", apperrors.ErrValidation, field)
	}
	return &t, nil
}

// ToDashboardFilter parses q; asOf defaults to now.
func (q DashboardQuery) ToDashboardFilter(now time.Time) (domain.DashboardFilter, error) {
	f := domain.DashboardFilter{EntityIDs: q.EntityIDs, AsOf: now, TopN: q.TopN}
	var err error
	if f.From, err = ParseDate("from", q.From); err != nil {
		return f, err
	}
	if f.To, err = ParseDate("to", q.To); err != nil {
		return f, err
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return f, fmt.Errorf("%w: to must not be before from", apperrors.ErrValidation)
	}
	asOf, err := ParseDate("asOf", q.AsOf)
	if err != nil {
		return f, err
	}
	if asOf != nil {
		f.AsOf = *asOf
	}
	return f, nil
}
