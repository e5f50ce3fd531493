package services

import (
	"context"

	"github.com/SscSPs/settlement_engine/internal/core/domain"
	"github.com/SscSPs/settlement_engine/internal/dto"
)

// ReportingSvc defines read-only rollups
type ReportingSvc interface {
	// GetCreditExposure computes a party's outstanding balance against its credit limit.
	GetCreditExposure(ctx context.Context, entityID string, partyID string) (*domain.CreditExposure, error)

	// GetDashboard aggregates across the entities the identity may see, narrowed by the query.
	GetDashboard(ctx context.Context, identity domain.Identity, q dto.DashboardQuery) (*domain.Dashboard, error)
}
