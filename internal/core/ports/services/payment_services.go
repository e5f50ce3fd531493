package services

import (
	"context"

	"github.com/SscSPs/settlement_engine/internal/core/domain"
	"github.com/SscSPs/settlement_engine/internal/dto"
)

// PaymentReaderSvc defines read operations for payments
type PaymentReaderSvc interface {
	GetPaymentByID(ctx context.Context, entityID string, paymentID string) (*domain.Payment, error)
	ListPayments(ctx context.Context, entityID string, params dto.ListPaymentsParams) (*dto.ListPaymentsResponse, error)

	// SuggestAllocations clamps proposals against the payment remainder and invoice dues. It never commits.
	SuggestAllocations(ctx context.Context, entityID string, paymentID string, req dto.SuggestAllocationsRequest) (*dto.SuggestAllocationsResponse, error)
}

// PaymentWriterSvc defines lifecycle operations for payments
type PaymentWriterSvc interface {
	// CreatePayment records the payment and applies any requested allocations in the same unit of work.
	CreatePayment(ctx context.Context, entityID string, req dto.CreatePaymentRequest, userID string) (*domain.Payment, []domain.AppliedAllocation, error)

	// CancelPayment is only allowed once every allocation has been reversed.
	CancelPayment(ctx context.Context, entityID string, paymentID string, userID string) (*domain.Payment, error)
}

// AllocationSvc defines the all-or-nothing allocation operations
type AllocationSvc interface {
	Allocate(ctx context.Context, entityID string, paymentID string, req dto.AllocationBatchRequest, userID string) (*domain.AllocationResult, error)
	Deallocate(ctx context.Context, entityID string, paymentID string, req dto.AllocationBatchRequest, userID string) (*domain.AllocationResult, error)
}

// PaymentSvcFacade combines all payment-related service interfaces
type PaymentSvcFacade interface {
	PaymentReaderSvc
	PaymentWriterSvc
	AllocationSvc
}
