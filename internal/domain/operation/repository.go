package operation

import (
	"context"

	"registracion/internal/core/types"
	"registracion/internal/domain/weighing"
)

// Repository is the store adapter for operation facts.
type Repository interface {
	// GetOperation returns NotFound when the operation does not exist.
	GetOperation(ctx context.Context, operationID string) (*Operation, error)
	ListByMachine(ctx context.Context, machineID string) ([]Operation, error)

	PredecessorState(ctx context.Context, originLotID string) (PredecessorState, error)
	QualityVerdict(ctx context.Context, operationID string) (QualityVerdict, error)

	// GroupNumber returns nil when the operation is not part of a group.
	GroupNumber(ctx context.Context, operationID string) (*int64, error)
	GroupMembers(ctx context.Context, number int64) ([]string, error)
	LastGroupNumber(ctx context.Context) (int64, error)
	AddToGroup(ctx context.Context, operationID string, number int64) error
	Open(ctx context.Context, operationID, batchNumber string) error

	SetSuspended(ctx context.Context, operationIDs []string, suspended bool) error

	IncomingKg(ctx context.Context, operationIDs []string) (types.Kilograms, error)
	CutLines(ctx context.Context, operationID string) ([]CutLine, error)
	RegistrationLines(ctx context.Context, operationIDs []string) ([]weighing.RegistrationLine, error)
}

// TechnicalSheetReader reads the optional ERP summary of a lot.
type TechnicalSheetReader interface {
	// TechnicalSheet returns nil without error when the ERP has no sheet.
	TechnicalSheet(ctx context.Context, lotID string) (*TechnicalSheet, error)
}

// SupervisorVerifier checks supervisor credentials before a suspension toggle.
type SupervisorVerifier interface {
	VerifySupervisor(ctx context.Context, username, password string) error
}
