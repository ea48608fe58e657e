package weighing

import "context"

// Repository is the store adapter used by the orchestrator. Every method runs
// inside the transaction carried by ctx when one is open.
type Repository interface {
	// OperationState returns NotFound when the operation does not exist.
	OperationState(ctx context.Context, operationID string) (*OperationState, error)

	// ScrapLotPool lists unused scrap lots for a product series, best first.
	ScrapLotPool(ctx context.Context, seriesCode string) ([]ScrapLot, error)
	MarkScrapLotUsed(ctx context.Context, lotID string) error
	// ReleaseScrapLot returns a lot to the pool when its line is reset.
	ReleaseScrapLot(ctx context.Context, lotID string) error

	// FindLine returns nil without error when no line exists for key.
	FindLine(ctx context.Context, key Key) (*RegistrationLine, error)
	InsertLine(ctx context.Context, line RegistrationLine) error
	UpdateLine(ctx context.Context, line RegistrationLine) error
	DeleteLine(ctx context.Context, key Key) error

	InsertBundles(ctx context.Context, key Key, bundles []Bundle) error
	DeleteBundles(ctx context.Context, key Key) error
	ListBundles(ctx context.Context, key Key) ([]StoredBundle, error)
	ListSurplusBundles(ctx context.Context, operationID string) ([]StoredBundle, error)
}

// LabelAllocator is the store-owned global label counter.
type LabelAllocator interface {
	// AllocateNextLabel atomically increments the counter. It must run inside
	// the transaction that consumes the label.
	AllocateNextLabel(ctx context.Context) (int64, error)
	LastLabel(ctx context.Context) (int64, error)
}
