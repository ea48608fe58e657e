package weighing

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"registracion/internal/core/apperror"
	"registracion/internal/core/id"
	"registracion/internal/core/tx"
	"registracion/internal/domain/audit"
	"registracion/internal/domain/events"
	"registracion/pkg/logger"
)

// Service orchestrates weighing registrations.
type Service struct {
	repo      Repository
	labels    LabelAllocator
	txManager tx.Manager
	audit     audit.Recorder
	events    events.Publisher

	// labelsFromCounter draws missing labels from the global counter instead
	// of numbering them 1..n within the batch.
	labelsFromCounter bool
}

// ServiceConfig configures the weighing service. Audit and Events are optional.
type ServiceConfig struct {
	Repo              Repository
	Labels            LabelAllocator
	TxManager         tx.Manager
	Audit             audit.Recorder
	Events            events.Publisher
	LabelsFromCounter bool
}

// NewService creates a new weighing service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		repo:              cfg.Repo,
		labels:            cfg.Labels,
		txManager:         cfg.TxManager,
		audit:             cfg.Audit,
		events:            cfg.Events,
		labelsFromCounter: cfg.LabelsFromCounter,
	}
}

// Register records a batch of weighed bundles against an operation.
// Input is validated before the transaction opens; everything after runs in a
// single transaction and is rolled back as a whole on failure.
func (s *Service) Register(ctx context.Context, req Request) (*Result, error) {
	opID, ok := id.Strict(req.OperationID)
	if !ok {
		return nil, apperror.NewValidationCode(apperror.CodeInvalidOperationID, "operacionId is not a valid identifier").
			WithDetail("operacionId", req.OperationID)
	}
	if len(req.Bundles) == 0 {
		return nil, apperror.NewValidationCode(apperror.CodeNoBundles, "At least one bundle is required")
	}

	overOrder, quality := Totals(req.Bundles)
	if !(overOrder + quality).IsPositive() {
		return nil, apperror.NewValidationCode(apperror.CodeZeroWeight, "Cannot register without kilograms").
			WithDetail("operacionId", opID)
	}

	rules := req.Kind.Rules()
	if err := ValidateBundles(req.Bundles, rules); err != nil {
		return nil, err
	}

	bundles := slices.Clone(req.Bundles)
	result := &Result{
		OperationID:    opID,
		OverOrderTotal: overOrder,
		QualityTotal:   quality,
		TotalBundles:   len(bundles),
		TotalRolls:     Rolls(bundles),
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		state, err := s.repo.OperationState(ctx, opID)
		if err != nil {
			return fmt.Errorf("load operation state: %w", err)
		}
		if state.Closed() {
			return apperror.NewOperationClosed(opID)
		}

		lotID, destination, err := s.resolveLot(ctx, req, state)
		if err != nil {
			return err
		}
		key := Key{OperationID: opID, LotID: lotID, Code: req.Kind.Code()}

		existing, err := s.repo.FindLine(ctx, key)
		if err != nil {
			return fmt.Errorf("find registration line: %w", err)
		}
		if existing != nil {
			if err := s.repo.DeleteBundles(ctx, key); err != nil {
				return fmt.Errorf("delete previous bundles: %w", err)
			}
		}

		if rules.WritesBundles {
			if err := s.assignLabels(ctx, bundles); err != nil {
				return err
			}
			for i := range bundles {
				bundles[i].Destination = destination
			}
			if err := s.repo.InsertBundles(ctx, key, bundles); err != nil {
				return fmt.Errorf("insert bundles: %w", err)
			}
		}

		line := RegistrationLine{
			OperationID:    opID,
			LotID:          lotID,
			Code:           key.Code,
			OverOrderKg:    overOrder,
			QualityKg:      quality,
			Bundles:        result.TotalBundles,
			Rolls:          result.TotalRolls,
			DestinationLot: destination,
			Description:    req.Line.Description,
		}
		action := audit.ActionRegister
		if existing != nil {
			action = audit.ActionModify
			if err := s.repo.UpdateLine(ctx, line); err != nil {
				return fmt.Errorf("update registration line: %w", err)
			}
		} else if err := s.repo.InsertLine(ctx, line); err != nil {
			return fmt.Errorf("insert registration line: %w", err)
		}

		result.LotID = lotID
		result.Destination = destination
		result.Modified = existing != nil

		return s.journal(ctx, opID, action, events.TypeWeighingRegistered, map[string]any{
			"kind":      req.Kind.String(),
			"line":      line,
			"bundles":   bundles,
			"modified":  existing != nil,
			"overOrder": overOrder,
			"quality":   quality,
		})
	})
	if err != nil {
		return nil, err
	}

	if rules.WritesBundles {
		result.Bundles = bundles
	} else {
		result.Bundles = []Bundle{}
	}

	logger.Info(ctx, "weighing registered",
		"operation_id", opID,
		"lot_id", result.LotID,
		"kind", req.Kind.String(),
		"over_order_kg", overOrder.String(),
		"quality_kg", quality.String(),
		"bundles", result.TotalBundles,
		"modified", result.Modified,
	)

	return result, nil
}

// resolveLot returns the destination lot and its label for the kind of req.
func (s *Service) resolveLot(ctx context.Context, req Request, state *OperationState) (string, string, error) {
	switch req.Kind.Rules().lots {
	case lotSentinel:
		return UnserializedScrapLot, UnserializedScrapDestination, nil

	case lotFromScrapPool:
		series := strings.TrimSpace(state.SeriesCode)
		if series == "" {
			series = strings.TrimSpace(req.Line.SeriesCode)
		}
		pool, err := s.repo.ScrapLotPool(ctx, series)
		if err != nil {
			return "", "", fmt.Errorf("load scrap lot pool: %w", err)
		}
		if len(pool) == 0 {
			return "", "", apperror.NewNoScrapLot(series)
		}
		lot := pool[0]
		if err := s.repo.MarkScrapLotUsed(ctx, lot.LotID); err != nil {
			return "", "", fmt.Errorf("mark scrap lot used: %w", err)
		}
		return lot.LotID, lot.Destination, nil

	case lotFromLineContext:
		return optionalLot(req.Line.LotID), req.Line.Destination, nil

	default:
		return id.Lenient(req.DestinationLotID), req.Line.Destination, nil
	}
}

// assignLabels fills missing labels in place. Pre-supplied labels are kept.
func (s *Service) assignLabels(ctx context.Context, bundles []Bundle) error {
	next := int64(1)
	for i := range bundles {
		if bundles[i].Label > 0 {
			continue
		}
		if s.labelsFromCounter {
			label, err := s.labels.AllocateNextLabel(ctx)
			if err != nil {
				return fmt.Errorf("allocate label: %w", err)
			}
			bundles[i].Label = label
			continue
		}
		bundles[i].Label = next
		next++
	}
	return nil
}

// ResetRequest identifies the registration line to remove.
type ResetRequest struct {
	OperationID string
	LotID       string
	Kind        Kind
}

// Reset deletes a registration line and all its bundles. Deleting nothing is
// not an error. A serialized scrap line gives its pool lot back so the same
// registration can be repeated.
func (s *Service) Reset(ctx context.Context, req ResetRequest) error {
	key, err := resetKey(req)
	if err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if req.Kind == KindScrapSerialized {
			line, err := s.repo.FindLine(ctx, key)
			if err != nil {
				return fmt.Errorf("find registration line: %w", err)
			}
			if line != nil {
				if err := s.repo.ReleaseScrapLot(ctx, key.LotID); err != nil {
					return fmt.Errorf("release scrap lot: %w", err)
				}
			}
		}
		if err := s.repo.DeleteBundles(ctx, key); err != nil {
			return fmt.Errorf("delete bundles: %w", err)
		}
		if err := s.repo.DeleteLine(ctx, key); err != nil {
			return fmt.Errorf("delete registration line: %w", err)
		}
		return s.journal(ctx, key.OperationID, audit.ActionReset, events.TypeWeighingReset, map[string]any{
			"kind":    req.Kind.String(),
			"loteIds": key.LotID,
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "weighing reset",
		"operation_id", key.OperationID,
		"lot_id", key.LotID,
		"kind", req.Kind.String(),
	)
	return nil
}

// ListBundles returns the bundles stored for one registration line.
func (s *Service) ListBundles(ctx context.Context, req ResetRequest) ([]StoredBundle, error) {
	key, err := resetKey(req)
	if err != nil {
		return nil, err
	}
	return s.repo.ListBundles(ctx, key)
}

// ListSurplusBundles returns every surplus bundle of an operation in
// registration order.
func (s *Service) ListSurplusBundles(ctx context.Context, operationID string) ([]StoredBundle, error) {
	opID, ok := id.Strict(operationID)
	if !ok {
		return nil, apperror.NewValidationCode(apperror.CodeInvalidOperationID, "operacionId is not a valid identifier").
			WithDetail("operacionId", operationID)
	}
	return s.repo.ListSurplusBundles(ctx, opID)
}

// NextLabel allocates one label from the global counter in its own transaction.
func (s *Service) NextLabel(ctx context.Context) (int64, error) {
	var label int64
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		label, err = s.labels.AllocateNextLabel(ctx)
		return err
	})
	if err != nil {
		return 0, err
	}
	return label, nil
}

// LastLabel returns the current value of the global label counter.
func (s *Service) LastLabel(ctx context.Context) (int64, error) {
	return s.labels.LastLabel(ctx)
}

func (s *Service) journal(ctx context.Context, operationID, action, eventType string, payload map[string]any) error {
	if s.audit != nil {
		if err := s.audit.Record(ctx, audit.Entry{
			EntityType: "registration_line",
			EntityID:   operationID,
			Action:     action,
			Payload:    payload,
		}); err != nil {
			return fmt.Errorf("write audit entry: %w", err)
		}
	}
	if s.events != nil {
		if err := s.events.Publish(ctx, events.Event{
			AggregateType: events.AggregateOperation,
			AggregateID:   operationID,
			Type:          eventType,
			Payload:       payload,
		}); err != nil {
			return fmt.Errorf("publish %s: %w", eventType, err)
		}
	}
	return nil
}

func resetKey(req ResetRequest) (Key, error) {
	opID, ok := id.Strict(req.OperationID)
	if !ok {
		return Key{}, apperror.NewValidationCode(apperror.CodeInvalidOperationID, "operacionId is not a valid identifier").
			WithDetail("operacionId", req.OperationID)
	}
	key := Key{OperationID: opID, Code: req.Kind.Code()}
	switch req.Kind.Rules().lots {
	case lotSentinel:
		key.LotID = UnserializedScrapLot
	case lotFromLineContext:
		key.LotID = optionalLot(req.LotID)
	default:
		key.LotID = id.Lenient(req.LotID)
	}
	return key, nil
}

// optionalLot keeps a canonical lot and maps anything else to "no lot".
func optionalLot(lotID string) string {
	if v, ok := id.Strict(lotID); ok {
		return v
	}
	return ""
}
