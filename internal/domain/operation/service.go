package operation

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"registracion/internal/core/apperror"
	"registracion/internal/core/id"
	"registracion/internal/core/tx"
	"registracion/internal/domain/audit"
	"registracion/internal/domain/balance"
	"registracion/internal/domain/events"
	"registracion/internal/domain/weighing"
	"registracion/pkg/logger"
)

// Service provides the operation views and the operation-level mutations.
type Service struct {
	repo        Repository
	sheets      TechnicalSheetReader
	supervisors SupervisorVerifier
	txManager   tx.Manager
	audit       audit.Recorder
	events      events.Publisher
	tolerance   Tolerance
}

// ServiceConfig configures the operation service. Sheets, Audit and Events
// are optional.
type ServiceConfig struct {
	Repo        Repository
	Sheets      TechnicalSheetReader
	Supervisors SupervisorVerifier
	TxManager   tx.Manager
	Audit       audit.Recorder
	Events      events.Publisher
	Tolerance   Tolerance
}

// NewService creates a new operation service.
func NewService(cfg ServiceConfig) *Service {
	tol := cfg.Tolerance
	if tol.RootPct <= 0 {
		tol.RootPct = DefaultRootTolerancePct
	}
	if tol.IntermediatePct <= 0 {
		tol.IntermediatePct = DefaultIntermediateTolerancePct
	}
	return &Service{
		repo:        cfg.Repo,
		sheets:      cfg.Sheets,
		supervisors: cfg.Supervisors,
		txManager:   cfg.TxManager,
		audit:       cfg.Audit,
		events:      cfg.Events,
		tolerance:   tol,
	}
}

// Tolerance returns the tolerance the service evaluates with.
func (s *Service) Tolerance() Tolerance {
	return s.tolerance
}

// ListForMachine returns the machine's operations annotated with their status,
// ordered by batch start.
func (s *Service) ListForMachine(ctx context.Context, machineID string) ([]ListItem, error) {
	machineID = strings.TrimSpace(machineID)
	if machineID == "" {
		return nil, apperror.NewValidation("maquinaId is required")
	}

	ops, err := s.repo.ListByMachine(ctx, machineID)
	if err != nil {
		return nil, fmt.Errorf("list operations of %s: %w", machineID, err)
	}

	items := make([]ListItem, 0, len(ops))
	for _, op := range ops {
		ev, err := s.evaluate(ctx, op)
		if err != nil {
			return nil, err
		}
		items = append(items, ListItem{
			Operation:            op,
			Status:               ev.status,
			Icon:                 ev.status.Icon(),
			Predecessor:          ev.predecessor,
			MultiOperationNumber: ev.group,
			Family:               op.Family(),
			Thickness:            op.Thickness(),
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].BatchStartTime().Before(items[j].BatchStartTime())
	})
	return items, nil
}

type evaluation struct {
	status      Status
	predecessor PredecessorState
	group       *int64
}

func (s *Service) evaluate(ctx context.Context, op Operation) (evaluation, error) {
	predecessor, err := s.repo.PredecessorState(ctx, op.OriginLotID)
	if err != nil {
		return evaluation{}, fmt.Errorf("predecessor of %s: %w", op.OperationID, err)
	}
	verdict, err := s.repo.QualityVerdict(ctx, op.OperationID)
	if err != nil {
		return evaluation{}, fmt.Errorf("quality verdict of %s: %w", op.OperationID, err)
	}
	group, err := s.repo.GroupNumber(ctx, op.OperationID)
	if err != nil {
		return evaluation{}, fmt.Errorf("group of %s: %w", op.OperationID, err)
	}
	return evaluation{
		status:      Evaluate(op.Facts(predecessor, verdict), s.tolerance),
		predecessor: predecessor,
		group:       group,
	}, nil
}

// Detail builds the header, grouped lines and balance of one operation.
func (s *Service) Detail(ctx context.Context, operationID string) (*Detail, error) {
	opID, err := strictOperationID(operationID)
	if err != nil {
		return nil, err
	}

	op, err := s.repo.GetOperation(ctx, opID)
	if err != nil {
		return nil, err
	}
	ev, err := s.evaluate(ctx, *op)
	if err != nil {
		return nil, err
	}
	members, err := s.members(ctx, opID, ev.group)
	if err != nil {
		return nil, err
	}

	registered, err := s.repo.RegistrationLines(ctx, members)
	if err != nil {
		return nil, fmt.Errorf("registration lines: %w", err)
	}
	lines, err := s.detailLines(ctx, members, registered)
	if err != nil {
		return nil, err
	}
	incoming, err := s.repo.IncomingKg(ctx, []string{opID})
	if err != nil {
		return nil, fmt.Errorf("incoming kilograms: %w", err)
	}

	header := Header{
		Clients:              op.Clients,
		SeriesLot:            op.SeriesLot(),
		Matching:             op.MatchingNumber,
		Batch:                op.BatchNumber,
		ProgrammedScrapKg:    op.ProgrammedScrapKg,
		Knives:               op.Knives,
		Passes:               op.Passes,
		Diameter:             op.Diameter,
		Crown:                op.Crown,
		Stock:                op.Stock,
		ProgrammedKg:         op.ProgrammedKg,
		BundleCount:          op.PackageCount,
		RollCount:            op.RollCount,
		Width:                op.TotalWidth,
		Status:               ev.status,
		Icon:                 ev.status.Icon(),
		Predecessor:          ev.predecessor,
		Machine:              op.Machine,
		LotID:                op.OriginLotID,
		MultiOperationNumber: ev.group,
	}
	if s.sheets != nil {
		sheet, err := s.sheets.TechnicalSheet(ctx, op.OriginLotID)
		if err != nil {
			// The ERP database is a read-only convenience; the detail is still usable without it.
			logger.Warn(ctx, "technical sheet unavailable", "operation_id", opID, "lot_id", op.OriginLotID, "error", err)
		} else {
			header.TechnicalSheet = sheet
		}
	}

	return &Detail{
		Header:  header,
		Lines:   lines,
		Balance: balance.Calculate(incoming, op.ProgrammedKg, registered),
	}, nil
}

// members returns the operation and its multi-operation siblings.
func (s *Service) members(ctx context.Context, opID string, group *int64) ([]string, error) {
	if group == nil {
		return []string{opID}, nil
	}
	ids, err := s.repo.GroupMembers(ctx, *group)
	if err != nil {
		return nil, fmt.Errorf("members of group %d: %w", *group, err)
	}
	if !slices.Contains(ids, opID) {
		ids = append([]string{opID}, ids...)
	}
	return ids, nil
}

type lineKey struct {
	operationID string
	lotID       string
}

// detailLines joins every cut line of the group with its normal registration
// and sums lines that share width, knives, task and destination.
func (s *Service) detailLines(ctx context.Context, members []string, registered []weighing.RegistrationLine) ([]DetailLine, error) {
	saved := make(map[lineKey]weighing.RegistrationLine)
	for _, l := range registered {
		if l.Code == weighing.CodeNormal {
			saved[lineKey{l.OperationID, strings.ToLower(l.LotID)}] = l
		}
	}

	grouped := make(map[string]int)
	var out []DetailLine
	for _, opID := range members {
		cuts, err := s.repo.CutLines(ctx, opID)
		if err != nil {
			return nil, fmt.Errorf("cut lines of %s: %w", opID, err)
		}
		for _, cut := range cuts {
			lot := id.Lenient(cut.LotID)
			reg := saved[lineKey{opID, strings.ToLower(lot)}]
			line := DetailLine{
				LotID:          lot,
				Width:          strconv.FormatFloat(cut.Width, 'f', 0, 64),
				Knives:         cut.Knives,
				Task:           cut.Task,
				Destination:    cut.Destination,
				Packages:       cut.Packages,
				Rolls:          cut.Rolls,
				ProgrammedKg:   cut.ProgrammedKg,
				OverOrderKg:    reg.OverOrderKg,
				QualityKg:      reg.QualityKg,
				WeighedBundles: reg.Bundles,
				WeighedRolls:   reg.Rolls,
			}

			key := strings.Join([]string{line.Width, line.Knives, line.Task, line.Destination}, "-")
			if i, ok := grouped[key]; ok {
				out[i].ProgrammedKg += line.ProgrammedKg
				out[i].OverOrderKg += line.OverOrderKg
				out[i].QualityKg += line.QualityKg
				out[i].WeighedBundles += line.WeighedBundles
				out[i].WeighedRolls += line.WeighedRolls
				continue
			}
			grouped[key] = len(out)
			out = append(out, line)
		}
	}
	if out == nil {
		out = []DetailLine{}
	}
	return out, nil
}

// SetSuspended toggles the suspended flag of an operation, or of every
// operation in its multi-operation group, after a supervisor check.
func (s *Service) SetSuspended(ctx context.Context, req SuspendRequest) (*SuspendResult, error) {
	opID, err := strictOperationID(req.OperationID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return nil, apperror.NewValidation("username and password are required")
	}
	if err := s.supervisors.VerifySupervisor(ctx, req.Username, req.Password); err != nil {
		return nil, err
	}

	result := &SuspendResult{Suspended: req.Suspend}
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetOperation(ctx, opID); err != nil {
			return err
		}
		group, err := s.repo.GroupNumber(ctx, opID)
		if err != nil {
			return fmt.Errorf("group of %s: %w", opID, err)
		}
		ids, err := s.members(ctx, opID, group)
		if err != nil {
			return err
		}
		if err := s.repo.SetSuspended(ctx, ids, req.Suspend); err != nil {
			return fmt.Errorf("set suspended: %w", err)
		}
		result.OperationIDs = ids

		action := audit.ActionResume
		if req.Suspend {
			action = audit.ActionSuspend
		}
		return s.journal(ctx, opID, action, events.TypeOperationSuspension, map[string]any{
			"operaciones": ids,
			"suspendida":  req.Suspend,
			"supervisor":  req.Username,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "operation suspension changed",
		"operation_id", opID,
		"suspended", req.Suspend,
		"affected", len(result.OperationIDs),
		"supervisor", req.Username,
	)
	return result, nil
}

// ProcessOperations opens the given operations as one new multi-operation
// group and returns the group number.
func (s *Service) ProcessOperations(ctx context.Context, reqs []OpenRequest) (int64, error) {
	if len(reqs) == 0 {
		return 0, apperror.NewValidation("At least one operation is required")
	}
	ids := make([]string, len(reqs))
	for i, r := range reqs {
		opID, err := strictOperationID(r.OperationID)
		if err != nil {
			return 0, err
		}
		ids[i] = opID
	}

	var number int64
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		last, err := s.repo.LastGroupNumber(ctx)
		if err != nil {
			return fmt.Errorf("last group number: %w", err)
		}
		number = last + 1

		for i, r := range reqs {
			if err := s.repo.AddToGroup(ctx, ids[i], number); err != nil {
				return fmt.Errorf("add %s to group %d: %w", ids[i], number, err)
			}
			if err := s.repo.Open(ctx, ids[i], r.BatchNumber); err != nil {
				return fmt.Errorf("open %s: %w", ids[i], err)
			}
		}
		return s.journal(ctx, ids[0], audit.ActionOpen, events.TypeMultiOperationProcessed, map[string]any{
			"numeroMultiOperacion": number,
			"operaciones":          ids,
		})
	})
	if err != nil {
		return 0, err
	}

	logger.Info(ctx, "operations processed", "group", number, "operations", len(ids))
	return number, nil
}

func (s *Service) journal(ctx context.Context, operationID, action, eventType string, payload map[string]any) error {
	if s.audit != nil {
		if err := s.audit.Record(ctx, audit.Entry{
			EntityType: "operation",
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

func strictOperationID(raw string) (string, error) {
	opID, ok := id.Strict(raw)
	if !ok {
		return "", apperror.NewValidationCode(apperror.CodeInvalidOperationID, "operacionId is not a valid identifier").
			WithDetail("operacionId", raw)
	}
	return opID, nil
}
