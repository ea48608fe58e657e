package operation

import (
	"registracion/internal/core/types"
)

// Status is the derived lifecycle state shown on the floor.
type Status string

const (
	StatusBlocked           Status = "BLOCKED"
	StatusSuspended         Status = "SUSPENDED"
	StatusInQuality         Status = "IN_QUALITY"
	StatusQualityRuled      Status = "QUALITY_RULED"
	StatusInProgress        Status = "IN_PROGRESS"
	StatusToleranceExceeded Status = "TOLERANCE_EXCEEDED"
	StatusReady             Status = "READY"
)

var statusIcons = map[Status]string{
	StatusBlocked:           "rojo-fondo",
	StatusSuspended:         "blanco-fondo",
	StatusInQuality:         "rojo-icono",
	StatusQualityRuled:      "verde-tilde-icono",
	StatusInProgress:        "gris-fondo",
	StatusToleranceExceeded: "amarillo-fondo",
	StatusReady:             "verde-fondo",
}

// Icon returns the display hint (caliIcon) for the status.
func (s Status) Icon() string {
	return statusIcons[s]
}

// PredecessorState describes the operation that produced this one's input lot.
type PredecessorState string

const (
	PredecessorOK      PredecessorState = "OK"
	PredecessorPending PredecessorState = "PENDING"
	// PredecessorRoot means there is no previous operation: the operation is
	// the root of its production chain.
	PredecessorRoot PredecessorState = "OK-ROOT"
)

// QualityVerdict is the latest quality-inspection outcome.
type QualityVerdict int

const (
	VerdictNone QualityVerdict = iota
	VerdictPending
	VerdictAccepted
	VerdictRejected
)

// Facts are the inputs of the status engine.
type Facts struct {
	Supplied    bool
	Stock       types.Kilograms
	Weighed     types.Kilograms
	Predecessor PredecessorState
	Suspended   bool
	Open        bool
	Quality     QualityVerdict
}

// Tolerance holds the allowed deviation between stock and weighed kilograms.
type Tolerance struct {
	RootPct         float64
	IntermediatePct float64
}

// Default tolerance percentages. Intermediate operations have been run with
// both 1% and 2%; 1% is the default until the plant confirms which applies.
const (
	DefaultRootTolerancePct         = 0.05
	DefaultIntermediateTolerancePct = 0.01
)

// minMargin is the smallest tolerance margin regardless of percentage.
const minMargin = types.Kilograms(types.KilogramScale)

// DefaultTolerance returns the default tolerance percentages.
func DefaultTolerance() Tolerance {
	return Tolerance{RootPct: DefaultRootTolerancePct, IntermediatePct: DefaultIntermediateTolerancePct}
}

// Margin returns max(stock * pct, 1 kg) for the given predecessor state.
func (t Tolerance) Margin(stock types.Kilograms, predecessor PredecessorState) types.Kilograms {
	pct := t.IntermediatePct
	if predecessor == PredecessorRoot {
		pct = t.RootPct
	}
	return stock.MulFraction(pct).Max(minMargin)
}

// Exceeded reports whether the weighed quantity falls outside stock ± margin.
// It only applies once both quantities are positive.
func (t Tolerance) Exceeded(f Facts) bool {
	if !f.Weighed.IsPositive() || !f.Stock.IsPositive() {
		return false
	}
	margin := t.Margin(f.Stock, f.Predecessor)
	return f.Weighed > f.Stock+margin || f.Weighed < f.Stock-margin
}

// Evaluate maps operation facts to a status. The first matching rule wins.
func Evaluate(f Facts, tol Tolerance) Status {
	switch {
	case !f.Stock.IsPositive() || !f.Supplied || f.Predecessor == PredecessorPending:
		return StatusBlocked
	case f.Suspended:
		return StatusSuspended
	case f.Open && f.Quality == VerdictPending:
		return StatusInQuality
	case f.Open && (f.Quality == VerdictAccepted || f.Quality == VerdictRejected):
		return StatusQualityRuled
	case f.Open:
		return StatusInProgress
	case tol.Exceeded(f):
		return StatusToleranceExceeded
	default:
		return StatusReady
	}
}

// PredecessorFromEstado maps the previous operation's Estado column.
// found is false when the origin lot has no previous operation.
func PredecessorFromEstado(found bool, estado string) PredecessorState {
	switch {
	case !found:
		return PredecessorRoot
	case estado == estadoClosed:
		return PredecessorOK
	default:
		return PredecessorPending
	}
}

// VerdictFromDictamen maps the quality record's Dictamen column.
func VerdictFromDictamen(dictamen *int) QualityVerdict {
	if dictamen == nil {
		return VerdictNone
	}
	switch *dictamen {
	case 0:
		return VerdictPending
	case 1:
		return VerdictAccepted
	case 2:
		return VerdictRejected
	default:
		return VerdictNone
	}
}
