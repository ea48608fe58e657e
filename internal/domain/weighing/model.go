// Package weighing records weighed bundles against production operations.
//
// Register is the only state-changing workflow of the registration core. It
// validates bundles up front, then in one transaction re-checks the operation,
// resolves the destination lot for the registration kind, replaces any bundles
// of an earlier registration with the same key, and upserts the aggregate line.
package weighing

import (
	"strings"

	"registracion/internal/core/types"
)

// Bundle is one physical weighed unit ("atado").
type Bundle struct {
	Number      int             `db:"atado" json:"atado"`
	Rolls       int             `db:"rollos" json:"rollos"`
	Weight      types.Kilograms `db:"peso" json:"peso"`
	Quality     bool            `db:"calidad" json:"esCalidad"`
	Label       int64           `db:"etiqueta" json:"nroEtiqueta"`
	Destination string          `db:"destino_lote" json:"destinoLote,omitempty"`
}

// StoredBundle is a bundle row as read back from the store.
type StoredBundle struct {
	Bundle
	RegistrationID int64 `db:"id_registro_pesaje" json:"idRegistroPesaje"`
}

// Key identifies a registration line. LotID is empty for surplus lines
// registered without a lot (NULL in the store).
type Key struct {
	OperationID string
	LotID       string
	Code        int
}

// RegistrationLine is the aggregate row per (operation, lot, kind code).
type RegistrationLine struct {
	OperationID    string          `db:"operacion_id" json:"operacionId"`
	LotID          string          `db:"lote_ids" json:"loteIds"`
	Code           int             `db:"sobrante" json:"sobrante"`
	OverOrderKg    types.Kilograms `db:"kilos_sobreorden" json:"kilosSobreOrden"`
	QualityKg      types.Kilograms `db:"kilos_calidad" json:"kilosCalidad"`
	Bundles        int             `db:"atados" json:"atados"`
	Rolls          int             `db:"rollos" json:"rollos"`
	DestinationLot string          `db:"destino_lote" json:"destinoLote"`
	Description    string          `db:"descripcion" json:"descripcion"`
}

// Key returns the identity of the line.
func (l RegistrationLine) Key() Key {
	return Key{OperationID: l.OperationID, LotID: l.LotID, Code: l.Code}
}

// Kind recovers the registration variant of a stored line.
func (l RegistrationLine) Kind() Kind {
	return KindOfLine(l.Code, l.LotID)
}

// ScrapLot is an entry of the serialized scrap pool.
type ScrapLot struct {
	LotID       string `db:"lote_ids"`
	Destination string `db:"destino_lote"`
}

// OperationState is the subset of operation facts the orchestrator re-checks
// inside its transaction.
type OperationState struct {
	OperationID string `db:"operacion_id"`
	Estado      string `db:"estado"`
	SeriesCode  string `db:"cod_serie"`
}

// estadoClosed is the store value of a finished operation.
const estadoClosed = "2"

// Closed reports whether the operation no longer accepts registrations.
func (s OperationState) Closed() bool {
	return strings.TrimSpace(s.Estado) == estadoClosed
}

// LineContext carries the caller-supplied attributes of the line being weighed.
type LineContext struct {
	SeriesCode  string
	LotID       string
	Destination string
	Description string
}

// Request is the input of Register.
type Request struct {
	OperationID      string
	DestinationLotID string
	Kind             Kind
	Bundles          []Bundle
	Line             LineContext
}

// Result echoes what was stored.
type Result struct {
	OperationID    string          `json:"operacionId"`
	LotID          string          `json:"loteIds"`
	Destination    string          `json:"destinoLote"`
	OverOrderTotal types.Kilograms `json:"sobreOrdenTotal"`
	QualityTotal   types.Kilograms `json:"calidadTotal"`
	TotalBundles   int             `json:"totalAtados"`
	TotalRolls     int             `json:"totalRollos"`
	Bundles        []Bundle        `json:"atados"`
	Modified       bool            `json:"modificacion"`
}

func isSentinelLot(lotID string) bool {
	return strings.EqualFold(lotID, UnserializedScrapLot)
}
