// Package operation serves the operation list and detail views, the status
// engine behind them, suspension and multi-operation processing.
package operation

import (
	"strconv"
	"strings"
	"time"

	"registracion/internal/core/types"
	"registracion/internal/domain/balance"
)

// Store values of the Estado and Abastecida columns.
const (
	estadoOpen       = "1"
	estadoClosed     = "2"
	abastecidaFilled = "0"
)

// PackagingMachine uses its own listing procedure.
const PackagingMachine = "EMB"

// Operation is a production operation as returned by the machine listing.
type Operation struct {
	OperationID        string          `db:"operacion_id" json:"operacionId"`
	Machine            string          `db:"maquina" json:"maquina"`
	OriginLotID        string          `db:"origen_lote_id" json:"origenLoteId"`
	OriginLot          string          `db:"origen_lote" json:"origenLote"`
	SeriesCode         string          `db:"cod_serie" json:"codSerie"`
	ProductCode        string          `db:"codigo_producto" json:"codigoProducto"`
	Stock              types.Kilograms `db:"stock" json:"stock"`
	WeighedKg          types.Kilograms `db:"kilos_balanza" json:"kilosBalanza"`
	ProgrammedKg       types.Kilograms `db:"kilos_programados_entrantes" json:"kilosProgramadosEntrantes"`
	ProgrammedScrapKg  types.Kilograms `db:"kilos_merma" json:"kilosMerma"`
	Estado             string          `db:"estado" json:"estado"`
	Abastecida         string          `db:"abastecida" json:"abastecida"`
	Suspended          bool            `db:"suspendida" json:"suspendida"`
	Knives             string          `db:"operacion_cuchillas" json:"cuchillas"`
	TotalWidth         float64         `db:"operacion_total_ancho" json:"totalAncho"`
	BatchNumber        string          `db:"nro_batch" json:"nroBatch"`
	BatchStart         string          `db:"batch_fecha_inicio" json:"batchFechaInicio"`
	Clients            string          `db:"clientes" json:"clientes"`
	MatchingNumber     string          `db:"nro_matching" json:"nroMatching"`
	Passes             int             `db:"pasadas" json:"pasadas"`
	Diameter           float64         `db:"diametro" json:"diametro"`
	Crown              float64         `db:"corona" json:"corona"`
	PackageCount       int             `db:"cantidad_paquetes" json:"paquetes"`
	RollCount          int             `db:"cantidad_rollos" json:"rollos"`
}

// Open reports whether the operation is currently being processed.
func (o Operation) Open() bool { return strings.TrimSpace(o.Estado) == estadoOpen }

// Supplied reports whether input material has been delivered to the machine.
func (o Operation) Supplied() bool { return strings.TrimSpace(o.Abastecida) == abastecidaFilled }

// Facts builds the status-engine input from the stored row plus the two
// facts that come from other procedures.
func (o Operation) Facts(predecessor PredecessorState, quality QualityVerdict) Facts {
	return Facts{
		Supplied:    o.Supplied(),
		Stock:       o.Stock,
		Weighed:     o.WeighedKg,
		Predecessor: predecessor,
		Suspended:   o.Suspended,
		Open:        o.Open(),
		Quality:     quality,
	}
}

// Family is the material family encoded at positions 8..10 of the product code.
func (o Operation) Family() string {
	return substring(o.ProductCode, 8, 10)
}

// Thickness is positions 14..18 of the product code in thousandths of a
// millimetre, formatted with three decimals.
func (o Operation) Thickness() string {
	raw := substring(o.ProductCode, 14, 18)
	if raw == "" {
		return ""
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return ""
	}
	return strconv.FormatFloat(v/1000, 'f', 3, 64)
}

// SeriesLot keeps the first two " - " separated parts of the origin lot label.
func (o Operation) SeriesLot() string {
	parts := strings.Split(o.OriginLot, " - ")
	if len(parts) > 2 {
		parts = parts[:2]
	}
	return strings.Join(parts, " - ")
}

// batchStartLayout is the format of batch_fecha_inicio (yyyyMMddHHmm).
const batchStartLayout = "200601021504"

// BatchStartTime parses the batch start; missing or malformed values sort first.
func (o Operation) BatchStartTime() time.Time {
	t, err := time.Parse(batchStartLayout, strings.TrimSpace(o.BatchStart))
	if err != nil {
		return time.Time{}
	}
	return t
}

func substring(s string, from, to int) string {
	if len(s) < to {
		return ""
	}
	return s[from:to]
}

// ListItem is one annotated row of the machine listing.
type ListItem struct {
	Operation
	Status               Status           `json:"status"`
	Icon                 string           `json:"caliIcon"`
	Predecessor          PredecessorState `json:"opAnterior"`
	MultiOperationNumber *int64           `json:"numeroMultiOperacion"`
	Family               string           `json:"familia"`
	Thickness            string           `json:"espesor"`
}

// TechnicalSheet is the optional ERP summary of the origin lot.
type TechnicalSheet struct {
	Family       string `db:"material" json:"familia"`
	Alloy        string `db:"aleacion" json:"aleacion"`
	Temper       string `db:"temple" json:"temple"`
	Thickness    string `db:"espesor" json:"espesor"`
	Origin       string `db:"propio_tercero" json:"paisOrigen"`
	Coating      string `db:"cobertura" json:"recubrimiento"`
	QualityGrade string `db:"calidad" json:"calidad"`
}

// Header is the top block of the detail view.
type Header struct {
	Clients              string           `json:"clientes"`
	SeriesLot            string           `json:"serieLote"`
	Matching             string           `json:"matching"`
	Batch                string           `json:"batch"`
	ProgrammedScrapKg    types.Kilograms  `json:"scrapProgramado"`
	Knives               string           `json:"cuchillas"`
	Passes               int              `json:"pasadas"`
	Diameter             float64          `json:"diametro"`
	Crown                float64          `json:"corona"`
	Stock                types.Kilograms  `json:"stock"`
	ProgrammedKg         types.Kilograms  `json:"kgsProgramados"`
	BundleCount          int              `json:"cantAtados"`
	RollCount            int              `json:"cantRollos"`
	Width                float64          `json:"ancho"`
	Status               Status           `json:"status"`
	Icon                 string           `json:"caliIcon"`
	Predecessor          PredecessorState `json:"opAnterior"`
	Machine              string           `json:"maquinaId"`
	LotID                string           `json:"loteId"`
	MultiOperationNumber *int64           `json:"numeroMultiOperacion"`
	TechnicalSheet       *TechnicalSheet  `json:"fichaTecnica,omitempty"`
}

// CutLine is one planned cut of an operation (SP_TraerOperacionesARegistrar).
type CutLine struct {
	OperationID  string          `db:"operacion_id"`
	LotID        string          `db:"lote_ids"`
	Width        float64         `db:"total_ancho"`
	Knives       string          `db:"operacion_cuchillas"`
	Task         string          `db:"tarea_destino"`
	Destination  string          `db:"destino_lote"`
	Packages     int             `db:"cantidad_paquetes"`
	Rolls        int             `db:"cantidad_rollos"`
	ProgrammedKg types.Kilograms `db:"kilos_programados"`
}

// DetailLine is a cut line joined with its normal registration, grouped by
// width, knives, task and destination.
type DetailLine struct {
	LotID          string          `json:"loteIds"`
	Width          string          `json:"ancho"`
	Knives         string          `json:"cuchillas"`
	Task           string          `json:"tarea"`
	Destination    string          `json:"destino"`
	Packages       int             `json:"atados"`
	Rolls          int             `json:"rollos"`
	ProgrammedKg   types.Kilograms `json:"programados"`
	OverOrderKg    types.Kilograms `json:"sobreOrden"`
	QualityKg      types.Kilograms `json:"calidad"`
	WeighedBundles int             `json:"totAtados"`
	WeighedRolls   int             `json:"totRollos"`
}

// Detail is the full detail view of one operation.
type Detail struct {
	Header  Header          `json:"header"`
	Lines   []DetailLine    `json:"lineas"`
	Balance balance.Balance `json:"balance"`
}

// SuspendRequest toggles suspension after a supervisor check.
type SuspendRequest struct {
	OperationID string
	Username    string
	Password    string
	Suspend     bool
}

// SuspendResult lists the operations whose flag was changed.
type SuspendResult struct {
	OperationIDs []string `json:"operaciones"`
	Suspended    bool     `json:"suspendida"`
}

// OpenRequest opens one operation as part of a multi-operation group.
type OpenRequest struct {
	OperationID string
	BatchNumber string
}
