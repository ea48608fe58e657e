package dto

import (
	"registracion/internal/core/types"
	"registracion/internal/domain/weighing"
)

// BundleRequest is one weighed bundle as sent by the terminal.
type BundleRequest struct {
	Number  types.LooseInt  `json:"atado"`
	Rolls   types.LooseInt  `json:"rollos"`
	Weight  types.Kilograms `json:"peso"`
	Quality types.LooseBool `json:"esCalidad"`
	Label   types.LooseInt  `json:"nroEtiqueta"`
}

// LineDataRequest carries the attributes of the cut line being weighed.
type LineDataRequest struct {
	SeriesCode  types.LooseString `json:"codSerie"`
	LotID       types.LooseString `json:"loteIds"`
	Destination types.LooseString `json:"destinoLote"`
	Description types.LooseString `json:"descripcion"`
}

// RegisterRequest is the body of POST /pesaje/registrar and the per-kind routes.
type RegisterRequest struct {
	OperationID       types.LooseString `json:"operacionId" binding:"guid"`
	LotID             types.LooseString `json:"loteIds"`
	Code              types.LooseInt    `json:"sobrante"`
	UnserializedScrap types.LooseBool   `json:"scrapNoSeriado"`
	Bundles           []BundleRequest   `json:"atados"`
	LineData          LineDataRequest   `json:"lineaData"`
}

// Kind resolves the registration variant from sobrante and scrapNoSeriado.
func (r RegisterRequest) Kind() (weighing.Kind, error) {
	return weighing.KindFromCode(int(r.Code), bool(r.UnserializedScrap))
}

// ToDomain builds the orchestrator request for kind.
func (r RegisterRequest) ToDomain(kind weighing.Kind) weighing.Request {
	bundles := make([]weighing.Bundle, len(r.Bundles))
	for i, b := range r.Bundles {
		bundles[i] = weighing.Bundle{
			Number:  int(b.Number),
			Rolls:   int(b.Rolls),
			Weight:  b.Weight,
			Quality: bool(b.Quality),
			Label:   int64(b.Label),
		}
	}
	return weighing.Request{
		OperationID:      r.OperationID.String(),
		DestinationLotID: r.LotID.String(),
		Kind:             kind,
		Bundles:          bundles,
		Line: weighing.LineContext{
			SeriesCode:  r.LineData.SeriesCode.String(),
			LotID:       r.LineData.LotID.String(),
			Destination: r.LineData.Destination.String(),
			Description: r.LineData.Description.String(),
		},
	}
}

// RegisterResponse echoes the stored registration.
type RegisterResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	*weighing.Result
}

// LineRequest identifies one registration line (reset and bundle listing).
type LineRequest struct {
	OperationID       types.LooseString `json:"operacionId" binding:"guid"`
	LotID             types.LooseString `json:"loteIds"`
	Code              types.LooseInt    `json:"sobrante"`
	UnserializedScrap types.LooseBool   `json:"scrapNoSeriado"`
}

// ToDomain resolves the line key request.
func (r LineRequest) ToDomain() (weighing.ResetRequest, error) {
	kind, err := weighing.KindFromCode(int(r.Code), bool(r.UnserializedScrap))
	if err != nil {
		return weighing.ResetRequest{}, err
	}
	return weighing.ResetRequest{
		OperationID: r.OperationID.String(),
		LotID:       r.LotID.String(),
		Kind:        kind,
	}, nil
}

// OperationRequest carries only an operation id.
type OperationRequest struct {
	OperationID types.LooseString `json:"operacionId" binding:"guid"`
}

// LabelResponse returns a label counter value.
type LabelResponse struct {
	Label int64 `json:"nroEtiqueta"`
}
