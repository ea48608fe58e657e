// Package balance reconciles registered kilograms against what entered an operation.
package balance

import (
	"registracion/internal/core/types"
	"registracion/internal/domain/weighing"
)

// Balance is the kilogram reconciliation of an operation (and its
// multi-operation siblings).
type Balance struct {
	IncomingKg          types.Kilograms `json:"kgsEntrantes"`
	ProgrammedKg        types.Kilograms `json:"programados"`
	OverOrderKg         types.Kilograms `json:"sobreOrden"`
	QualityKg           types.Kilograms `json:"calidad"`
	SurplusKg           types.Kilograms `json:"sobrante"`
	ScrapKg             types.Kilograms `json:"scrap"`
	ScrapSerializedKg   types.Kilograms `json:"scrapSeriado"`
	ScrapUnserializedKg types.Kilograms `json:"scrapNoSeriado"`
	RemainingKg         types.Kilograms `json:"saldo"`
}

// Calculate partitions lines into exactly one bucket each and derives the
// remaining kilograms. Surplus lines contribute their over-order kilograms
// only; scrap lines contribute both over-order and quality kilograms.
func Calculate(incoming, programmed types.Kilograms, lines []weighing.RegistrationLine) Balance {
	b := Balance{IncomingKg: incoming, ProgrammedKg: programmed}

	for _, line := range lines {
		switch line.Kind() {
		case weighing.KindSurplus:
			b.SurplusKg += line.OverOrderKg
		case weighing.KindScrapSerialized:
			b.ScrapSerializedKg += line.OverOrderKg + line.QualityKg
		case weighing.KindScrapUnserialized:
			b.ScrapUnserializedKg += line.OverOrderKg + line.QualityKg
		default:
			b.OverOrderKg += line.OverOrderKg
			b.QualityKg += line.QualityKg
		}
	}

	b.ScrapKg = b.ScrapSerializedKg + b.ScrapUnserializedKg
	b.RemainingKg = b.IncomingKg - b.OverOrderKg - b.QualityKg - b.SurplusKg - b.ScrapKg
	return b
}
