package balance

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"registracion/internal/core/types"
	"registracion/internal/domain/weighing"
)

func kg(v float64) types.Kilograms { return types.NewKilograms(v) }

func TestCalculate_NoLines(t *testing.T) {
	b := Calculate(kg(1200), kg(1180), nil)
	assert.Equal(t, kg(1200), b.RemainingKg)
	assert.Equal(t, kg(1180), b.ProgrammedKg)
	assert.Zero(t, b.OverOrderKg)
	assert.Zero(t, b.ScrapKg)
}

func TestCalculate_PartitionsLines(t *testing.T) {
	lines := []weighing.RegistrationLine{
		{Code: weighing.CodeNormal, LotID: "l1", OverOrderKg: kg(500), QualityKg: kg(20)},
		{Code: weighing.CodeNormal, LotID: "l2", OverOrderKg: kg(300.5)},
		{Code: weighing.CodeSurplus, OverOrderKg: kg(40), QualityKg: kg(2)},
		{Code: weighing.CodeScrap, LotID: "pool-1", OverOrderKg: kg(12), QualityKg: kg(3)},
		{Code: weighing.CodeScrap, LotID: weighing.UnserializedScrapLot, OverOrderKg: kg(7.25)},
	}

	b := Calculate(kg(1000), kg(950), lines)

	assert.Equal(t, kg(800.5), b.OverOrderKg)
	assert.Equal(t, kg(20), b.QualityKg)
	assert.Equal(t, kg(40), b.SurplusKg)
	assert.Equal(t, kg(15), b.ScrapSerializedKg)
	assert.Equal(t, kg(7.25), b.ScrapUnserializedKg)
	assert.Equal(t, kg(22.25), b.ScrapKg)
	assert.Equal(t, kg(117.25), b.RemainingKg)
}

func TestCalculate_ConservationHoldsExactly(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	codes := []int{weighing.CodeNormal, weighing.CodeSurplus, weighing.CodeScrap}

	for i := 0; i < 200; i++ {
		n := rng.Intn(12)
		lines := make([]weighing.RegistrationLine, n)
		for j := range lines {
			lot := "lot"
			if rng.Intn(2) == 0 {
				lot = weighing.UnserializedScrapLot
			}
			lines[j] = weighing.RegistrationLine{
				Code:        codes[rng.Intn(len(codes))],
				LotID:       lot,
				OverOrderKg: types.Kilograms(rng.Int63n(5_000_000)),
				QualityKg:   types.Kilograms(rng.Int63n(500_000)),
			}
		}
		incoming := types.Kilograms(rng.Int63n(50_000_000))

		b := Calculate(incoming, 0, lines)
		assert.Equal(t, b.IncomingKg-b.OverOrderKg-b.QualityKg-b.SurplusKg-b.ScrapKg, b.RemainingKg)
		assert.Equal(t, b.ScrapSerializedKg+b.ScrapUnserializedKg, b.ScrapKg)
	}
}
