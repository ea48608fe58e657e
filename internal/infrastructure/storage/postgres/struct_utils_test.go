package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type LineKey struct {
	OperationID string `db:"operacion_id"`
	LotID       string `db:"lote_ids"`
}

type mockLine struct {
	LineKey
	Code    int    `db:"sobrante"`
	Bundles int    `db:"atados"`
	Note    string `db:"-"`
	hidden  string
}

func TestExtractDBColumns_EmbeddedFirst(t *testing.T) {
	cols := ExtractDBColumns[mockLine]()

	assert.Equal(t, []string{"operacion_id", "lote_ids", "sobrante", "atados"}, cols)
}

func TestStructToMap_SkipsUntaggedFields(t *testing.T) {
	line := mockLine{
		LineKey: LineKey{OperationID: "op", LotID: "lot"},
		Code:    2,
		Bundles: 7,
		Note:    "ignored",
		hidden:  "ignored",
	}

	m := StructToMap(&line)

	assert.Equal(t, map[string]any{
		"operacion_id": "op",
		"lote_ids":     "lot",
		"sobrante":     2,
		"atados":       7,
	}, m)
}

func TestStructToMap_NonStruct(t *testing.T) {
	assert.Nil(t, StructToMap(42))
}
