package excel

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"decisionsim/domain/aspect"
	"decisionsim/domain/core"
	"decisionsim/domain/session"
	"decisionsim/domain/stage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var testAspects = aspect.MustNewSet(
	aspect.Definition{Key: "pessoas", Label: "Pessoas"},
	aspect.Definition{Key: "atitudes", Label: "Atitudes"},
	aspect.Definition{Key: "negocio", Label: "Negócio"},
)

func testSummary() session.Summary {
	at := core.NewTimestamp(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
	return session.Summary{
		SessionID:       core.NewSessionID(),
		SetName:         "acao",
		FinishedAt:      at,
		Score:           aspect.Score{"pessoas": 76, "atitudes": 74, "negocio": 78},
		Average:         76,
		Rounded:         76,
		Band:            "Gestor Consistente",
		Risk:            "Médio",
		Recommendations: []string{"AAR de 15 minutos pós-parada para captura de lições aprendidas"},
		Trail: []session.Entry{{
			Ordinal: 1, StageID: 1, Title: "Parada", Kind: stage.KindChoice, Choice: "Reunir a equipe",
			Effect: aspect.Effect{"pessoas": 6, "negocio": -2}, AnsweredAt: at,
		}},
	}
}

func TestTrailTableColumns(t *testing.T) {
	table := TrailTable(testAspects, testSummary().Trail)

	assert.Equal(t, []string{"#", "Etapa", "Título", "Tipo", "Escolha", "Impacto",
		"Δ Pessoas", "Δ Atitudes", "Δ Negócio", "Justificativa", "Respondida em"}, table.Headers)
	require.Len(t, table.Rows, 1)
	row := table.Rows[0]
	assert.Equal(t, "Pessoas: +6, Negócio: -2", row[5])
	assert.Equal(t, 6, row[6])
	assert.Equal(t, 0, row[7])
	assert.Equal(t, -2, row[8])
}

func TestWriteXLSX(t *testing.T) {
	s := testSummary()
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf,
		Sheet{Name: "Resumo", Table: SummaryTable(testAspects, s)},
		Sheet{Name: "Trilha", Table: TrailTable(testAspects, s.Trail)},
	))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Resumo", "Trilha"}, f.GetSheetList())

	rows, err := f.GetRows("Resumo")
	require.NoError(t, err)
	assert.Equal(t, []string{"Campo", "Valor"}, rows[0])
	assert.Equal(t, []string{"Pessoas", "76"}, rows[4])

	title, err := f.GetCellValue("Trilha", "C2")
	require.NoError(t, err)
	assert.Equal(t, "Parada", title)
}

func TestWriteXLSXRequiresSheets(t *testing.T) {
	assert.Error(t, WriteXLSX(&bytes.Buffer{}))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, HistoryTable(testAspects, []session.Summary{testSummary()})))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Pessoas", records[0][3])
	assert.Equal(t, "76", records[1][3])
	assert.Equal(t, "Gestor Consistente", records[1][7])
}
