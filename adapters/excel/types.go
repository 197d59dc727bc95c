package excel

import (
	"fmt"

	"decisionsim/domain/aspect"
	"decisionsim/domain/session"
)

// Table is a header row plus data rows. Cells keep their Go type so
// numbers land in spreadsheets as numbers.
type Table struct {
	Headers []string
	Rows    [][]interface{}
}

// Sheet is a named table inside a workbook
type Sheet struct {
	Name  string
	Table Table
}

// SummaryTable lays a summary out as field/value pairs
func SummaryTable(set aspect.Set, s session.Summary) Table {
	t := Table{Headers: []string{"Campo", "Valor"}}
	add := func(field string, value interface{}) {
		t.Rows = append(t.Rows, []interface{}{field, value})
	}

	add("Sessão", s.SessionID.String())
	add("Conjunto", s.SetName)
	add("Concluída em", s.FinishedAt.String())
	for _, def := range set.Definitions() {
		add(def.Label, s.Score[def.Key])
	}
	add("Média", s.Average)
	add("Média arredondada", s.Rounded)
	add("Perfil", s.Band)
	add("Risco", s.Risk)
	for i, rec := range s.Recommendations {
		add(fmt.Sprintf("Recomendação %d", i+1), rec)
	}
	return t
}

// TrailTable lays out the decision trail with one delta column per aspect
func TrailTable(set aspect.Set, trail []session.Entry) Table {
	headers := []string{"#", "Etapa", "Título", "Tipo", "Escolha", "Impacto"}
	for _, def := range set.Definitions() {
		headers = append(headers, "Δ "+def.Label)
	}
	headers = append(headers, "Justificativa", "Respondida em")

	t := Table{Headers: headers}
	for _, e := range trail {
		row := []interface{}{e.Ordinal, e.StageID, e.Title, string(e.Kind), e.Choice, e.Effect.Format(set)}
		for _, key := range set.Keys() {
			row = append(row, e.Effect[key])
		}
		row = append(row, e.Justification, e.AnsweredAt.String())
		t.Rows = append(t.Rows, row)
	}
	return t
}

// HistoryTable lists completed sessions, one per row
func HistoryTable(set aspect.Set, history []session.Summary) Table {
	headers := []string{"Sessão", "Conjunto", "Concluída em"}
	for _, def := range set.Definitions() {
		headers = append(headers, def.Label)
	}
	headers = append(headers, "Média", "Perfil", "Risco")

	t := Table{Headers: headers}
	for _, s := range history {
		row := []interface{}{s.SessionID.String(), s.SetName, s.FinishedAt.String()}
		for _, key := range set.Keys() {
			row = append(row, s.Score[key])
		}
		row = append(row, s.Average, s.Band, s.Risk)
		t.Rows = append(t.Rows, row)
	}
	return t
}
