package dashboard

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"epidash/internal/model"
)

// Export formats and tables.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"

	TableMap     = "map"
	TableSeries  = "series"
	TableRanking = "ranking"
)

// ExportView writes one table of view as CSV, or the whole view as JSON.
// It returns the number of data rows written.
func ExportView(w io.Writer, view model.View, format, table string) (int, error) {
	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return 1, enc.Encode(view)
	case FormatCSV:
		return exportCSV(w, view, table)
	default:
		return 0, fmt.Errorf("unknown export format %q", format)
	}
}

func exportCSV(w io.Writer, view model.View, table string) (int, error) {
	writer := csv.NewWriter(w)
	var header []string
	var rows [][]string

	switch table {
	case TableMap, "":
		header = []string{"key", "value", "color"}
		keys := make([]string, 0, len(view.Map))
		for k := range view.Map {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v := view.Map[k]
			rows = append(rows, []string{k, formatFloat(v), Color(view.Scale, v, true)})
		}
	case TableSeries:
		header = []string{"period", "total"}
		for _, p := range view.Series {
			rows = append(rows, []string{strconv.Itoa(p.Period), formatFloat(p.Total)})
		}
	case TableRanking:
		header = []string{"rank", "name", "value", "capacity", "ratio"}
		for i, e := range view.Ranking {
			rows = append(rows, []string{strconv.Itoa(i + 1), e.Name, formatFloat(e.Value), formatFloat(e.Capacity), formatFloat(e.Ratio)})
		}
	default:
		return 0, fmt.Errorf("unknown export table %q", table)
	}

	if err := writer.Write(header); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}
	if err := writer.WriteAll(rows); err != nil {
		return 0, fmt.Errorf("failed to write rows: %w", err)
	}
	return len(rows), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
