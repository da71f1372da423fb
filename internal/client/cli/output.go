package cli

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"
)

// preferredColumns выводятся первыми, если присутствуют в данных
var preferredColumns = []string{"id", "name", "email", "symbol", "exchange", "status", "type", "side"}

// hiddenColumns не выводятся в таблицах
var hiddenColumns = []string{"password", "passwordHash", "password_hash", "apiSecret", "api_secret", "secret"}

// writeTable выводит записи коллекции таблицей: столбцы - объединение ключей всех записей
func writeTable(w io.Writer, rows []map[string]any) error {
	columns := tableColumns(rows)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	header := make([]string, len(columns))
	for i, col := range columns {
		header[i] = strings.ToUpper(col)
	}
	if _, err := fmt.Fprintln(tw, strings.Join(header, "\t")); err != nil {
		return err
	}

	for _, row := range rows {
		cells := make([]string, len(columns))
		for i, col := range columns {
			cells[i] = formatCell(row[col])
		}
		if _, err := fmt.Fprintln(tw, strings.Join(cells, "\t")); err != nil {
			return err
		}
	}

	return tw.Flush()
}

func tableColumns(rows []map[string]any) []string {
	seen := make(map[string]struct{})
	var rest []string
	for _, row := range rows {
		for key, v := range row {
			if _, ok := seen[key]; ok || slices.Contains(hiddenColumns, key) {
				continue
			}
			// вложенные объекты и массивы в таблицу не помещаются
			switch v.(type) {
			case map[string]any, []any:
				continue
			}
			seen[key] = struct{}{}
			if !slices.Contains(preferredColumns, key) {
				rest = append(rest, key)
			}
		}
	}
	slices.Sort(rest)

	columns := make([]string, 0, len(seen))
	for _, col := range preferredColumns {
		if _, ok := seen[col]; ok {
			columns = append(columns, col)
		}
	}
	return append(columns, rest...)
}

func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return "-"
	case string:
		if ts, err := time.Parse(time.RFC3339Nano, val); err == nil {
			return ts.Local().Format("2006-01-02 15:04")
		}
		if val == "" {
			return "-"
		}
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}
