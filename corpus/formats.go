package corpus

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// readTable converts a header row plus data rows into records.
// Short rows are padded; blank rows are dropped.
func readTable(records [][]string) []row {
	if len(records) == 0 {
		return nil
	}
	header := make([]string, len(records[0]))
	for i, name := range records[0] {
		header[i] = normalizeColumn(name)
	}

	rows := make([]row, 0, len(records)-1)
	for _, record := range records[1:] {
		r := make(row, len(header))
		blank := true
		for i, name := range header {
			if name == "" || i >= len(record) {
				continue
			}
			r[name] = record[i]
			if record[i] != "" {
				blank = false
			}
		}
		if !blank {
			rows = append(rows, r)
		}
	}
	return rows
}

func readCSV(r io.Reader) ([]row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	return readTable(records), nil
}

func readXLSX(r io.Reader) ([]row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	return readTable(records), nil
}

func readJSON(r io.Reader) ([]row, error) {
	var items []map[string]any
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, err
	}
	return fromMaps(items), nil
}

func readYAML(r io.Reader) ([]row, error) {
	var items []map[string]any
	if err := yaml.NewDecoder(r).Decode(&items); err != nil && err != io.EOF {
		return nil, err
	}
	return fromMaps(items), nil
}

func fromMaps(items []map[string]any) []row {
	rows := make([]row, 0, len(items))
	for _, item := range items {
		r := make(row, len(item))
		for k, v := range item {
			r[normalizeColumn(k)] = stringify(v)
		}
		rows = append(rows, r)
	}
	return rows
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	default:
		return fmt.Sprint(t)
	}
}
