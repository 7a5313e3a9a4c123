package dataset

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/common"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"
)

// WriteResults persists the collected records to a parquet file. The file
// schema is the union of the field names across all records; every column is
// an optional UTF8 string, with non-string values JSON-encoded so resumed
// runs round-trip them unchanged.
func WriteResults(path string, results []Row) error {
	if len(results) == 0 {
		return fmt.Errorf("no records to write")
	}

	fields := unionFields(results)

	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	pw, err := writer.NewJSONWriter(jsonSchema(fields), fw, 2)
	if err != nil {
		fw.Close()
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}

	for _, result := range results {
		record := make(map[string]string, len(result))
		for _, field := range fields {
			value, ok := result[field]
			if !ok || value == nil {
				continue
			}
			record[field] = stringifyValue(value)
		}
		encoded, err := json.Marshal(record)
		if err != nil {
			fw.Close()
			return fmt.Errorf("failed to encode record: %w", err)
		}
		if err := pw.Write(string(encoded)); err != nil {
			fw.Close()
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		fw.Close()
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return fw.Close()
}

// ReadRows loads every row of a parquet file as a field map, reading column
// by column. String columns come back as strings; other physical types are
// rendered through fmt so the caller always sees scalar values.
func ReadRows(path string) ([]Row, error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetColumnReader(fr, 2)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet file %s: %w", path, err)
	}
	defer pr.ReadStop()

	n := pr.GetNumRows()
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{}
	}

	for _, inPath := range pr.SchemaHandler.ValueColumns {
		values, _, _, err := pr.ReadColumnByPath(inPath, n)
		if err != nil {
			return nil, fmt.Errorf("failed to read column %s: %w", inPath, err)
		}

		name := columnName(pr.SchemaHandler.InPathToExPath[inPath])
		for i, value := range values {
			if i >= len(rows) || value == nil {
				continue
			}
			rows[i][name] = value
		}
	}
	return rows, nil
}

func columnName(exPath string) string {
	segments := common.StrToPath(exPath)
	return segments[len(segments)-1]
}

func unionFields(results []Row) []string {
	seen := map[string]struct{}{}
	for _, result := range results {
		for field := range result {
			seen[field] = struct{}{}
		}
	}
	fields := make([]string, 0, len(seen))
	for field := range seen {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

func jsonSchema(fields []string) string {
	type tag struct {
		Tag string `json:"Tag"`
	}
	type rootSchema struct {
		Tag    string `json:"Tag"`
		Fields []tag  `json:"Fields"`
	}

	root := rootSchema{Tag: "name=parquet_go_root, repetitiontype=REQUIRED"}
	for _, field := range fields {
		root.Fields = append(root.Fields, tag{
			Tag: fmt.Sprintf("name=%s, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL", field),
		})
	}

	encoded, _ := json.Marshal(root)
	return string(encoded)
}

func stringifyValue(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(encoded)
}
