package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fivetwenty-io/auvo-client/internal/constants"
	"github.com/fivetwenty-io/auvo-client/pkg/auvo"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// renderEntities writes entities in the selected output format. columns
// restricts the table columns; when empty they are inferred.
func renderEntities(w io.Writer, entities []auvo.Entity, columns []string, emptyMessage string) error {
	output := viper.GetString("output")
	switch output {
	case constants.FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")

		return encoder.Encode(entities)
	case constants.FormatYAML:
		encoder := yaml.NewEncoder(w)

		return encoder.Encode(toPlain(entities))
	default:
		if len(entities) == 0 {
			_, _ = fmt.Fprintln(w, emptyMessage)

			return nil
		}

		if len(columns) == 0 {
			columns = inferColumns(entities[0])
		}

		table := tablewriter.NewWriter(w)
		table.Header(toHeader(columns)...)

		for _, entity := range entities {
			row := make([]string, len(columns))
			for i, column := range columns {
				row[i] = formatCell(entity[column])
			}

			_ = table.Append(row)
		}

		err := table.Render()
		if err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil
	}
}

// renderEntity writes one entity; the table format lists it as properties.
func renderEntity(w io.Writer, entity map[string]any) error {
	output := viper.GetString("output")
	switch output {
	case constants.FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")

		return encoder.Encode(entity)
	case constants.FormatYAML:
		encoder := yaml.NewEncoder(w)

		return encoder.Encode(toPlain(entity))
	default:
		keys := sortedKeys(entity)

		table := tablewriter.NewWriter(w)
		table.Header("Property", "Value")

		for _, key := range keys {
			_ = table.Append(key, formatCell(entity[key]))
		}

		err := table.Render()
		if err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil
	}
}

// inferColumns picks the scalar fields of entity in key order, "id" first.
func inferColumns(entity auvo.Entity) []string {
	var ids, others []string

	for _, key := range sortedKeys(entity) {
		switch entity[key].(type) {
		case map[string]any, []any:
			continue
		}

		if strings.EqualFold(key, "id") {
			ids = append(ids, key)

			continue
		}

		others = append(others, key)
	}

	columns := make([]string, 0, len(ids)+len(others))
	columns = append(columns, ids...)
	columns = append(columns, others...)
	if len(columns) > constants.MaxInferredColumns {
		columns = columns[:constants.MaxInferredColumns]
	}

	return columns
}

// parseColumns splits a --columns value.
func parseColumns(value string) []string {
	var columns []string

	for _, column := range strings.Split(value, ",") {
		column = strings.TrimSpace(column)
		if column != "" {
			columns = append(columns, column)
		}
	}

	return columns
}

func toHeader(columns []string) []any {
	header := make([]any, len(columns))
	for i, column := range columns {
		header[i] = column
	}

	return header
}

func formatCell(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case json.Number:
		return typed.String()
	case bool:
		if typed {
			return "yes"
		}

		return "no"
	case map[string]any, []any:
		encoded, err := json.Marshal(typed)
		if err != nil {
			return constants.NotAvailable
		}

		return string(encoded)
	default:
		return fmt.Sprint(typed)
	}
}

func sortedKeys[V any](values map[string]V) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

// toPlain converts json.Number values so the YAML encoder writes numbers
// rather than quoted strings.
func toPlain(value any) any {
	switch typed := value.(type) {
	case json.Number:
		if i, err := typed.Int64(); err == nil {
			return i
		}

		if f, err := typed.Float64(); err == nil {
			return f
		}

		return typed.String()
	case auvo.Entity:
		return toPlain(map[string]any(typed))
	case map[string]any:
		plain := make(map[string]any, len(typed))
		for key, item := range typed {
			plain[key] = toPlain(item)
		}

		return plain
	case []auvo.Entity:
		plain := make([]any, len(typed))
		for i, item := range typed {
			plain[i] = toPlain(item)
		}

		return plain
	case []any:
		plain := make([]any, len(typed))
		for i, item := range typed {
			plain[i] = toPlain(item)
		}

		return plain
	default:
		return typed
	}
}
