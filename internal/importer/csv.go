package importer

import (
	"errors"
	"strings"
)

var (
	ErrTooFewLines       = errors.New("csv must have a header row and at least one data row")
	ErrMissingAvailable  = errors.New("missing required field: available (or quantity)")
	ErrMissingIdentifier = errors.New("must provide at least one identifier: product_id, variant_id, sku, or barcode")
)

// headerAliases maps localized and spaced header variants onto canonical
// field names. Hebrew aliases come from merchant-exported spreadsheets.
var headerAliases = map[string]string{
	"product id": "product_id",
	"product_id": "product_id",
	"productid":  "product_id",
	"מוצר id":    "product_id",
	"variant id": "variant_id",
	"variant_id": "variant_id",
	"variantid":  "variant_id",
	"sku":        "sku",
	"מקט":        "sku",
	"barcode":    "barcode",
	"ברקוד":      "barcode",
	"available":  "available",
	"זמין":       "available",
	"quantity":   "available",
	"כמות":       "available",
	"committed":  "committed",
	"שמור":       "committed",
	"location id": "location_id",
	"location_id": "location_id",
	"locationid":  "location_id",
}

// row is one parsed CSV data line keyed by canonical header name. Line is
// the 1-based line number in the file, for error reporting.
type row struct {
	Line   int
	Fields map[string]string
}

// parseCSV splits the document into canonical-header rows. Lines whose column
// count does not match the header are returned as rowErrors instead of rows.
func parseCSV(text string) ([]row, []RowError, error) {
	lines := splitNonEmptyLines(text)
	if len(lines) < 2 {
		return nil, nil, ErrTooFewLines
	}

	headerLine := strings.TrimPrefix(lines[0].text, "\uFEFF")
	headers := parseLine(headerLine)
	canonical := make([]string, len(headers))
	for i, h := range headers {
		cleaned := strings.ToLower(strings.TrimSpace(strings.ReplaceAll(h, "\uFEFF", "")))
		if alias, ok := headerAliases[cleaned]; ok {
			canonical[i] = alias
		} else {
			canonical[i] = cleaned
		}
	}

	if !contains(canonical, "available") {
		return nil, nil, ErrMissingAvailable
	}
	if !contains(canonical, "product_id") && !contains(canonical, "variant_id") &&
		!contains(canonical, "sku") && !contains(canonical, "barcode") {
		return nil, nil, ErrMissingIdentifier
	}

	var rows []row
	var rowErrors []RowError
	for _, line := range lines[1:] {
		values := parseLine(line.text)
		if len(values) != len(headers) {
			rowErrors = append(rowErrors, RowError{
				Row:   line.number,
				Error: errColumnMismatch(len(headers), len(values)),
			})
			continue
		}

		fields := make(map[string]string, len(canonical))
		for i, name := range canonical {
			fields[name] = unquote(strings.TrimSpace(values[i]))
		}
		rows = append(rows, row{Line: line.number, Fields: fields})
	}
	return rows, rowErrors, nil
}

type numberedLine struct {
	number int
	text   string
}

func splitNonEmptyLines(text string) []numberedLine {
	var out []numberedLine
	for i, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(l) == "" {
			continue
		}
		out = append(out, numberedLine{number: i + 1, text: strings.TrimRight(l, "\r")})
	}
	return out
}

// parseLine is a quote-aware comma splitter: commas inside double quotes do
// not split, and "" inside a quoted value is an escaped quote.
func parseLine(line string) []string {
	var values []string
	var current strings.Builder
	inQuotes := false

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case c == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				current.WriteRune('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case c == ',' && !inQuotes:
			values = append(values, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(c)
		}
	}
	values = append(values, strings.TrimSpace(current.String()))
	return values
}

// unquote strips one layer of surrounding single or double quotes.
func unquote(v string) string {
	if len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
			return v[1 : len(v)-1]
		}
	}
	return v
}

func contains(ss []string, want string) bool {
	for _, s := range ss {
		if s == want {
			return true
		}
	}
	return false
}
