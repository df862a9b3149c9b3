package tabular

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatError reports a response that is not valid ISS tabular JSON: either
// the body did not parse, or a block is missing its "columns" or "data" key.
type FormatError struct {
	Block  string // offending block name, empty if the whole body is bad
	Reason string
}

func (e *FormatError) Error() string {
	if e.Block == "" {
		return fmt.Sprintf("invalid iss response: %s", e.Reason)
	}
	return fmt.Sprintf("invalid iss response: block %q: %s", e.Block, e.Reason)
}

// Record is one row keyed by column name. Column names are preserved exactly
// as returned; ISS mixes upper and lower case between endpoints.
type Record map[string]any

// Block is an ordered sequence of records.
type Block []Record

// Document maps block name to block. A missing key means the endpoint did not
// return that block at all, which callers must distinguish from an empty one.
type Document map[string]Block

type blockJSON struct {
	Columns *[]string `json:"columns"`
	Data    *[][]any  `json:"data"`
}

// Parse converts a raw ISS response body into a Document. An empty top-level
// object is valid and yields an empty Document.
func Parse(raw []byte) (Document, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, &FormatError{Reason: err.Error()}
	}

	doc := make(Document, len(top))
	for name, rawBlock := range top {
		dec := json.NewDecoder(bytes.NewReader(rawBlock))
		dec.UseNumber()

		var b blockJSON
		if err := dec.Decode(&b); err != nil {
			return nil, &FormatError{Block: name, Reason: err.Error()}
		}
		if b.Columns == nil || b.Data == nil {
			return nil, &FormatError{Block: name, Reason: "missing columns or data"}
		}

		block := make(Block, 0, len(*b.Data))
		for _, row := range *b.Data {
			rec := make(Record, len(*b.Columns))
			for i, col := range *b.Columns {
				if i < len(row) {
					rec[col] = row[i]
				}
			}
			block = append(block, rec)
		}
		doc[name] = block
	}

	return doc, nil
}

// Lowered returns a copy of the record with all keys lower-cased.
func (r Record) Lowered() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[strings.ToLower(k)] = v
	}
	return out
}

// String returns the value under key rendered as a string. Missing keys and
// nulls yield the empty string.
func (r Record) String(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(v)
	}
}

// Int returns the value under key as an int64.
func (r Record) Int(key string) (int64, bool) {
	n, ok := r[key].(json.Number)
	if !ok {
		return 0, false
	}
	i, err := n.Int64()
	if err != nil {
		return 0, false
	}
	return i, true
}

// Float returns the value under key as a float64.
func (r Record) Float(key string) (float64, bool) {
	n, ok := r[key].(json.Number)
	if !ok {
		return 0, false
	}
	f, err := n.Float64()
	if err != nil {
		return 0, false
	}
	return f, true
}

// Decimal returns the value under key as a decimal, parsed from the exact
// wire representation.
func (r Record) Decimal(key string) (decimal.Decimal, bool) {
	switch v := r[key].(type) {
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return decimal.Decimal{}, false
		}
		return d, true
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Decimal{}, false
		}
		return d, true
	default:
		return decimal.Decimal{}, false
	}
}
