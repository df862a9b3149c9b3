// Package tabular parses ISS tabular responses.
//
// Every ISS endpoint returns a JSON object whose top-level keys are named
// blocks, each block holding a "columns" array and a "data" array of rows:
//
//	{"engines": {"columns": ["name", "title"], "data": [["stock", "..."]]}}
//
// Parse flattens each block into an ordered sequence of records keyed by
// column name. Numbers are kept as json.Number so money fields can be read
// into decimals without float round-tripping.
package tabular
