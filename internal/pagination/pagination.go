package pagination

import (
	"context"
	"fmt"

	"github.com/avolkov/moex-iss-data/internal/tabular"
)

// PageFunc fetches one page of results starting at the given row offset.
type PageFunc func(ctx context.Context, start int) (tabular.Document, error)

// FetchAll fetches every page of the named block, pageSize rows at a time,
// and returns the concatenated records in page order. A fetch or parse
// failure on any page propagates unchanged; no partial result is returned.
func FetchAll(ctx context.Context, blockName string, pageSize int, fetch PageFunc) ([]tabular.Record, error) {
	if pageSize < 1 {
		return nil, fmt.Errorf("page size must be >= 1, got %d", pageSize)
	}

	var all []tabular.Record
	start := 0
	for {
		doc, err := fetch(ctx, start)
		if err != nil {
			return nil, err
		}

		page := doc[blockName]
		all = append(all, page...)

		if cursor, ok := doc[blockName+".cursor"]; ok && len(cursor) > 0 {
			index, _ := cursor[0].Int("INDEX")
			size, _ := cursor[0].Int("PAGESIZE")
			total, _ := cursor[0].Int("TOTAL")
			if index+size >= total {
				return all, nil
			}
		} else if len(page) < pageSize {
			// Size strategy: a short or empty page is the last one.
			return all, nil
		}

		start += pageSize
	}
}
