// Package pagination drives repeated fetches of a single ISS block until the
// server has no more rows, merging pages into one ordered sequence.
//
// ISS paginates two ways. History-style endpoints return a companion
// "<block>.cursor" block with INDEX/PAGESIZE/TOTAL; iteration continues while
// INDEX+PAGESIZE < TOTAL. Endpoints without a cursor block are paged by size:
// a page shorter than the requested limit is the last one.
package pagination
