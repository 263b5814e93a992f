// Package lookup resolves a source page to the commodity and unit printed on it.
package lookup

import (
	"strings"

	"worldprod/internal"
)

type Index struct {
	byPage map[int]internal.LookupEntry
}

// BuildIndex indexes entries by page. A later entry for the same page replaces
// an earlier one.
func BuildIndex(entries []internal.LookupEntry) *Index {
	idx := &Index{byPage: make(map[int]internal.LookupEntry, len(entries))}
	for _, e := range entries {
		e.Category = strings.TrimSpace(e.Category)
		e.Unit = strings.TrimSpace(e.Unit)
		idx.byPage[e.Page] = e
	}
	return idx
}

func (i *Index) Resolve(page int) (internal.LookupEntry, bool) {
	if i == nil {
		return internal.LookupEntry{}, false
	}
	e, ok := i.byPage[page]
	return e, ok
}

func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.byPage)
}
