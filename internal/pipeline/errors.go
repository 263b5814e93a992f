package pipeline

import (
	"errors"
	"fmt"
)

var (
	ErrLandmarkNotFound = errors.New("header landmark not found")
	ErrInsufficientRows = errors.New("table has fewer than two rows")
	ErrEmptyDataset     = errors.New("no records survived normalization")
)

// TableError ties a per-table failure to the table it came from.
type TableError struct {
	TableID string
	Err     error
}

func (e *TableError) Error() string {
	return fmt.Sprintf("table %s: %v", e.TableID, e.Err)
}

func (e *TableError) Unwrap() error {
	return e.Err
}

type SkipReason string

const (
	SkipEmptyGrid        SkipReason = "empty_grid"
	SkipLandmarkNotFound SkipReason = "landmark_not_found"
	SkipInsufficientRows SkipReason = "insufficient_rows"
	SkipOther            SkipReason = "error"
)

type SkippedTable struct {
	TableID string     `yaml:"table_id"`
	Reason  SkipReason `yaml:"reason"`
	Detail  string     `yaml:"detail,omitempty"`
}

func skipReasonFor(err error) SkipReason {
	switch {
	case errors.Is(err, ErrLandmarkNotFound):
		return SkipLandmarkNotFound
	case errors.Is(err, ErrInsufficientRows):
		return SkipInsufficientRows
	default:
		return SkipOther
	}
}

type DropReason string

const (
	DropEmptyLabel   DropReason = "empty_label"
	DropNoYearSuffix DropReason = "no_year_suffix"
	DropBlankEntity  DropReason = "blank_entity"
	DropAllBlank     DropReason = "all_blank"
)

// DropCounts tallies discarded records by reason. Year-suffix drops count long
// records; blank_entity and all_blank count output rows.
type DropCounts map[DropReason]int

func (d DropCounts) Total() int {
	n := 0
	for _, v := range d {
		n += v
	}
	return n
}
