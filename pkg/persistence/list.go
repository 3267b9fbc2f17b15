package persistence

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dukex/atelier/pkg/models"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100

	SortByCreatedDate  = "created_date"
	SortByLastModified = "last_modified"
	SortByName         = "name"

	SortOrderAsc  = "asc"
	SortOrderDesc = "desc"
)

// ListOptions filters, sorts, and paginates a workflow listing.
type ListOptions struct {
	Limit     int
	Offset    int
	Category  string
	Status    *models.WorkflowStatus
	CreatedBy string
	SortBy    string
	SortOrder string
}

// ListResult is a page of workflows and the total matching the filters.
type ListResult struct {
	Workflows   []*models.WorkflowRecord `json:"workflows"`
	TotalCount  int64                    `json:"totalCount"`
	HasNextPage bool                     `json:"hasNextPage"`
}

// Normalize applies defaults and checks the sort parameters against the allowlist.
func (o ListOptions) Normalize() (ListOptions, error) {
	if o.Limit <= 0 || o.Limit > MaxListLimit {
		o.Limit = DefaultListLimit
	}

	if o.Offset < 0 {
		o.Offset = 0
	}

	if o.SortBy == "" {
		o.SortBy = SortByCreatedDate
	}

	o.SortOrder = strings.ToLower(o.SortOrder)
	if o.SortOrder == "" {
		o.SortOrder = SortOrderDesc
	}

	switch o.SortBy {
	case SortByCreatedDate, SortByLastModified, SortByName:
	default:
		return o, fmt.Errorf("%w: %s", ErrInvalidSortField, o.SortBy)
	}

	if o.SortOrder != SortOrderAsc && o.SortOrder != SortOrderDesc {
		return o, fmt.Errorf("%w: %s", ErrInvalidSortOrder, o.SortOrder)
	}

	return o, nil
}

// Matches reports whether record passes the filters of o.
func (o ListOptions) Matches(record *models.WorkflowRecord) bool {
	if o.Category != "" && record.Category != o.Category {
		return false
	}

	if o.Status != nil && record.Status != *o.Status {
		return false
	}

	if o.CreatedBy != "" && record.CreatedBy != o.CreatedBy {
		return false
	}

	return true
}

// ApplyInMemory filters, sorts, and paginates records for backends without a
// query engine. o must already be normalized.
func (o ListOptions) ApplyInMemory(records []*models.WorkflowRecord) *ListResult {
	filtered := make([]*models.WorkflowRecord, 0, len(records))

	for _, record := range records {
		if o.Matches(record) {
			filtered = append(filtered, record)
		}
	}

	slices.SortStableFunc(filtered, func(a, b *models.WorkflowRecord) int {
		var cmp int

		switch o.SortBy {
		case SortByLastModified:
			cmp = a.LastModified.Compare(b.LastModified)
		case SortByName:
			cmp = strings.Compare(a.Name, b.Name)
		default:
			cmp = a.CreatedDate.Compare(b.CreatedDate)
		}

		if cmp == 0 {
			cmp = strings.Compare(a.ID, b.ID)
		}

		if o.SortOrder == SortOrderDesc {
			return -cmp
		}

		return cmp
	})

	total := len(filtered)
	if o.Offset >= total {
		return &ListResult{Workflows: make([]*models.WorkflowRecord, 0), TotalCount: int64(total)}
	}

	end := min(o.Offset+o.Limit, total)

	return &ListResult{
		Workflows:   filtered[o.Offset:end],
		TotalCount:  int64(total),
		HasNextPage: end < total,
	}
}
