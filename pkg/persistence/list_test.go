package persistence

import (
	"testing"
	"time"

	"github.com/dukex/atelier/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListOptions_Normalize(t *testing.T) {
	tests := []struct {
		name    string
		opts    ListOptions
		want    ListOptions
		wantErr error
	}{
		{
			name: "defaults",
			opts: ListOptions{},
			want: ListOptions{Limit: 20, SortBy: SortByCreatedDate, SortOrder: SortOrderDesc},
		},
		{
			name: "limit above maximum falls back to default",
			opts: ListOptions{Limit: 500, Offset: -4, SortBy: SortByName, SortOrder: "ASC"},
			want: ListOptions{Limit: 20, SortBy: SortByName, SortOrder: SortOrderAsc},
		},
		{
			name:    "sql injection attempt",
			opts:    ListOptions{SortBy: "name; DROP TABLE workflows; --"},
			wantErr: ErrInvalidSortField,
		},
		{
			name:    "unknown order",
			opts:    ListOptions{SortOrder: "sideways"},
			wantErr: ErrInvalidSortOrder,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.opts.Normalize()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestListOptions_ApplyInMemory(t *testing.T) {
	base := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	active := models.WorkflowStatusActive

	records := []*models.WorkflowRecord{
		{ID: "a", Name: "Relance facture", Category: "finance", Status: models.WorkflowStatusDraft, CreatedBy: "paul", CreatedDate: base},
		{ID: "b", Name: "Onboarding", Category: "hr", Status: models.WorkflowStatusActive, CreatedBy: "marie", CreatedDate: base.Add(time.Hour)},
		{ID: "c", Name: "Devis", Category: "commercial", Status: models.WorkflowStatusActive, CreatedBy: "marie", CreatedDate: base.Add(2 * time.Hour)},
	}

	tests := []struct {
		name     string
		opts     ListOptions
		wantIDs  []string
		wantNext bool
		total    int64
	}{
		{name: "newest first", opts: ListOptions{}, wantIDs: []string{"c", "b", "a"}, total: 3},
		{name: "by name", opts: ListOptions{SortBy: SortByName, SortOrder: SortOrderAsc}, wantIDs: []string{"c", "b", "a"}, total: 3},
		{name: "status filter", opts: ListOptions{Status: &active, SortOrder: SortOrderAsc}, wantIDs: []string{"b", "c"}, total: 2},
		{name: "creator and category", opts: ListOptions{CreatedBy: "marie", Category: "hr"}, wantIDs: []string{"b"}, total: 1},
		{name: "first page", opts: ListOptions{Limit: 2}, wantIDs: []string{"c", "b"}, wantNext: true, total: 3},
		{name: "past the end", opts: ListOptions{Offset: 5}, wantIDs: []string{}, total: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := tt.opts.Normalize()
			require.NoError(t, err)

			result := opts.ApplyInMemory(records)

			ids := make([]string, 0, len(result.Workflows))
			for _, record := range result.Workflows {
				ids = append(ids, record.ID)
			}

			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.wantNext, result.HasNextPage)
			assert.Equal(t, tt.total, result.TotalCount)
		})
	}
}
