package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"kharnish/budgie/internal/logging"
	"kharnish/budgie/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCategoryFile(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected []models.Category
	}{
		{
			name: "categories key",
			content: `categories:
  - name: Food
  - name: Dining
    parent: Food
`,
			expected: []models.Category{{Name: "Food"}, {Name: "Dining", Parent: "Food"}},
		},
		{
			name: "bare list",
			content: `- name: Transfers
  hidden: true
`,
			expected: []models.Category{{Name: "Transfers", Hidden: true}},
		},
		{
			name: "map by name",
			content: `Groceries:
  parent: Food
Food:
`,
			expected: []models.Category{{Name: "Food"}, {Name: "Groceries", Parent: "Food"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "categories.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			got, err := LoadCategoryFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestLoadCategoryFile_Missing(t *testing.T) {
	_, err := LoadCategoryFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSeedCategories(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	require.NoError(t, s.AddCategory(ctx, models.Category{Name: "Food"}))

	added, err := SeedCategories(ctx, s, []models.Category{{Name: "Food"}, {Name: "Dining", Parent: "Food"}}, logging.NewMockLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	cats, err := s.Categories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 2)
}
