package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot(t *testing.T) {
	t.Run("AppliesAttributeDefaults", func(t *testing.T) {
		s := NewSnapshot([]Candidate{
			{ID: "P1"},
			{ID: "P2", Name: "Named", Category: "Home"},
		})
		require.Equal(t, 2, s.Len())

		c, ok := s.Get("P1")
		require.True(t, ok)
		assert.Equal(t, "Unknown", c.Name)
		assert.Equal(t, "Unknown", c.Category)

		c, ok = s.Get("P2")
		require.True(t, ok)
		assert.Equal(t, "Named", c.Name)
		assert.Equal(t, "Home", c.Category)
	})

	t.Run("SkipsEmptyAndDuplicateIDs", func(t *testing.T) {
		s := NewSnapshot([]Candidate{
			{ID: "", Name: "no id"},
			{ID: "P1", Name: "first"},
			{ID: "P1", Name: "second"},
		})
		require.Equal(t, 1, s.Len())

		c, ok := s.Get("P1")
		require.True(t, ok)
		assert.Equal(t, "first", c.Name)
	})

	t.Run("GetMiss", func(t *testing.T) {
		s := NewSnapshot(nil)
		_, ok := s.Get("P1")
		assert.False(t, ok)
	})

	t.Run("FilterAndAllPreserveLoadOrder", func(t *testing.T) {
		s := NewSnapshot([]Candidate{
			{ID: "P3", Category: "Home"},
			{ID: "P1", Category: "Electronics"},
			{ID: "P2", Category: "Home"},
		})

		all := s.All()
		require.Len(t, all, 3)
		assert.Equal(t, "P3", all[0].ID)

		home := s.Filter(func(c Candidate) bool { return c.Category == "Home" })
		require.Len(t, home, 2)
		assert.Equal(t, "P3", home[0].ID)
		assert.Equal(t, "P2", home[1].ID)
	})
}
