package suggest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/maisonnoir/storefront/internal/domain/catalog"
)

func suggestions() []catalog.Product {
	return []catalog.Product{
		{ID: "p1", Name: "Silk Evening Gown"},
		{ID: "p2", Name: "Silk Scarf"},
		{ID: "p3", Name: "Silk Blouse"},
	}
}

func TestSelection_Move(t *testing.T) {
	tests := []struct {
		name   string
		start  int
		deltas []int
		want   int
	}{
		{name: "down from none highlights first", start: -1, deltas: []int{1}, want: 0},
		{name: "down through the list", start: -1, deltas: []int{1, 1, 1}, want: 2},
		{name: "clamped at last item", start: -1, deltas: []int{1, 1, 1, 1, 1}, want: 2},
		{name: "up from first returns to none", start: 0, deltas: []int{-1}, want: -1},
		{name: "clamped at none", start: -1, deltas: []int{-1, -1}, want: -1},
		{name: "down then up", start: -1, deltas: []int{1, 1, -1}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Selection{Index: tt.start}
			for _, d := range tt.deltas {
				s = s.Move(d, len(suggestions()))
			}
			assert.Equal(t, tt.want, s.Index)
		})
	}
}

func TestSelection_MoveOverEmptyList(t *testing.T) {
	s := NewSelection()
	s = s.Move(1, 0)
	assert.Equal(t, -1, s.Index)
}

func TestSelection_ConfirmHighlighted(t *testing.T) {
	s := NewSelection().Move(1, 3).Move(1, 3)

	a := s.Confirm(suggestions(), "silk")
	assert.Equal(t, ActionNavigate, a.Kind)
	assert.Equal(t, "p2", a.ProductID)
}

func TestSelection_ConfirmWithoutHighlightSearches(t *testing.T) {
	a := NewSelection().Confirm(suggestions(), "silk gown")
	assert.Equal(t, ActionSearch, a.Kind)
	assert.Equal(t, "silk gown", a.Query)
}

func TestSelection_ConfirmIndexBeyondListSearches(t *testing.T) {
	// The list shrank after the highlight was set.
	s := Selection{Index: 5}
	a := s.Confirm(suggestions(), "silk")
	assert.Equal(t, ActionSearch, a.Kind)
}

func TestSelection_Dismiss(t *testing.T) {
	a := NewSelection().Move(1, 3).Dismiss()
	assert.Equal(t, ActionClose, a.Kind)
}
