package suggest

import "github.com/maisonnoir/storefront/internal/domain/catalog"

// Selection tracks keyboard navigation over a suggestion list. Index -1
// means no suggestion is highlighted; Enter then submits the raw query as a
// full-text search instead of navigating to a product.
type Selection struct {
	Index int
}

// NewSelection returns a Selection with nothing highlighted.
func NewSelection() Selection {
	return Selection{Index: -1}
}

// Move shifts the highlighted index by delta over a list of the given
// length, clamping to [-1, length-1].
func (s Selection) Move(delta, length int) Selection {
	next := s.Index + delta
	if next < -1 {
		next = -1
	}
	if next > length-1 {
		next = length - 1
	}
	return Selection{Index: next}
}

// ActionKind discriminates the outcome of a confirm or dismiss keypress.
type ActionKind int

const (
	// ActionNavigate goes directly to the highlighted product.
	ActionNavigate ActionKind = iota
	// ActionSearch submits the raw query as a full-text search.
	ActionSearch
	// ActionClose dismisses the suggestion list without committing.
	ActionClose
)

// Action is the resolved outcome of a keypress on the suggestion list.
type Action struct {
	Kind      ActionKind
	ProductID string
	Query     string
}

// Confirm resolves an Enter keypress: the highlighted product when one is
// selected, otherwise a full-text search for the raw query.
func (s Selection) Confirm(products []catalog.Product, rawQuery string) Action {
	if s.Index >= 0 && s.Index < len(products) {
		return Action{Kind: ActionNavigate, ProductID: products[s.Index].ID}
	}
	return Action{Kind: ActionSearch, Query: rawQuery}
}

// Dismiss resolves an Escape keypress.
func (s Selection) Dismiss() Action {
	return Action{Kind: ActionClose}
}
