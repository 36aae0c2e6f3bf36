package handler

import (
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/maisonnoir/storefront/internal/domain/catalog"
)

const (
	defaultPageLimit = 24
	maxPageLimit     = 100
)

// productView is the API representation of a catalog product.
type productView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Brand     string    `json:"brand"`
	Category  string    `json:"category"`
	Price     float64   `json:"price"`
	SalePrice *float64  `json:"salePrice,omitempty"`
	Rating    float64   `json:"rating"`
	Tags      []string  `json:"tags"`
	Sizes     []string  `json:"sizes"`
	Colors    []string  `json:"colors"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"createdAt"`
}

func toProductView(p catalog.Product) productView {
	v := productView{
		ID:        p.ID,
		Name:      p.Name,
		Brand:     p.Brand,
		Category:  p.Category,
		Price:     p.Price.InexactFloat64(),
		Rating:    p.Rating,
		Tags:      p.Tags,
		Sizes:     p.Sizes,
		Colors:    p.Colors,
		Image:     p.Image,
		CreatedAt: p.CreatedAt,
	}
	if p.SalePrice != nil {
		sale := p.SalePrice.InexactFloat64()
		v.SalePrice = &sale
	}
	return v
}

// listProducts serves the filtered, sorted, paginated catalog.
//
// Query parameters: price_min, price_max, category (repeatable), brand
// (repeatable), q, sort, page, limit.
func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	products, err := h.products.List(r.Context())
	if err != nil {
		h.serverError(w, r, err, "list products")
		return
	}

	filtered, err := catalog.ApplyFilters(products, filter)
	if err != nil {
		var sortErr *catalog.InvalidSortError
		if errors.As(err, &sortErr) {
			writeError(w, http.StatusBadRequest, sortErr.Error())
			return
		}
		h.serverError(w, r, err, "apply filters")
		return
	}

	page, limit := parsePaging(r)
	total := len(filtered)
	totalPages := (total + limit - 1) / limit
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	views := make([]productView, 0, end-start)
	for _, p := range filtered[start:end] {
		views = append(views, toProductView(p))
	}

	writePaginated(w, views, Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	p, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		h.serverError(w, r, err, "get product")
		return
	}

	writeData(w, http.StatusOK, toProductView(*p))
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.products.Categories(r.Context())
	if err != nil {
		h.serverError(w, r, err, "list categories")
		return
	}
	writeData(w, http.StatusOK, categories)
}

// suggestions serves the suggestion fetch for a committed query. Queries
// below the minimum length return an empty list; debouncing happens on the
// client side of this endpoint.
func (h *Handler) suggestions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if utf8.RuneCountInString(query) < 2 {
		writeData(w, http.StatusOK, []productView{})
		return
	}

	products, err := h.products.Search(r.Context(), query, h.cfg.SuggestLimit)
	if err != nil {
		h.serverError(w, r, err, "search products")
		return
	}

	views := make([]productView, len(products))
	for i, p := range products {
		views[i] = toProductView(p)
	}
	writeData(w, http.StatusOK, views)
}

func parseFilter(r *http.Request) (catalog.FilterState, error) {
	q := r.URL.Query()

	filter := catalog.FilterState{
		PriceMax:   decimal.New(1, 12), // effectively unbounded
		Categories: q["category"],
		Brands:     q["brand"],
		Query:      q.Get("q"),
		Sort:       catalog.SortRelevance,
	}

	if raw := q.Get("price_min"); raw != "" {
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return catalog.FilterState{}, errors.Errorf("invalid price_min %q", raw)
		}
		filter.PriceMin = v
	}
	if raw := q.Get("price_max"); raw != "" {
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return catalog.FilterState{}, errors.Errorf("invalid price_max %q", raw)
		}
		filter.PriceMax = v
	}
	if raw := q.Get("sort"); raw != "" {
		filter.Sort = catalog.SortKey(raw)
	}

	return filter, nil
}

func parsePaging(r *http.Request) (page, limit int) {
	page, limit = 1, defaultPageLimit

	if raw := r.URL.Query().Get("page"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			page = v
		}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= maxPageLimit {
			limit = v
		}
	}
	return page, limit
}
