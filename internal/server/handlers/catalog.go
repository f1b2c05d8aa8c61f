package handlers

import (
	"net/http"
	"strings"

	"github.com/agentstation/gaze/internal/server/cache"
	"github.com/agentstation/gaze/internal/server/response"
	"github.com/agentstation/gaze/pkg/catalog"
)

// CatalogPage is the body of GET /api/v1/catalog.
type CatalogPage struct {
	Query      string          `json:"query,omitempty"`
	Modules    []catalog.Entry `json:"modules"`
	Count      int             `json:"count"`
	Total      int             `json:"total"`
	Categories int             `json:"categories"`
}

// HandleListCatalog handles GET /api/v1/catalog.
// @Summary Module catalog
// @Description Catalog entries, optionally filtered by a case-insensitive name or description term
// @Tags catalog
// @Produce json
// @Param q query string false "Search term"
// @Success 200 {object} response.Response{data=CatalogPage}
// @Router /api/v1/catalog [get].
func (h *Handlers) HandleListCatalog(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	key := cache.CatalogPrefix + "search:" + strings.ToLower(q)

	page, err := h.cache.Remember(key, func() (any, error) {
		ix := h.gz.Engine().Catalog()
		found := ix.Search(q)
		if found == nil {
			found = []catalog.Entry{}
		}
		return CatalogPage{
			Query:      q,
			Modules:    found,
			Count:      len(found),
			Total:      ix.Len(),
			Categories: ix.CategoryCount(),
		}, nil
	})
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	w.Header().Set("Cache-Control", "no-cache")
	response.OK(w, page)
}

// HandleRefreshCatalog handles POST /api/v1/catalog/refresh.
// @Summary Refresh the catalog
// @Description Fetch the catalog from its source now. On failure the previous catalog stays in place.
// @Tags catalog
// @Produce json
// @Success 200 {object} response.Response{data=object}
// @Failure 503 {object} response.Response{error=response.Error}
// @Router /api/v1/catalog/refresh [post].
func (h *Handlers) HandleRefreshCatalog(w http.ResponseWriter, r *http.Request) {
	if err := h.gz.RefreshCatalog(r.Context()); err != nil {
		h.logger.Warn().Err(err).Msg("Catalog refresh failed")
		response.ErrorFromType(w, err)
		return
	}
	h.cache.DeletePrefix(cache.CatalogPrefix)

	ix := h.gz.Engine().Catalog()
	response.OK(w, map[string]any{
		"status":     "refreshed",
		"modules":    ix.Len(),
		"categories": ix.CategoryCount(),
	})
}
