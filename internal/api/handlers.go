package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/shelfwatch/shelfwatch/internal/store"
	domain "github.com/shelfwatch/shelfwatch/pkg/types"
)

type handlers struct {
	store store.Store
	items []domain.TrackedItem
}

func newHandlers(s store.Store, items []domain.TrackedItem) *handlers {
	return &handlers{store: s, items: items}
}

// healthz returns 200 while the process is running.
func (*handlers) healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// readyz returns 200 when the state store is reachable, 503 otherwise.
func (h *handlers) readyz(c echo.Context) error {
	if err := h.store.Ping(c.Request().Context()); err != nil {
		return c.JSON(
			http.StatusServiceUnavailable,
			map[string]string{"status": "unavailable"},
		)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
}

// listItems returns the tracked items as loaded at startup.
func (h *handlers) listItems(c echo.Context) error {
	items := h.items
	if items == nil {
		items = []domain.TrackedItem{}
	}
	return c.JSON(http.StatusOK, items)
}

// dumpState returns the full persisted item state.
func (h *handlers) dumpState(c echo.Context) error {
	state, err := h.store.Load(c.Request().Context())
	if err != nil {
		return c.JSON(
			http.StatusInternalServerError,
			map[string]string{"error": "reading state failed"},
		)
	}
	return c.JSON(http.StatusOK, state)
}
