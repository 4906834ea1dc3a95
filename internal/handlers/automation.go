package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/goalvault/savings-engine/internal/engine"
	"github.com/goalvault/savings-engine/internal/response"
)

type automationHandlers struct {
	ResponseHandler response.ResponseHandler
	Automation      AutomationRunner
}

func NewAutomationHandlers(deps *Deps) *automationHandlers {
	return &automationHandlers{
		ResponseHandler: deps.ResponseHandler,
		Automation:      deps.Automation,
	}
}

func (h *automationHandlers) AutomationRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/run", h.RunAll)
	r.Post("/run/{category}", h.RunCategory)
	return r
}

// RunAll fires every rule category immediately, through the same guard and
// executor path the scheduled triggers use.
func (h *automationHandlers) RunAll(w http.ResponseWriter, r *http.Request) {
	if err := h.Automation.RunAll(r.Context()); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, map[string]string{"status": "completed"})
}

func (h *automationHandlers) RunCategory(w http.ResponseWriter, r *http.Request) {
	category, err := engine.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	if err := h.Automation.RunCategory(r.Context(), category); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, map[string]string{
		"status":   "completed",
		"category": string(category),
	})
}
