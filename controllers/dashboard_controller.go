package controllers

import (
	"net/http"

	"loanmanagement/services"

	"github.com/gorilla/mux"
)

// DashboardController отдает сводную статистику
type DashboardController struct {
	dashboard *services.DashboardService
}

func NewDashboardController(dashboard *services.DashboardService) *DashboardController {
	return &DashboardController{dashboard: dashboard}
}

func (c *DashboardController) Register(r *mux.Router) {
	r.HandleFunc("/dashboard", c.GetStats).Methods("GET")
}

// GetStats возвращает статистику для главной страницы
func (c *DashboardController) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := c.dashboard.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
