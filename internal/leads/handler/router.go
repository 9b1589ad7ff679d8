package handler

import (
	"github.com/julienschmidt/httprouter"
)

func (h *LeadHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/leads", h.ListLeads)
	router.POST("/api/v1/leads", h.CreateLead)
	router.PUT("/api/v1/leads/:id", h.UpdateLead)
	router.DELETE("/api/v1/leads/:id", h.DeleteLead)
}
