package handler

import (
	"github.com/julienschmidt/httprouter"
)

func (h *MarketingHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/marketing/channels", h.ListChannels)
	router.POST("/api/v1/marketing/channels", h.CreateChannel)
	router.PUT("/api/v1/marketing/channels", h.UpdateChannel)
	router.DELETE("/api/v1/marketing/channels/:id", h.DeleteChannel)

	router.GET("/api/v1/marketing/budget", h.GetBudget)
	router.PUT("/api/v1/marketing/budget", h.UpdateBudget)

	router.GET("/api/v1/marketing/metrics", h.GetMetrics)
	router.GET("/api/v1/marketing/metrics/channels", h.GetChannelBreakdown)

	router.GET("/api/v1/marketing/records", h.ListRecords)
	router.GET("/api/v1/marketing/records/count", h.CountRecords)
	router.GET("/api/v1/marketing/patients/count", h.CountPatients)
	router.GET("/api/v1/marketing/leads/count", h.CountLeads)
	router.GET("/api/v1/marketing/exams/prices", h.GetExamPrices)

	router.GET("/api/v1/marketing/invoice/exams", h.GetExamAttribution)
	router.GET("/api/v1/marketing/invoice/doctors", h.GetDoctorAttribution)
}
