package handler

import (
	"github.com/julienschmidt/httprouter"
)

func (h *RecordHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/records", h.ListRecords)
	router.POST("/api/v1/records", h.CreateRecord)
	router.PUT("/api/v1/records/:id", h.UpdateRecord)
	router.PUT("/api/v1/records/:id/attendance", h.SetAttendance)
	router.DELETE("/api/v1/records/:id", h.DeleteRecord)
}
