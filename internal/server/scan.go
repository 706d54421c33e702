package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	scandomain "github.com/smallbiznis/scanverify/internal/scan/domain"
)

type recordScanRequest struct {
	Barcode1 string `json:"barcode1"`
	Barcode2 string `json:"barcode2"`
}

type recordScanResponse struct {
	Status string `json:"status"`
	Result string `json:"result"`
}

func (s *Server) RecordScan(c *gin.Context) {
	var req recordScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.scanSvc.RecordScan(c.Request.Context(), scandomain.RecordScanRequest{
		Barcode1: req.Barcode1,
		Barcode2: req.Barcode2,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, recordScanResponse{
		Status: "success",
		Result: resp.Label,
	})
}

func (s *Server) ListRecentScans(c *gin.Context) {
	resp, err := s.scanSvc.RecentScans(c.Request.Context(), 0)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetGlobalStats(c *gin.Context) {
	resp, err := s.scanSvc.GlobalStats(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetShiftStats(c *gin.Context) {
	resp, err := s.scanSvc.ShiftStats(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
