package handlers

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"autoshop/services/faultcode"
)

var faultCodePattern = regexp.MustCompile(`^[PBCU][0-9A-F]{4}$`)

type FaultCodeHandler struct {
	codes faultcode.Service
}

func NewFaultCodeHandler(codes faultcode.Service) *FaultCodeHandler {
	return &FaultCodeHandler{codes: codes}
}

// Lookup returns the reference text for a diagnostic trouble code such as P0171.
func (h *FaultCodeHandler) Lookup(c *gin.Context) {
	code := strings.ToUpper(strings.TrimSpace(c.Param("code")))
	if !faultCodePattern.MatchString(code) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Fault codes look like P0171"})
		return
	}
	desc := h.codes.Lookup(c.Request.Context(), code)
	status := http.StatusOK
	if !desc.Found {
		status = http.StatusNotFound
	}
	c.JSON(status, desc)
}
