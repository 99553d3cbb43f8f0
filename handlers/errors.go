package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"autoshop/utils"
)

func respondError(c *gin.Context, message string, err error) {
	utils.RespondError(c, message, err)
}

func badRequest(c *gin.Context, err error) {
	utils.JSONError(c, http.StatusBadRequest, "Invalid input", err.Error())
}
