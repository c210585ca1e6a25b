package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/satyam-chhatrala/gamma-ortho/catalog"
)

// GetCatalog serves the public storefront listing: active products only,
// name ascending, reduced to the public shape. The response is a bare array.
func GetCatalog(projector *catalog.Projector) gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := projector.ListActive(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, products)
	}
}
