package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CatalogValuesResponse lists the distinct values a rule condition can name.
type CatalogValuesResponse struct {
	Values []string `json:"values"`
	Total  int      `json:"total"`
}

// ListCategories returns the distinct product categories
// @Summary List product categories
// @Tags catalog
// @Produce json
// @Success 200 {object} CatalogValuesResponse
// @Router /catalog/categories [get]
func ListCategories(c *gin.Context) {
	if productCatalog == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Catalog not initialized"})
		return
	}

	values, err := productCatalog.DistinctCategories(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, catalogValues(values))
}

// ListProductCodes returns the distinct product codes
// @Summary List product codes
// @Tags catalog
// @Produce json
// @Success 200 {object} CatalogValuesResponse
// @Router /catalog/product-codes [get]
func ListProductCodes(c *gin.Context) {
	if productCatalog == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Catalog not initialized"})
		return
	}

	values, err := productCatalog.DistinctProductCodes(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, catalogValues(values))
}

func catalogValues(values []string) CatalogValuesResponse {
	if values == nil {
		values = []string{}
	}
	return CatalogValuesResponse{Values: values, Total: len(values)}
}
