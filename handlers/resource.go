package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bitbucket.org/pawdesk/petcare_backend/models"
)

func CreateResource(c *gin.Context) {
	var input models.NewResource
	if !bindJSON(c, &input) {
		return
	}
	resource, err := models.CreateResource(c.Request.Context(), &input)
	if err != nil {
		writeError(c, "CreateResource", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"resource": resource})
}

func UpdateResource(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.UpdateResourceInput
	if !bindJSON(c, &input) {
		return
	}
	resource, err := models.UpdateResource(c.Request.Context(), id, &input)
	if err != nil {
		writeError(c, "UpdateResource", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"resource": resource})
}

func GetResource(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	resource, err := models.GetResource(c.Request.Context(), id)
	if err != nil {
		writeError(c, "GetResource", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"resource": resource})
}

func ListResources(c *gin.Context) {
	var suiteType *models.SuiteType
	if v := c.Query("type"); v != "" {
		t := models.SuiteType(v)
		if !t.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid suite type filter"})
			return
		}
		suiteType = &t
	}

	resources, err := models.GetResources(c.Request.Context(), suiteType)
	if err != nil {
		writeError(c, "ListResources", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"resources": resources})
}
