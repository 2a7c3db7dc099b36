package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"bitbucket.org/pawdesk/petcare_backend/models"
	"bitbucket.org/pawdesk/petcare_backend/utils"
)

func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":        "validation failed",
				"field_errors": utils.ProcessValidationErrors(err),
			})
			return false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func pathId(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func CreateReservation(c *gin.Context) {
	var input models.NewReservation
	if !bindJSON(c, &input) {
		return
	}

	reservation, warnings, err := models.CreateReservation(c.Request.Context(), &input)
	if err != nil {
		writeError(c, "CreateReservation", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"reservation": reservation,
		"warnings":    warnings,
	})
}

func UpdateReservation(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.UpdateReservation
	if !bindJSON(c, &input) {
		return
	}

	reservation, warnings, err := models.UpdateReservationById(c.Request.Context(), id, &input)
	if err != nil {
		writeError(c, "UpdateReservation", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reservation": reservation,
		"warnings":    warnings,
	})
}

func GetReservation(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	reservation, err := models.GetReservation(c.Request.Context(), id)
	if err != nil {
		writeError(c, "GetReservation", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservation": reservation})
}

func ListReservations(c *gin.Context) {
	var filter models.ReservationFilter

	if v := c.Query("status"); v != "" {
		status := models.ReservationStatus(v)
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status filter"})
			return
		}
		filter.Status = &status
	}
	if v := c.Query("customer_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer_id filter"})
			return
		}
		filter.CustomerId = &id
	}
	if v := c.Query("resource_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid resource_id filter"})
			return
		}
		filter.ResourceId = &id
	}
	if v := c.Query("from"); v != "" {
		from, err := models.ParseCalendarDate(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be a calendar date (YYYY-MM-DD)"})
			return
		}
		filter.From = &from
	}
	if v := c.Query("to"); v != "" {
		to, err := models.ParseCalendarDate(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be a calendar date (YYYY-MM-DD)"})
			return
		}
		filter.To = &to
	}

	reservations, err := models.GetReservations(c.Request.Context(), &filter)
	if err != nil {
		writeError(c, "ListReservations", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservations": reservations})
}

func CreateRecurrence(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewRecurringPattern
	if !bindJSON(c, &input) {
		return
	}

	pattern, err := models.CreateRecurringPattern(c.Request.Context(), id, &input)
	if err != nil {
		writeError(c, "CreateRecurrence", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"pattern": pattern})
}

func DeleteRecurrence(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	if err := models.DeleteRecurringPattern(c.Request.Context(), id); err != nil {
		writeError(c, "DeleteRecurrence", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func GenerateRecurrenceInstances(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var opts models.GenerateInstancesOptions
	if !bindJSON(c, &opts) {
		return
	}

	result, err := models.GenerateRecurringInstances(c.Request.Context(), id, &opts)
	if err != nil {
		writeError(c, "GenerateRecurrenceInstances", err)
		return
	}
	c.JSON(http.StatusOK, result)
}
