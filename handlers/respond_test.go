package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"bitbucket.org/pawdesk/petcare_backend/utils"
)

func responseFor(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/reservations/1", nil)
	writeError(c, "test", err)
	return w
}

func TestWriteErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", utils.NewValidationError("end_date", "must be after start_date"), http.StatusBadRequest},
		{"conflict", &utils.ConflictError{Message: "resource has overlapping bookings"}, http.StatusConflict},
		{"not found", utils.ErrorRecordNotFound, http.StatusNotFound},
		{"tenant required", utils.ErrorTenantRequired, http.StatusForbidden},
		{"forbidden", utils.ErrorForbidden, http.StatusForbidden},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := responseFor(t, tc.err).Code; got != tc.want {
			t.Fatalf("%s: expected status %d, got %d", tc.name, tc.want, got)
		}
	}
}

func TestWriteErrorConflictBodyCarriesDetails(t *testing.T) {
	err := &utils.ConflictError{
		Message: "requested resource has overlapping bookings",
		Conflicts: []utils.ConflictDetail{{
			ReservationId: 7,
			OrderNumber:   "RES-20251021-001",
			ResourceId:    3,
			StartDate:     "2025-10-21",
			EndDate:       "2025-10-24",
		}},
	}
	w := responseFor(t, err)
	body := w.Body.String()
	for _, fragment := range []string{"RES-20251021-001", "2025-10-21", "conflicts"} {
		if !strings.Contains(body, fragment) {
			t.Fatalf("conflict response missing %q: %s", fragment, body)
		}
	}
}
