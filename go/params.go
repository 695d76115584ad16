package farmasyncserver

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"

	apierrors "github.com/Apurer/farmasync/internal/shared/errors"
)

// parseIDParam binds a positive integer path parameter, answering 400 otherwise.
func parseIDParam(c *gin.Context, name string) (int64, bool) {
	var id int64
	err := runtime.BindStyledParameterWithOptions("simple", name, c.Param(name), &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil || id <= 0 {
		apierrors.DefaultResponder.BadRequest(c, fmt.Sprintf("path parameter %s must be a positive integer", name))
		return 0, false
	}
	return id, true
}

// bindQuery binds a form-style query parameter into dest.
func bindQuery(c *gin.Context, name string, required bool, dest any) bool {
	if err := runtime.BindQueryParameter("form", true, required, name, c.Request.URL.Query(), dest); err != nil {
		apierrors.DefaultResponder.BadRequest(c, err.Error())
		return false
	}
	return true
}

// dateRange reads the inclusive fechaInicio/fechaFin ISO date pair.
func dateRange(c *gin.Context) (start, end time.Time, ok bool) {
	var from, to openapi_types.Date
	if !bindQuery(c, "fechaInicio", true, &from) || !bindQuery(c, "fechaFin", true, &to) {
		return time.Time{}, time.Time{}, false
	}
	if to.Time.Before(from.Time) {
		apierrors.DefaultResponder.BadRequest(c, "fechaFin must not be before fechaInicio")
		return time.Time{}, time.Time{}, false
	}
	return from.Time, to.Time, true
}

// endOfDay returns the last instant of day, so a date range can bound timestamps inclusively.
func endOfDay(day time.Time) time.Time {
	return day.AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func dateOf(t *time.Time) *openapi_types.Date {
	if t == nil {
		return nil
	}
	return &openapi_types.Date{Time: *t}
}

func timeOf(d *openapi_types.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}
