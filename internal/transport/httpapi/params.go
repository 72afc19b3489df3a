package httpapi

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const dateLayout = "2006-01-02"

func uuidParam(c echo.Context, name string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(c.Param(name)))
}

func parseDate(value string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, strings.TrimSpace(value), time.UTC)
}

// parseInstant accepts an RFC 3339 timestamp or a bare date, the latter
// meaning midnight UTC.
func parseInstant(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return parseDate(value)
}

// windowQuery reads the start/end query parameters. A bare date in "end"
// is widened to the end of that day so date-only ranges are inclusive.
func windowQuery(c echo.Context) (time.Time, time.Time, error) {
	startStr := c.QueryParam("start")
	endStr := c.QueryParam("end")
	if startStr == "" || endStr == "" {
		return time.Time{}, time.Time{}, errors.New("start and end query parameters are required")
	}

	start, err := parseInstant(startStr)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("start must be an RFC 3339 timestamp or a YYYY-MM-DD date")
	}
	end, err := parseInstant(endStr)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("end must be an RFC 3339 timestamp or a YYYY-MM-DD date")
	}
	if len(strings.TrimSpace(endStr)) == len(dateLayout) {
		end = end.AddDate(0, 0, 1)
	}
	return start, end, nil
}
