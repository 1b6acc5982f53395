package api

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/ledger_backend/utils"
)

func tenantOf(c *gin.Context) string {
	tenantId, _ := utils.GetTenantIdFromContext(c.Request.Context())
	return tenantId
}

func actorOf(c *gin.Context) int {
	userId, _ := utils.GetUserIdFromContext(c.Request.Context())
	return userId
}

func idParam(c *gin.Context, name string) (int, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		return 0, utils.InvalidInput("%s must be a positive integer", name)
	}
	return id, nil
}

func optionalInt(value string, name string) (*int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return nil, utils.InvalidInput("%s must be an integer", name)
	}
	return &n, nil
}

func optionalBool(value string, name string) (*bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return nil, utils.InvalidInput("%s must be a boolean", name)
	}
	return &b, nil
}

// parseStart parses a lower bound; date-only values are midnight UTC.
func parseStart(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := utils.ParseDate(value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// parseEnd parses an upper bound; date-only values cover the whole day.
func parseEnd(value string) (*time.Time, error) {
	t, err := parseStart(value)
	if err != nil || t == nil {
		return t, err
	}
	if utils.IsDateOnly(value) {
		end := utils.EndOfDay(*t)
		return &end, nil
	}
	return t, nil
}

func requiredWindow(c *gin.Context, startKey string, endKey string) (time.Time, time.Time, error) {
	start, err := parseStart(c.Query(startKey))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseEnd(c.Query(endKey))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if start == nil || end == nil {
		return time.Time{}, time.Time{}, utils.InvalidInput("%s and %s are required", startKey, endKey)
	}
	return *start, *end, nil
}

// asOfParam returns the zero time when as_of is absent, which the engine reads as now.
func asOfParam(c *gin.Context) (time.Time, error) {
	t, err := parseStart(c.Query("as_of"))
	if err != nil || t == nil {
		return time.Time{}, err
	}
	return *t, nil
}
