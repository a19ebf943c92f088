package utils

import (
	"net/url"
	"strconv"

	"fleetcare/pkg/types"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

func ParsePaginationParams(values url.Values) (limit uint64, offset uint64, page uint64) {
	// Значения по умолчанию
	limit = DefaultLimit
	page = 1

	if limitStr := values.Get("limit"); limitStr != "" {
		if l, err := strconv.ParseUint(limitStr, 10, 64); err == nil && l > 0 {
			if l > MaxLimit {
				limit = MaxLimit
			} else {
				limit = l
			}
		}
	}

	if pageStr := values.Get("page"); pageStr != "" {
		if p, err := strconv.ParseUint(pageStr, 10, 64); err == nil && p > 0 {
			page = p
		}
	}

	// offset считается на основе страницы
	offset = (page - 1) * limit

	return
}

// ParseFilterFromQuery собирает types.Filter из query-параметров запроса.
func ParseFilterFromQuery(values url.Values) types.Filter {
	limit, offset, page := ParsePaginationParams(values)

	f := types.Filter{
		Search:         values.Get("search"),
		Filter:         map[string]interface{}{},
		Limit:          int(limit),
		Offset:         int(offset),
		Page:           int(page),
		WithPagination: true,
	}

	for _, key := range []string{"status", "type", "priority", "company_id", "branch_id", "vehicle_id"} {
		if v := values.Get(key); v != "" {
			f.Filter[key] = v
		}
	}

	return f
}
