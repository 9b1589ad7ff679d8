package http

import (
	"net/http"
	"strconv"

	"clinicops/pkg/config"
	apperrors "clinicops/pkg/errors"
)

const TenantHeader = "X-Tenant-ID"

// ExtractTenantID reads the mandatory tenant scope from the request header.
// An absent or unparsable value is a missing-tenant failure, before any
// downstream work happens.
func ExtractTenantID(r *http.Request) (int64, error) {
	raw := r.Header.Get(TenantHeader)
	if raw == "" {
		return 0, apperrors.MissingTenant()
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.MissingTenant()
	}
	return id, nil
}

func ExtractLimitOffset(r *http.Request) (int, int64, error) {
	query := r.URL.Query()

	limit := 0
	if s := query.Get("take"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid take parameter: " + s)
		}
		limit = v
	}

	var offset int64
	if s := query.Get("skip"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid skip parameter: " + s)
		}
		offset = v
	}

	return config.NormalizePaginationLimit(limit), config.NormalizeOffset(offset), nil
}
