package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/neiist-dev/shop-backend/pkg/errors"
	"github.com/neiist-dev/shop-backend/pkg/types"
)

// ParseQueryBool reads an optional boolean flag. An empty or absent value
// yields the default; anything strconv.ParseBool rejects is a validation
// error.
func ParseQueryBool(r *http.Request, key string, defaultVal bool) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be a boolean").WithDetails(map[string]any{"field": key})
	}
	return value, nil
}

// reservedQueryKeys are query parameters with routing or filter meaning;
// everything else on an options URL is an option selection pair.
var reservedQueryKeys = map[string]struct{}{
	"type":     {},
	"featured": {},
}

// SelectionsFromQuery turns the request's query pairs into an option
// selection map. Repeated keys are rejected because a dimension can only
// hold a single value.
func SelectionsFromQuery(r *http.Request) (types.OptionMap, error) {
	selections := types.OptionMap{}
	for key, values := range r.URL.Query() {
		if _, reserved := reservedQueryKeys[key]; reserved {
			continue
		}
		if len(values) != 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "option selected more than once").WithDetails(map[string]any{"field": key})
		}
		selections[key] = values[0]
	}
	return selections, nil
}
