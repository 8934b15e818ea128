package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/wovenlane/wovenlane-backend/api/responses"
	"github.com/wovenlane/wovenlane-backend/api/validators"
	"github.com/wovenlane/wovenlane-backend/internal/users"
	pkgerrors "github.com/wovenlane/wovenlane-backend/pkg/errors"
	"github.com/wovenlane/wovenlane-backend/pkg/logger"
)

// AdminCustomerList pages through customer accounts for the back office.
func AdminCustomerList(repo *users.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := paginationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := users.CustomerFilters{
			Query: validators.SanitizeString(r.URL.Query().Get("q"), maxSearchQueryLen),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("is_active")); raw != "" {
			active, parseErr := strconv.ParseBool(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "is_active must be a boolean"))
				return
			}
			filters.IsActive = &active
		}

		result, err := repo.ListCustomers(r.Context(), params, filters)
		if err != nil {
			if strings.Contains(err.Error(), "cursor") {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor"))
				return
			}
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customers"))
			return
		}

		responses.WriteSuccess(w, result)
	}
}
