package handler

import (
	"errors"
	"net/http"
	"time"

	balancesdomain "household-app-go/internal/domain/balances"
	choresdomain "household-app-go/internal/domain/chores"
	expensesdomain "household-app-go/internal/domain/expenses"
	householddomain "household-app-go/internal/domain/household"
	"household-app-go/internal/transport/httpserver/middleware"
	"household-app-go/pkg/logger"
)

type Handlers struct {
	Households *householddomain.Service
	Expenses   *expensesdomain.Service
	Balances   *balancesdomain.Service
	Chores     *choresdomain.Service
	log        logger.Logger
	now        func() time.Time
}

func New(households *householddomain.Service, expenses *expensesdomain.Service, balances *balancesdomain.Service, chores *choresdomain.Service, log logger.Logger) *Handlers {
	return &Handlers{
		Households: households,
		Expenses:   expenses,
		Balances:   balances,
		Chores:     chores,
		log:        log,
		now:        time.Now,
	}
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// currentHousehold resolves the caller and their household, writing the error
// response itself when either is missing.
func (h *Handlers) currentHousehold(w http.ResponseWriter, r *http.Request, action string) (middleware.User, *householddomain.Household, bool) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return middleware.User{}, nil, false
	}

	household, err := h.Households.GetHouseholdByUser(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, householddomain.ErrHouseholdNotFound) {
			h.log.BusinessError(action+": household not found", err, "user_id", user.ID)
			writeError(w, http.StatusNotFound, "household_not_found", "household not found")
			return user, nil, false
		}
		h.log.InternalError(action+": get household failed", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return user, nil, false
	}
	return user, household, true
}
