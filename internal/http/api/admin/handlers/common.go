package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/fundops/fundledger/internal/allocation"
	"github.com/fundops/fundledger/internal/gateway"
	"github.com/fundops/fundledger/internal/ledger"
	"github.com/fundops/fundledger/internal/merge"
	"github.com/fundops/fundledger/internal/onboarding"
	"github.com/fundops/fundledger/internal/payout"
	"github.com/fundops/fundledger/internal/profit"
	"github.com/fundops/fundledger/internal/store"
	"github.com/fundops/fundledger/internal/withdrawal"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// defaultListLimit caps list endpoints when no limit is given.
const defaultListLimit = 200

// parseIDParam reads the :id path parameter.
func parseIDParam(c *gin.Context) (uint64, bool) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// parseLimit reads ?limit=, falling back to defaultListLimit.
func parseLimit(c *gin.Context) int {
	limit, errParse := strconv.Atoi(strings.TrimSpace(c.Query("limit")))
	if errParse != nil || limit <= 0 || limit > 1000 {
		return defaultListLimit
	}
	return limit
}

// readAdminIDFromContext returns the admin ID set by the auth middleware.
func readAdminIDFromContext(c *gin.Context) (uint64, bool) {
	value, ok := c.Get("adminID")
	if !ok {
		return 0, false
	}
	id, ok := value.(uint64)
	return id, ok
}

// bindOptionalJSON binds a JSON body when one was sent.
func bindOptionalJSON(c *gin.Context, dst any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if errBind := c.ShouldBindJSON(dst); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return false
	}
	return true
}

// writeError maps workflow errors onto HTTP responses.
func writeError(c *gin.Context, err error) {
	status, message := classifyError(err)
	if status >= http.StatusInternalServerError {
		log.WithError(err).WithField("path", c.FullPath()).Error("admin request failed")
	}
	c.JSON(status, gin.H{"error": message})
}

func classifyError(err error) (int, string) {
	var statusErr *gateway.StatusError
	switch {
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, ledger.ErrWalletNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, merge.ErrNoDuplicates):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, withdrawal.ErrInvalidTransition),
		errors.Is(err, payout.ErrInvalidTransition),
		errors.Is(err, onboarding.ErrInvalidTransition),
		errors.Is(err, store.ErrVersionConflict):
		return http.StatusConflict, err.Error()
	case errors.Is(err, withdrawal.ErrReasonRequired),
		errors.Is(err, payout.ErrReasonRequired),
		errors.Is(err, payout.ErrReferenceRequired),
		errors.Is(err, onboarding.ErrReasonRequired),
		errors.Is(err, profit.ErrInvalidPercentage),
		errors.Is(err, ledger.ErrInvalidAmount):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, ledger.ErrInsufficientBalance),
		errors.Is(err, allocation.ErrPlanInactive),
		errors.Is(err, allocation.ErrNotActive),
		errors.Is(err, gateway.ErrMissingCredentials),
		errors.Is(err, gateway.ErrUnknownGateway),
		errors.Is(err, gateway.ErrMissingBeneficiary):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.As(err, &statusErr),
		errors.Is(err, gateway.ErrNoReference),
		errors.Is(err, payout.ErrGatewayFailed):
		return http.StatusBadGateway, err.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// requestFilters reads the status and investor_id query filters shared by request lists.
func requestFilters(c *gin.Context) (map[string]any, bool) {
	conds := map[string]any{}
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		conds["status"] = status
	}
	if raw := strings.TrimSpace(c.Query("investor_id")); raw != "" {
		investorID, errParse := strconv.ParseUint(raw, 10, 64)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid investor_id"})
			return nil, false
		}
		conds["investor_id"] = investorID
	}
	return conds, true
}
