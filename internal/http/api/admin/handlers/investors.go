package handlers

import (
	"errors"
	"net/http"
	"strings"

	dbutil "github.com/fundops/fundledger/internal/db"
	"github.com/fundops/fundledger/internal/merge"
	"github.com/fundops/fundledger/internal/models"
	"github.com/fundops/fundledger/internal/store"
	"github.com/gin-gonic/gin"
)

// recentTransactionLimit caps the audit rows returned with an investor.
const recentTransactionLimit = 50

// InvestorHandler serves investor lookups and duplicate merges.
type InvestorHandler struct {
	store *store.Store
	merge *merge.Service
}

// NewInvestorHandler constructs an InvestorHandler.
func NewInvestorHandler(s *store.Store, m *merge.Service) *InvestorHandler {
	return &InvestorHandler{store: s, merge: m}
}

// List returns investors filtered by status, KYC state or a name/code fragment.
func (h *InvestorHandler) List(c *gin.Context) {
	conn := h.store.DB()
	q := conn.WithContext(c.Request.Context()).Model(&models.Investor{})
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		q = q.Where("status = ?", status)
	}
	if kyc := strings.TrimSpace(c.Query("kyc_status")); kyc != "" {
		q = q.Where("kyc_status = ?", kyc)
	}
	if term := strings.TrimSpace(c.Query("q")); term != "" {
		pattern := dbutil.NormalizeLikePattern(conn, "%"+term+"%")
		q = q.Where("("+dbutil.CaseInsensitiveLikeExpr(conn, "full_name")+" OR "+dbutil.CaseInsensitiveLikeExpr(conn, "investor_code")+")", pattern, pattern)
	}
	var rows []models.Investor
	if errFind := q.Order("created_at DESC, id DESC").Limit(parseLimit(c)).Find(&rows).Error; errFind != nil {
		writeError(c, errFind)
		return
	}
	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, formatInvestor(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"investors": out})
}

// Get returns one investor with wallet, allocations and recent audit rows.
func (h *InvestorHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	inv, errGet := h.store.Investors.Get(ctx, id)
	if errGet != nil {
		writeError(c, errGet)
		return
	}
	item := formatInvestor(inv)

	wallet, errWallet := h.store.WalletByInvestor(ctx, id)
	switch {
	case errWallet == nil:
		item["wallet"] = formatWallet(wallet)
	case errors.Is(errWallet, store.ErrNotFound):
		item["wallet"] = nil
	default:
		writeError(c, errWallet)
		return
	}

	allocations, errAllocations := h.store.Allocations.Filter(ctx, map[string]any{"investor_id": id})
	if errAllocations != nil {
		writeError(c, errAllocations)
		return
	}
	allocationItems := make([]gin.H, 0, len(allocations))
	for i := range allocations {
		allocationItems = append(allocationItems, formatAllocation(&allocations[i]))
	}
	item["allocations"] = allocationItems

	txs, errTxs := h.store.Transactions.Search(ctx, map[string]any{"investor_id": id}, "transaction_date DESC, id DESC", recentTransactionLimit)
	if errTxs != nil {
		writeError(c, errTxs)
		return
	}
	txItems := make([]gin.H, 0, len(txs))
	for i := range txs {
		txItems = append(txItems, formatTransaction(&txs[i]))
	}
	item["transactions"] = txItems

	c.JSON(http.StatusOK, item)
}

// Duplicates lists user ids held by more than one investor.
func (h *InvestorHandler) Duplicates(c *gin.Context) {
	groups, errDetect := h.merge.Detect(c.Request.Context())
	if errDetect != nil {
		writeError(c, errDetect)
		return
	}
	out := make([]gin.H, 0, len(groups))
	for _, group := range groups {
		investors := make([]gin.H, 0, len(group.Investors))
		for i := range group.Investors {
			investors = append(investors, formatInvestor(&group.Investors[i]))
		}
		out = append(out, gin.H{"user_id": group.UserID, "investors": investors})
	}
	c.JSON(http.StatusOK, gin.H{"groups": out})
}

// mergeRequest names the user whose investors are merged.
type mergeRequest struct {
	UserID string `json:"user_id"`
}

// Merge folds a user's duplicate investors into the earliest one.
func (h *InvestorHandler) Merge(c *gin.Context) {
	var body mergeRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	userID := strings.TrimSpace(body.UserID)
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user_id"})
		return
	}
	result, errMerge := h.merge.Merge(c.Request.Context(), userID)
	if errMerge != nil {
		writeError(c, errMerge)
		return
	}
	out := gin.H{
		"user_id":         result.UserID,
		"primary_id":      result.PrimaryID,
		"merged_ids":      result.MergedIDs,
		"reassigned_rows": result.Reassigned,
		"wallet":          formatWallet(result.Wallet),
	}
	if result.Investor != nil {
		out["investor"] = formatInvestor(result.Investor)
	}
	c.JSON(http.StatusOK, out)
}
