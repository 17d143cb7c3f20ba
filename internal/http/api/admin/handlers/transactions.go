package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/fundops/fundledger/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// TransactionHandler serves the wallet audit trail.
type TransactionHandler struct {
	db *gorm.DB // Database handle for transaction queries.
}

// NewTransactionHandler constructs a transaction handler.
func NewTransactionHandler(db *gorm.DB) *TransactionHandler {
	return &TransactionHandler{db: db}
}

// transactionListQuery defines filters for the audit trail view.
type transactionListQuery struct {
	Page       int    `form:"page,default=1"`   // Page number.
	Limit      int    `form:"limit,default=50"` // Page size.
	StartDate  string `form:"start_date"`       // Inclusive start date.
	EndDate    string `form:"end_date"`         // Inclusive end date.
	InvestorID uint64 `form:"investor_id"`      // Investor filter.
	Type       string `form:"type"`             // Transaction type filter.
}

// List returns transactions newest first with paging and filters.
func (h *TransactionHandler) List(c *gin.Context) {
	var q transactionListQuery
	if errBind := c.ShouldBindQuery(&q); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		return
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 200 {
		q.Limit = 50
	}

	query := h.db.WithContext(c.Request.Context()).Model(&models.FundTransaction{})
	if q.StartDate != "" {
		startTime, errParse := time.ParseInLocation("2006-01-02", q.StartDate, time.UTC)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date"})
			return
		}
		query = query.Where("transaction_date >= ?", startTime)
	}
	if q.EndDate != "" {
		endTime, errParse := time.ParseInLocation("2006-01-02", q.EndDate, time.UTC)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_date"})
			return
		}
		query = query.Where("transaction_date < ?", endTime.AddDate(0, 0, 1))
	}
	if q.InvestorID != 0 {
		query = query.Where("investor_id = ?", q.InvestorID)
	}
	if txType := strings.TrimSpace(q.Type); txType != "" {
		query = query.Where("transaction_type = ?", txType)
	}

	var total int64
	if errCount := query.Session(&gorm.Session{}).Count(&total).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count transactions failed"})
		return
	}
	var rows []models.FundTransaction
	if errFind := query.Order("transaction_date DESC, id DESC").
		Offset((q.Page - 1) * q.Limit).Limit(q.Limit).
		Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query transactions failed"})
		return
	}

	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, formatTransaction(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"transactions": out,
		"total":        total,
		"page":         q.Page,
		"limit":        q.Limit,
	})
}
