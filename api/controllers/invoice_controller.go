package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/chatinsight/chatinsight-go/auth"
	"github.com/chatinsight/chatinsight-go/store"
	"github.com/chatinsight/chatinsight-go/tool"
	"github.com/chatinsight/chatinsight-go/types"
)

const invoiceDateLayout = "2006-01-02"

// InvoiceController handles the self-reported billing entries used for the
// value-for-money comparison.
type InvoiceController struct {
	db *gorm.DB
}

func NewInvoiceController(db *gorm.DB) *InvoiceController {
	return &InvoiceController{db: db}
}

// HandleAddInvoices processes POST /api/invoices. One request can create a
// single invoice, a monthly series, or one invoice per custom date.
func (ctrl *InvoiceController) HandleAddInvoices(c *gin.Context) {
	userID, _ := auth.UserIDFromContext(c)
	var req types.InvoiceCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("invalid request body"))
		return
	}
	if req.Amount == 0 {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("invoice amount is required"))
		return
	}

	var startDate time.Time
	if req.Date != "" {
		var err error
		startDate, err = time.Parse(invoiceDateLayout, req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, tool.FastReturnError("invalid invoice date"))
			return
		}
	}

	var invoices []store.Invoice
	switch {
	case req.Count > 0 && !startDate.IsZero():
		for i := 0; i < req.Count; i++ {
			invoices = append(invoices, store.Invoice{
				UserID: userID,
				Date:   startDate.AddDate(0, i, 0),
				Amount: req.Amount,
			})
		}
	case len(req.CustomDates) > 0:
		for _, cd := range req.CustomDates {
			date, err := time.Parse(invoiceDateLayout, cd)
			if err != nil {
				continue // skip unparsable custom dates, keep the rest
			}
			invoices = append(invoices, store.Invoice{UserID: userID, Date: date, Amount: req.Amount})
		}
	case !startDate.IsZero():
		invoices = append(invoices, store.Invoice{UserID: userID, Date: startDate, Amount: req.Amount})
	}

	if len(invoices) == 0 {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("no invoices to add, check date, count and customDates"))
		return
	}
	if err := store.AddInvoices(ctrl.db, invoices); err != nil {
		tool.DefaultLogger.Errorf("[Invoices] Insert failed: %v", err)
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("failed to add invoices"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"added": len(invoices)})
}

// HandleGetInvoices processes GET /api/invoices.
func (ctrl *InvoiceController) HandleGetInvoices(c *gin.Context) {
	userID, _ := auth.UserIDFromContext(c)
	invoices, err := store.InvoicesByUser(ctrl.db, userID)
	if err != nil {
		tool.DefaultLogger.Errorf("[Invoices] Lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("failed to load invoices"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoices": invoices})
}

// HandleInvoiceStats processes GET /api/invoices/stats.
func (ctrl *InvoiceController) HandleInvoiceStats(c *gin.Context) {
	userID, _ := auth.UserIDFromContext(c)
	totals, err := store.MonthlyInvoiceStats(ctrl.db, userID)
	if err != nil {
		tool.DefaultLogger.Errorf("[Invoices] Stats failed: %v", err)
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("failed to load invoice stats"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"monthly": totals})
}

// HandleDeleteInvoice processes DELETE /api/invoices/:id.
func (ctrl *InvoiceController) HandleDeleteInvoice(c *gin.Context) {
	userID, _ := auth.UserIDFromContext(c)
	invoiceID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("invalid invoice id"))
		return
	}
	if err := store.DeleteInvoice(ctrl.db, userID, uint(invoiceID)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, tool.FastReturnError("invoice not found"))
			return
		}
		tool.DefaultLogger.Errorf("[Invoices] Delete failed: %v", err)
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("failed to delete invoice"))
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccess())
}
