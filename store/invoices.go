package store

import (
	"fmt"

	"gorm.io/gorm"
)

// AddInvoices inserts a batch of invoices in one transaction.
func AddInvoices(db *gorm.DB, invoices []Invoice) error {
	if len(invoices) == 0 {
		return nil
	}
	if err := db.Create(&invoices).Error; err != nil {
		return fmt.Errorf("store: add invoices: %w", err)
	}
	return nil
}

// InvoicesByUser returns the user's invoices, most recent date first.
func InvoicesByUser(db *gorm.DB, userID uint) ([]Invoice, error) {
	var invoices []Invoice
	if err := db.Where("user_id = ?", userID).Order("date DESC").Find(&invoices).Error; err != nil {
		return nil, fmt.Errorf("store: invoices by user: %w", err)
	}
	return invoices, nil
}

// MonthlyInvoiceTotal is one month's spend for the invoice stats endpoint.
type MonthlyInvoiceTotal struct {
	Month string  `json:"month"`
	Total float64 `json:"total"`
}

// MonthlyInvoiceStats aggregates the user's invoices per calendar month.
func MonthlyInvoiceStats(db *gorm.DB, userID uint) ([]MonthlyInvoiceTotal, error) {
	var totals []MonthlyInvoiceTotal
	err := db.Model(&Invoice{}).
		Select("strftime('%Y-%m', date) AS month, SUM(amount) AS total").
		Where("user_id = ?", userID).
		Group("month").
		Order("month ASC").
		Scan(&totals).Error
	if err != nil {
		return nil, fmt.Errorf("store: monthly invoice stats: %w", err)
	}
	return totals, nil
}

// DeleteInvoice removes one invoice, scoped to its owner.
func DeleteInvoice(db *gorm.DB, userID, invoiceID uint) error {
	result := db.Where("id = ? AND user_id = ?", invoiceID, userID).Delete(&Invoice{})
	if result.Error != nil {
		return fmt.Errorf("store: delete invoice: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
