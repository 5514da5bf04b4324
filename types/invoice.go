package types

// InvoiceCreateRequest is the body of POST /api/invoices. Exactly one of the
// three forms applies: a single date, a count of monthly repeats starting at
// date, or an explicit list of custom dates.
type InvoiceCreateRequest struct {
	Date        string   `json:"date"`
	Amount      float64  `json:"amount"`
	Count       int      `json:"count"`
	CustomDates []string `json:"customDates"`
}
