package expenses

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hongminglow/expense-api/internal/apperr"
	"github.com/hongminglow/expense-api/internal/models"
	"github.com/hongminglow/expense-api/internal/models/dto"
)

const (
	msgRequired        = "Title, amount, category and date are required fields."
	msgAmountPositive  = "Amount must be a positive value."
	msgInvalidDate     = "Invalid date format."
	msgNotFound        = "Expense not found"
	msgForbidden       = "Not authorized to access this expense"
	msgInvalidStart    = "Invalid startDate."
	msgInvalidEnd      = "Invalid endDate."
	msgUnauthenticated = "Not authorized, no token"
)

var minAmount = decimal.RequireFromString("0.01")

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate accepts an RFC 3339 timestamp, a zoneless timestamp or a bare date.
// Zoneless values are read as UTC.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func invalidCategory() *apperr.Error {
	return apperr.InvalidInput("Invalid category. Must be one of: " + models.CategoryNames())
}

// validateNew checks a create body in order: presence, amount, category, date.
func validateNew(req dto.ExpenseRequest) (models.Category, time.Time, error) {
	if strings.TrimSpace(req.Title) == "" || req.Amount.IsZero() || req.Category == "" || strings.TrimSpace(req.Date) == "" {
		return "", time.Time{}, apperr.InvalidInput(msgRequired)
	}
	if req.Amount.LessThan(minAmount) {
		return "", time.Time{}, apperr.InvalidInput(msgAmountPositive)
	}
	category, ok := models.ParseCategory(req.Category)
	if !ok {
		return "", time.Time{}, invalidCategory()
	}
	date, ok := ParseDate(req.Date)
	if !ok {
		return "", time.Time{}, apperr.InvalidInput(msgInvalidDate)
	}
	return category, date, nil
}

// applyPatch overwrites only the fields the request actually carries.
func applyPatch(expense models.Expense, req dto.ExpenseRequest) (models.Expense, error) {
	if title := strings.TrimSpace(req.Title); title != "" {
		expense.Title = title
	}
	if !req.Amount.IsZero() {
		expense.Amount = req.Amount.Decimal
	}
	if req.Category != "" {
		expense.Category = models.Category(req.Category)
	}
	if strings.TrimSpace(req.Date) != "" {
		date, ok := ParseDate(req.Date)
		if !ok {
			return models.Expense{}, apperr.InvalidInput(msgInvalidDate)
		}
		expense.Date = date
	}
	return expense, nil
}
