package dto

import (
	"bytes"

	"github.com/shopspring/decimal"

	"github.com/hongminglow/expense-api/internal/models"
)

// Amount decodes a JSON number or numeric string. "" and null decode as zero,
// which callers read as "not provided".
type Amount struct {
	decimal.Decimal
}

// NewAmount wraps d.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d}
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte(`""`)) {
		a.Decimal = decimal.Zero
		return nil
	}
	return a.Decimal.UnmarshalJSON(trimmed)
}

// ExpenseRequest carries create and update bodies. Zero values mean "not provided".
type ExpenseRequest struct {
	Title    string `json:"title"`
	Amount   Amount `json:"amount"`
	Category string `json:"category"`
	Date     string `json:"date"`
}

// ExpenseList is the paginated listing envelope.
type ExpenseList struct {
	Data  []models.Expense `json:"data"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
	Total int64            `json:"total"`
}
