package service

import (
	"strconv"
	"strings"

	appErrors "github.com/alumtek/budgets-api/pkg/errors"
)

// QuotationKey derives the relational key correlated with a BudgetID.
// Plain numeric ids ("100") parse directly; prefixed ids ("Q-100") resolve to
// their trailing numeric run.
func QuotationKey(budgetID string) (int64, error) {
	trimmed := strings.TrimSpace(budgetID)
	if trimmed == "" {
		return 0, appErrors.Clone(appErrors.ErrValidation, "budget id is required")
	}

	if id, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return id, nil
	}

	end := len(trimmed)
	start := end
	for start > 0 && trimmed[start-1] >= '0' && trimmed[start-1] <= '9' {
		start--
	}
	if start == end {
		return 0, appErrors.Clone(appErrors.ErrValidation, "budget id has no numeric component: "+budgetID)
	}

	id, err := strconv.ParseInt(trimmed[start:end], 10, 64)
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, "budget id has no numeric component: "+budgetID)
	}
	return id, nil
}
