package customer

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("customer not found")

	ErrClassifierUnavailable = errors.New("customer classifier unavailable")
)

// Classification is the customer's category. It governs which account
// types the customer may open and how many of each.
type Classification string

const (
	ClassificationPersonal Classification = "PERSONAL"
	ClassificationBusiness Classification = "BUSINESS"
)

// IsKnown reports whether the classification is one of the recognized
// variants. Anything else is rejected by the eligibility rules.
func (c Classification) IsKnown() bool {
	return c == ClassificationPersonal || c == ClassificationBusiness
}

// Classifier resolves a customer's classification. The customer data
// itself lives in a separate service; only the classification is
// consumed here.
type Classifier interface {
	GetClassification(ctx context.Context, customerID string) (Classification, error)
}
