package enums

import "fmt"

// TransactionType classifies an inventory ledger entry.
type TransactionType string

const (
	TransactionTypePurchase   TransactionType = "purchase"
	TransactionTypeSale       TransactionType = "sale"
	TransactionTypeAdjustment TransactionType = "adjustment"
	TransactionTypeReturn     TransactionType = "return"
)

var validTransactionTypes = []TransactionType{
	TransactionTypePurchase,
	TransactionTypeSale,
	TransactionTypeAdjustment,
	TransactionTypeReturn,
}

func (t TransactionType) String() string {
	return string(t)
}

func (t TransactionType) IsValid() bool {
	for _, candidate := range validTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTransactionType converts raw input into a TransactionType.
func ParseTransactionType(value string) (TransactionType, error) {
	for _, candidate := range validTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction type %q", value)
}
