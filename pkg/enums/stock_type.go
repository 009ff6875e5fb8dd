package enums

// StockType distinguishes products drawn from a finite quantity from
// products ordered in bulk against a deadline.
type StockType string

const (
	StockTypeLimited  StockType = "limited"
	StockTypeOnDemand StockType = "on_demand"
)

var validStockTypes = []StockType{
	StockTypeLimited,
	StockTypeOnDemand,
}

// String implements fmt.Stringer.
func (s StockType) String() string {
	return string(s)
}

// IsValid reports whether the value is a known StockType.
func (s StockType) IsValid() bool {
	for _, candidate := range validStockTypes {
		if candidate == s {
			return true
		}
	}
	return false
}
