package domain

// Product is a purchasable catalog entry. Prices are integer cents.
type Product struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unitPrice"`
}

// ScoredProduct is a catalog product with its keyword score for one analysis call
type ScoredProduct struct {
	Product
	Score int `json:"score"`
	// MatchedLabels lists the extracted labels the product name satisfied, in pattern table order
	MatchedLabels []string `json:"matchedLabels,omitempty"`
}

// ProductMatch is a catalog product selected for a customer need
type ProductMatch struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	UnitPrice   int64   `json:"unitPrice"`
	Confidence  float64 `json:"confidence"`
	Evidence    string  `json:"evidence"`
	Reasoning   string  `json:"reasoning"`
}

// BundleItem is one resolved slot of a bundle template
type BundleItem struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	Quantity    int    `json:"quantity"`
}

// ProductBundle is a discounted multi-product package
type ProductBundle struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Products    []BundleItem `json:"products"`
	TotalPrice  int64        `json:"totalPrice"` // after discount
	Savings     int64        `json:"savings"`
	Confidence  float64      `json:"confidence"`
}

// ComplementarySuggestion is an advisory add-on for the selected products
type ComplementarySuggestion struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Reason      string  `json:"reason"`
	Confidence  float64 `json:"confidence"`
}
