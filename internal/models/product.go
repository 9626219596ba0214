package models

// ProductOption is a single marketplace search result. It is ephemeral:
// produced by a search call and discarded when the user moves on.
type ProductOption struct {
	ProductName string  `json:"productName"`
	ImageURL    string  `json:"imageUrl"`
	Price       string  `json:"price"` // display string, e.g. "R$ 89,90"
	Rating      float64 `json:"rating"`
	Commission  string  `json:"commission"`  // e.g. "12.5%"
	SalesVolume string  `json:"salesVolume"` // e.g. "1500 vendidos"
	ProductURL  string  `json:"productUrl"`
}

// Validate checks the fields the UI cannot render without.
func (p *ProductOption) Validate() error {
	if p.ProductName == "" {
		return ErrMalformedProduct
	}
	if p.ProductURL == "" {
		return ErrMalformedProduct
	}
	return nil
}
