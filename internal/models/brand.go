package models

// BrandProduct represents one product entry in a scraped brand catalog file.
type BrandProduct struct {
	Title       string         `json:"title"`
	BodyHTML    string         `json:"body_html,omitempty"`
	Vendor      string         `json:"vendor,omitempty"`
	ProductType string         `json:"product_type,omitempty"`
	Tags        string         `json:"tags,omitempty"`
	Handle      string         `json:"handle,omitempty"`
	PublishedAt string         `json:"published_at,omitempty"`
	CreatedAt   string         `json:"created_at,omitempty"`
	UpdatedAt   string         `json:"updated_at,omitempty"`
	Variants    []BrandVariant `json:"variants"`
}

// BrandVariant represents a single size or colorway offer of a BrandProduct.
// The optional fields are pointers so that absent values stay absent when the
// product is forwarded to the Admin API.
type BrandVariant struct {
	VariantTitle string   `json:"variant_title"`
	Price        string   `json:"price"`
	SKU          string   `json:"sku"`
	Barcode      *string  `json:"barcode,omitempty"`
	Weight       *float64 `json:"weight,omitempty"`
	WeightUnit   *string  `json:"weight_unit,omitempty"`
	Taxable      *bool    `json:"taxable,omitempty"`
	Available    bool     `json:"available"`
	Images       []string `json:"images,omitempty"`
}

// FirstSKU returns the SKU of the first variant, the key used to match a
// brand product against the live store.
func (p *BrandProduct) FirstSKU() string {
	if len(p.Variants) == 0 {
		return ""
	}
	return p.Variants[0].SKU
}

// HasAvailableVariant reports whether at least one variant is in stock.
func (p *BrandProduct) HasAvailableVariant() bool {
	for _, v := range p.Variants {
		if v.Available {
			return true
		}
	}
	return false
}
