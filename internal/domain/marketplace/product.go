package marketplace

// CanonicalProduct is the normalized, provider-agnostic product record.
// Fields that could not be extracted from the provider payload stay at their
// zero value and are omitted from JSON.
type CanonicalProduct struct {
	// ID is the provider-prefixed identifier, "<tag>_<native id>"
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	// Price is the numeric price; 0 when missing or unparseable
	Price     float64    `json:"price"`
	Currency  string     `json:"currency,omitempty"`
	ImageURL  string     `json:"image_url,omitempty"`
	URL       string     `json:"url,omitempty"`
	Provider  ProviderID `json:"provider"`
	NativeID  string     `json:"native_id"`
	Available bool       `json:"available"`
	Brand     string     `json:"brand,omitempty"`
	Condition string     `json:"condition,omitempty"`
	Size      string     `json:"size,omitempty"`
	Category  string     `json:"category,omitempty"`
	Seller    *Seller    `json:"seller,omitempty"`
	Shipping  *Shipping  `json:"shipping,omitempty"`
}

// Seller describes the listing's seller when the provider exposes it
type Seller struct {
	Name     string   `json:"name,omitempty"`
	Rating   *float64 `json:"rating,omitempty"`
	Location string   `json:"location,omitempty"`
}

// Shipping describes delivery terms when the provider exposes them
type Shipping struct {
	Cost     *float64 `json:"cost,omitempty"`
	Free     bool     `json:"free,omitempty"`
	Estimate string   `json:"estimate,omitempty"`
}

// MakeProductID builds the globally unique product ID from a provider tag and native ID
func MakeProductID(tag, nativeID string) string {
	return tag + "_" + nativeID
}
