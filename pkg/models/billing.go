package models

// CheckoutRequest represents a request to switch plans
type CheckoutRequest struct {
	Plan string `json:"plan" validate:"required,oneof=Starter Growth Enterprise"`
}

// CheckoutResponse represents a checkout session response.
// URL is empty when the plan was applied without payment.
type CheckoutResponse struct {
	SessionID string `json:"session_id,omitempty"`
	URL       string `json:"url,omitempty"`
	ExpiresAt int64  `json:"expires_at,omitempty"`
	Plan      string `json:"plan"`
	Applied   bool   `json:"applied"`
}

// PricingTier represents a pricing tier with details
type PricingTier struct {
	Name       string   `json:"name"`
	Price      int      `json:"price"`
	PriceLabel string   `json:"price_label"`
	LeadsLimit int      `json:"leads_limit"`
	TeamLimit  int      `json:"team_limit"`
	Popular    bool     `json:"popular"`
	Features   []string `json:"features"`
}

// PricingResponse represents pricing information
type PricingResponse struct {
	Tiers []PricingTier `json:"tiers"`
}
