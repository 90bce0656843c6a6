package pipedrive

// Webhook represents a webhook subscription
type Webhook struct {
	ID               int     `json:"id,omitempty"`
	CompanyID        int     `json:"company_id,omitempty"`
	OwnerID          int     `json:"owner_id,omitempty"`
	UserID           int     `json:"user_id,omitempty"`
	SubscriptionURL  string  `json:"subscription_url"`
	EventAction      string  `json:"event_action"`
	EventObject      string  `json:"event_object"`
	Version          string  `json:"version,omitempty"`
	HTTPAuthUser     string  `json:"http_auth_user,omitempty"`
	HTTPAuthPassword string  `json:"http_auth_password,omitempty"`
	IsActive         int     `json:"is_active,omitempty"`
	Type             string  `json:"type,omitempty"`
	AddTime          APITime `json:"add_time"`
	RemoveTime       APITime `json:"remove_time"`
	LastDeliveryTime APITime `json:"last_delivery_time"`
	LastHTTPStatus   int     `json:"last_http_status,omitempty"`
}
