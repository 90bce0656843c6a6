package pipedrive

import (
	"encoding/json"
	"fmt"
	"time"
)

// apiTimeLayout is the timestamp format used throughout the Pipedrive API
const apiTimeLayout = "2006-01-02 15:04:05"

// APITime is a custom time type that handles Pipedrive API date formats.
// The API returns UTC timestamps without timezone (e.g. "2024-03-01 09:15:00").
type APITime struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler for APITime
func (t *APITime) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		t.Time = time.Time{}
		return nil
	}

	var timeStr string
	if err := json.Unmarshal(data, &timeStr); err != nil {
		return err
	}

	// Handle empty string
	if timeStr == "" {
		t.Time = time.Time{}
		return nil
	}

	formats := []string{
		apiTimeLayout,
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02",
	}

	for _, format := range formats {
		if parsed, err := time.Parse(format, timeStr); err == nil {
			t.Time = parsed
			return nil
		}
	}

	return fmt.Errorf("unable to parse time string: %s", timeStr)
}

// MarshalJSON implements json.Marshaler for APITime
func (t APITime) MarshalJSON() ([]byte, error) {
	if t.Time.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.UTC().Format(apiTimeLayout))
}

// TokenResponse represents the OAuth token response
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
	ExpiresIn    int    `json:"expires_in"`
	APIDomain    string `json:"api_domain,omitempty"`
}

// Pagination is additional_data.pagination of a list response
type Pagination struct {
	Start                 int  `json:"start"`
	Limit                 int  `json:"limit"`
	MoreItemsInCollection bool `json:"more_items_in_collection"`
	NextStart             int  `json:"next_start"`
}
