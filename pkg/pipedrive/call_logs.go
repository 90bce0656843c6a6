package pipedrive

// Call log outcomes accepted by the API
const (
	OutcomeConnected     = "connected"
	OutcomeNoAnswer      = "no_answer"
	OutcomeLeftMessage   = "left_message"
	OutcomeLeftVoicemail = "left_voicemail"
	OutcomeWrongNumber   = "wrong_number"
	OutcomeBusy          = "busy"
)

// CallLog represents a phone call record linked to a person, organization
// or deal
type CallLog struct {
	ID              string  `json:"id,omitempty"`
	ActivityID      int     `json:"activity_id,omitempty"`
	UserID          int     `json:"user_id,omitempty"`
	PersonID        int     `json:"person_id,omitempty"`
	OrgID           int     `json:"org_id,omitempty"`
	DealID          int     `json:"deal_id,omitempty"`
	Subject         string  `json:"subject,omitempty"`
	Duration        string  `json:"duration,omitempty"`
	Outcome         string  `json:"outcome"`
	FromPhoneNumber string  `json:"from_phone_number,omitempty"`
	ToPhoneNumber   string  `json:"to_phone_number"`
	HasRecording    bool    `json:"has_recording,omitempty"`
	StartTime       APITime `json:"start_time"`
	EndTime         APITime `json:"end_time"`
	Note            string  `json:"note,omitempty"`
	CompanyID       int     `json:"company_id,omitempty"`
}
