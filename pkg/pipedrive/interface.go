package pipedrive

import "context"

// PipedriveClient defines the interface for Pipedrive API operations
type PipedriveClient interface {
	// MakeAPICall sends a request to /v1/<entity> and normalizes the answer
	MakeAPICall(ctx context.Context, method, entity string, call Call) (Envelope, error)

	// RefreshAccessToken exchanges the refresh token for a new token pair
	RefreshAccessToken(ctx context.Context) error

	SetTokens(accessToken, refreshToken string)
	Tokens() (accessToken, refreshToken string)

	Resource(typeName string) *Resource
	CallLogs() *Resource
	Webhooks() *Resource
}

// Reader is implemented by collections that can be read.
type Reader interface {
	Find(ctx context.Context, id string, fields ...string) (Envelope, error)
	List(ctx context.Context, params map[string]interface{}, fields ...string) (Envelope, error)
	All(ctx context.Context, params map[string]interface{}) (Envelope, error)
}

// Creator is implemented by collections that accept new records.
type Creator interface {
	Create(ctx context.Context, params map[string]interface{}) (Envelope, error)
}

// Updater is implemented by collections whose records can be changed.
type Updater interface {
	Update(ctx context.Context, id string, params map[string]interface{}) (Envelope, error)
}

// Deleter is implemented by collections whose records can be removed.
type Deleter interface {
	Delete(ctx context.Context, id string) (Envelope, error)
}

var (
	_ PipedriveClient = (*Client)(nil)
	_ Reader          = (*Resource)(nil)
	_ Creator         = (*Resource)(nil)
	_ Updater         = (*Resource)(nil)
	_ Deleter         = (*Resource)(nil)
)
