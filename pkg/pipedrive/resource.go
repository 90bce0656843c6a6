package pipedrive

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sourcegraph/conc/pool"
)

const (
	defaultPageSize     = 100
	findManyConcurrency = 5
)

// executor is the part of Client a Resource needs.
type executor interface {
	MakeAPICall(ctx context.Context, method, entity string, call Call) (Envelope, error)
}

// Resource exposes the CRUD operations of one entity collection.
type Resource struct {
	client executor
	name   string
}

// Resource returns the collection for a type name, e.g. "call_log".
func (c *Client) Resource(typeName string) *Resource {
	return &Resource{client: c, name: EntityName(typeName)}
}

// CallLogs returns the /v1/call_logs collection.
func (c *Client) CallLogs() *Resource {
	return c.Resource("call_log")
}

// Webhooks returns the /v1/webhooks collection.
func (c *Client) Webhooks() *Resource {
	return c.Resource("webhook")
}

// Name is the REST collection name.
func (r *Resource) Name() string {
	return r.name
}

// Find retrieves one record, optionally narrowed to the given fields.
func (r *Resource) Find(ctx context.Context, id string, fields ...string) (Envelope, error) {
	return r.client.MakeAPICall(ctx, http.MethodGet, r.name, Call{ID: id, FieldsToSelect: fields})
}

// List retrieves one page of the collection.
func (r *Resource) List(ctx context.Context, params map[string]interface{}, fields ...string) (Envelope, error) {
	return r.client.MakeAPICall(ctx, http.MethodGet, r.name, Call{Params: params, FieldsToSelect: fields})
}

// All walks every page of the collection and returns a single envelope
// whose data holds the items of all pages. A failure envelope on any page
// is returned as an *EnvelopeError.
func (r *Resource) All(ctx context.Context, params map[string]interface{}) (Envelope, error) {
	query := make(map[string]interface{}, len(params)+2)
	for k, v := range params {
		query[k] = v
	}
	if _, ok := query["limit"]; !ok {
		query["limit"] = defaultPageSize
	}

	start := 0
	if s, ok := query["start"].(int); ok {
		start = s
	}

	items := []interface{}{}
	for {
		query["start"] = start

		env, err := r.List(ctx, query)
		if err != nil {
			return nil, err
		}
		if err := env.Err(); err != nil {
			return nil, err
		}

		page, _ := env.Data().([]interface{})
		items = append(items, page...)

		pagination, err := env.Pagination()
		if err != nil {
			return nil, fmt.Errorf("failed to page %s at %d: %w", r.name, start, err)
		}
		if !pagination.MoreItemsInCollection {
			break
		}
		next := pagination.NextStart
		if next <= start {
			next = start + len(page)
		}
		if next <= start {
			return nil, fmt.Errorf("pagination of %s did not advance past %d", r.name, start)
		}
		start = next
	}

	return Envelope{"success": true, "data": items}, nil
}

// FindMany retrieves several records concurrently. Results keep the order
// of ids; failure envelopes are returned in place, errors abort the batch.
func (r *Resource) FindMany(ctx context.Context, ids []string, fields ...string) ([]Envelope, error) {
	results := make([]Envelope, len(ids))

	p := pool.New().WithMaxGoroutines(findManyConcurrency).WithErrors()
	for idx, id := range ids {
		i := idx
		id := id
		p.Go(func() error {
			env, err := r.Find(ctx, id, fields...)
			if err != nil {
				return fmt.Errorf("failed to find %s %s: %w", r.name, id, err)
			}
			results[i] = env
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// Create adds a record.
func (r *Resource) Create(ctx context.Context, params map[string]interface{}) (Envelope, error) {
	return r.client.MakeAPICall(ctx, http.MethodPost, r.name, Call{Params: params})
}

// Update changes a record.
func (r *Resource) Update(ctx context.Context, id string, params map[string]interface{}) (Envelope, error) {
	return r.client.MakeAPICall(ctx, http.MethodPut, r.name, Call{ID: id, Params: params})
}

// Delete removes a record.
func (r *Resource) Delete(ctx context.Context, id string) (Envelope, error) {
	return r.client.MakeAPICall(ctx, http.MethodDelete, r.name, Call{ID: id})
}

// ToParams converts a typed record into request parameters. Null fields
// are left out.
func ToParams(v interface{}) (map[string]interface{}, error) {
	params := map[string]interface{}{}
	if err := remarshal(v, &params); err != nil {
		return nil, err
	}
	for k, val := range params {
		if val == nil {
			delete(params, k)
		}
	}
	return params, nil
}
