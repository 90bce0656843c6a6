package pipedrive

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	method string
	entity string
	call   Call
}

// fakeExecutor records every call and answers through respond.
type fakeExecutor struct {
	mu      sync.Mutex
	calls   []recordedCall
	respond func(method, entity string, call Call) (Envelope, error)
}

func (f *fakeExecutor) MakeAPICall(ctx context.Context, method, entity string, call Call) (Envelope, error) {
	f.mu.Lock()
	f.calls = append(f.calls, recordedCall{method: method, entity: entity, call: call})
	f.mu.Unlock()

	if f.respond == nil {
		return Envelope{"success": true}, nil
	}
	return f.respond(method, entity, call)
}

func TestResource_CRUD(t *testing.T) {
	exec := &fakeExecutor{}
	r := &Resource{client: exec, name: "call_logs"}
	ctx := context.Background()

	_, err := r.Find(ctx, "c1", "id", "subject")
	require.NoError(t, err)
	_, err = r.List(ctx, map[string]interface{}{"limit": 10})
	require.NoError(t, err)
	_, err = r.Create(ctx, map[string]interface{}{"outcome": OutcomeConnected})
	require.NoError(t, err)
	_, err = r.Update(ctx, "c1", map[string]interface{}{"note": "called back"})
	require.NoError(t, err)
	_, err = r.Delete(ctx, "c1")
	require.NoError(t, err)

	want := []recordedCall{
		{http.MethodGet, "call_logs", Call{ID: "c1", FieldsToSelect: []string{"id", "subject"}}},
		{http.MethodGet, "call_logs", Call{Params: map[string]interface{}{"limit": 10}}},
		{http.MethodPost, "call_logs", Call{Params: map[string]interface{}{"outcome": "connected"}}},
		{http.MethodPut, "call_logs", Call{ID: "c1", Params: map[string]interface{}{"note": "called back"}}},
		{http.MethodDelete, "call_logs", Call{ID: "c1"}},
	}
	assert.Equal(t, want, exec.calls)
}

func TestClient_Resources(t *testing.T) {
	client := NewWithLogger(Config{DomainURL: "https://acme.pipedrive.com", AccessToken: "token"}, nil)

	assert.Equal(t, "call_logs", client.CallLogs().Name())
	assert.Equal(t, "webhooks", client.Webhooks().Name())
	assert.Equal(t, "persons", client.Resource("Person").Name())
}

func page(start int, more bool, next int, items ...interface{}) Envelope {
	return Envelope{
		"success": true,
		"data":    items,
		"additional_data": map[string]interface{}{
			"pagination": map[string]interface{}{
				"start":                    start,
				"limit":                    2,
				"more_items_in_collection": more,
				"next_start":               next,
			},
		},
	}
}

func TestResource_All(t *testing.T) {
	t.Run("walks every page", func(t *testing.T) {
		exec := &fakeExecutor{
			respond: func(method, entity string, call Call) (Envelope, error) {
				switch call.Params["start"] {
				case 0:
					return page(0, true, 2, "a", "b"), nil
				case 2:
					return page(2, true, 4, "c", "d"), nil
				default:
					return page(4, false, 0, "e"), nil
				}
			},
		}
		r := &Resource{client: exec, name: "webhooks"}

		env, err := r.All(context.Background(), nil)
		require.NoError(t, err)
		assert.True(t, env.Success())
		assert.Equal(t, []interface{}{"a", "b", "c", "d", "e"}, env.Data())

		require.Len(t, exec.calls, 3)
		assert.Equal(t, defaultPageSize, exec.calls[0].call.Params["limit"])
	})

	t.Run("keeps caller limit and start", func(t *testing.T) {
		exec := &fakeExecutor{
			respond: func(method, entity string, call Call) (Envelope, error) {
				return page(10, false, 0, "x"), nil
			},
		}
		r := &Resource{client: exec, name: "call_logs"}

		_, err := r.All(context.Background(), map[string]interface{}{"limit": 5, "start": 10})
		require.NoError(t, err)
		require.Len(t, exec.calls, 1)
		assert.Equal(t, 5, exec.calls[0].call.Params["limit"])
		assert.Equal(t, 10, exec.calls[0].call.Params["start"])
	})

	t.Run("failure envelope becomes an error", func(t *testing.T) {
		exec := &fakeExecutor{
			respond: func(method, entity string, call Call) (Envelope, error) {
				return Envelope{"success": false, "failed": true, "error": "quota exceeded"}, nil
			},
		}
		r := &Resource{client: exec, name: "call_logs"}

		env, err := r.All(context.Background(), nil)
		assert.Nil(t, env)

		var envErr *EnvelopeError
		require.ErrorAs(t, err, &envErr)
		assert.True(t, envErr.Envelope.Failed())
	})

	t.Run("malformed pagination is an error", func(t *testing.T) {
		exec := &fakeExecutor{
			respond: func(method, entity string, call Call) (Envelope, error) {
				return Envelope{
					"success": true,
					"data":    []interface{}{"a"},
					"additional_data": map[string]interface{}{
						"pagination": map[string]interface{}{"more_items_in_collection": "yes"},
					},
				}, nil
			},
		}
		r := &Resource{client: exec, name: "call_logs"}

		env, err := r.All(context.Background(), nil)
		assert.Nil(t, env)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid pagination")
		assert.Len(t, exec.calls, 1)
	})

	t.Run("stalled pagination is an error", func(t *testing.T) {
		exec := &fakeExecutor{
			respond: func(method, entity string, call Call) (Envelope, error) {
				return page(0, true, 0), nil
			},
		}
		r := &Resource{client: exec, name: "call_logs"}

		_, err := r.All(context.Background(), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "did not advance")
	})
}

func TestResource_FindMany(t *testing.T) {
	t.Run("keeps the order of ids", func(t *testing.T) {
		exec := &fakeExecutor{
			respond: func(method, entity string, call Call) (Envelope, error) {
				if call.ID == "missing" {
					return Envelope{"success": false, "error": "not found"}, nil
				}
				return Envelope{"success": true, "data": map[string]interface{}{"id": call.ID}}, nil
			},
		}
		r := &Resource{client: exec, name: "call_logs"}

		ids := []string{"a", "b", "missing", "d", "e", "f", "g"}
		results, err := r.FindMany(context.Background(), ids)
		require.NoError(t, err)
		require.Len(t, results, len(ids))

		for i, id := range ids {
			if id == "missing" {
				assert.False(t, results[i].Success())
				continue
			}
			assert.Equal(t, map[string]interface{}{"id": id}, results[i].Data())
		}
		assert.Len(t, exec.calls, len(ids))
	})

	t.Run("transport errors abort the batch", func(t *testing.T) {
		boom := errors.New("connection reset")
		exec := &fakeExecutor{
			respond: func(method, entity string, call Call) (Envelope, error) {
				if call.ID == "b" {
					return nil, boom
				}
				return Envelope{"success": true}, nil
			},
		}
		r := &Resource{client: exec, name: "call_logs"}

		_, err := r.FindMany(context.Background(), []string{"a", "b", "c"})
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "call_logs b")
	})
}

func TestToParams(t *testing.T) {
	params, err := ToParams(CallLog{
		Outcome:       OutcomeNoAnswer,
		ToPhoneNumber: "+3725551234",
		PersonID:      42,
	})
	require.NoError(t, err)

	assert.Equal(t, "no_answer", params["outcome"])
	assert.Equal(t, "+3725551234", params["to_phone_number"])
	assert.EqualValues(t, 42, params["person_id"])
	assert.NotContains(t, params, "start_time")
	assert.NotContains(t, params, "id")
}
