package handler

import (
	"encoding/json"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnwrapEventPrecedence(t *testing.T) {
	cases := []struct {
		name  string
		event string
		want  string
		err   error
	}{
		{"string body", `{"body": "{\"action\":\"listStores\"}"}`, `{"action":"listStores"}`, nil},
		{"object body", `{"body": {"action": "listStores"}}`, `{"action": "listStores"}`, nil},
		{"direct", `{"action": "getStoreInventory", "payload": {"store_id": 1}}`, `{"action": "getStoreInventory", "payload": {"store_id": 1}}`, nil},
		{"ambiguous", `{"action": "listStores", "body": "{}"}`, "", errStructure},
		{"neither", `{"payload": {}}`, "", errStructure},
		{"body number", `{"body": 42}`, "", errStructure},
		{"body string not json", `{"body": "not json"}`, "", errInvalidJSON},
		{"body string array", `{"body": "[1,2]"}`, "", errStructure},
		{"event not json", `{{`, "", errInvalidJSON},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := unwrapEvent([]byte(tc.event))
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tc.want, string(got))
		})
	}
}

func TestActionOf(t *testing.T) {
	action, err := actionOf([]byte(`{"action": "addStore"}`))
	require.NoError(t, err)
	assert.Equal(t, "addStore", action)

	action, err = actionOf([]byte(`{}`))
	require.NoError(t, err)
	assert.Empty(t, action)

	_, err = actionOf([]byte(`[]`))
	assert.ErrorIs(t, err, errStructure)

	_, err = actionOf([]byte(`{"action": 3}`))
	assert.ErrorIs(t, err, errStructure)

	_, err = actionOf([]byte(`{"action"`))
	assert.ErrorIs(t, err, errInvalidJSON)
}

func TestFieldErrorsListsMissingFields(t *testing.T) {
	var req addItemRequest
	err := decodePayload([]byte(`{"quantity": 2}`), &req)
	require.Error(t, err)

	details, ok := fieldErrors(err)
	require.True(t, ok)
	assert.Contains(t, details, "store_id is required")
	assert.Contains(t, details, "item_name is required")
}

func TestDecodePayloadTreatsNullAsEmpty(t *testing.T) {
	var req updateQuantityRequest
	err := decodePayload(nil, &req)
	_, ok := fieldErrors(err)
	assert.True(t, ok)

	err = decodePayload([]byte(`{"item_id": 1, "quantity": 0}`), &req)
	require.NoError(t, err)
	assert.Equal(t, 0, *req.Quantity)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

func jsonUnmarshal(body string, dst any) error {
	return json.Unmarshal([]byte(body), dst)
}
