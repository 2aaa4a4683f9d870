package response

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshal_OK(t *testing.T) {
	data, err := json.Marshal(OK())
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true}`, string(data))
}

func TestMarshal_Error(t *testing.T) {
	data, err := json.Marshal(Error("Invalid credentials"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"message":"Invalid credentials"}`, string(data))
}

func TestMarshal_OKWithData_FlattensFields(t *testing.T) {
	resp := OKWithData(map[string]any{
		"token":         "abc",
		"profileStatus": true,
	})

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"token":"abc","profileStatus":true}`, string(data))
}

func TestMarshal_DataCannotOverrideSuccess(t *testing.T) {
	resp := OKWithData(map[string]any{"success": false})

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true}`, string(data))
}
