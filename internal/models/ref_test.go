package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefMarshalVariants(t *testing.T) {
	data, err := json.Marshal(Unresolved[Teacher]("t1"))
	require.NoError(t, err)
	assert.JSONEq(t, `"t1"`, string(data))

	data, err = json.Marshal(Resolved("t1", &Teacher{ID: "t1", Name: "Tess"}))
	require.NoError(t, err)
	var obj map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &obj))
	assert.Equal(t, "t1", obj["id"])
	assert.Equal(t, "Tess", obj["name"])

	data, err = json.Marshal(Ref[Teacher]{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestRefUnmarshalAcceptsBothShapes(t *testing.T) {
	var req struct {
		Teacher Ref[Teacher] `json:"teacher"`
		Speaker Ref[Speaker] `json:"speaker"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"teacher":"t1","speaker":{"id":"s1","name":"Ada"}}`), &req))

	assert.False(t, req.Teacher.IsResolved())
	assert.Equal(t, "t1", req.Teacher.ID())
	_, ok := req.Teacher.Entity()
	assert.False(t, ok)

	speaker, ok := req.Speaker.Entity()
	require.True(t, ok)
	assert.Equal(t, "s1", req.Speaker.ID())
	assert.Equal(t, "Ada", speaker.Name)
}

func TestRefUnmarshalRejectsOtherJSON(t *testing.T) {
	var ref Ref[Teacher]
	assert.Error(t, json.Unmarshal([]byte(`42`), &ref))
	require.NoError(t, json.Unmarshal([]byte(`null`), &ref))
	assert.Equal(t, "", ref.ID())
}
