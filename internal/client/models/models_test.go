package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoteFile_DecodesListing(t *testing.T) {
	raw := `[{"uuid":"u1","fileName":"a.txt","size":12,"type":"text/plain",
	  "createdAt":"2024-05-01T10:00:00Z","updatedAt":"2024-05-02T10:00:00Z",
	  "ownerId":7,"filePath":"/x"}]`

	var files []RemoteFile
	require.NoError(t, json.Unmarshal([]byte(raw), &files))
	require.Len(t, files, 1)
	assert.Equal(t, "u1", files[0].UUID)
	assert.Equal(t, "a.txt", files[0].FileName)
	assert.EqualValues(t, 12, files[0].Size)
	assert.True(t, files[0].CreatedAt.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)))
}
