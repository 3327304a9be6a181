package mongo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/todoapp/tasktracker/internal/core/domain"
)

func TestToAuthEventDoc(t *testing.T) {
	occurred := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
	doc := toAuthEventDoc(&domain.AuthEvent{
		Type:       domain.AuthEventLoginFailed,
		Username:   "alice",
		Reason:     "password mismatch",
		OccurredAt: occurred,
	})

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)

	var m bson.M
	require.NoError(t, bson.Unmarshal(raw, &m))

	assert.Equal(t, "login_failed", m["type"])
	assert.Equal(t, "alice", m["username"])
	assert.Equal(t, "password mismatch", m["reason"])
	_, hasUserID := m["user_id"]
	assert.False(t, hasUserID, "zero user id is omitted")
	assert.Equal(t, time.UTC, doc.OccurredAt.Location())
}
