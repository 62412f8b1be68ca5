package notes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestOwnedBy(t *testing.T) {
	assert.Equal(t, bson.M{"_id": "n1", "user_id": "u1"}, ownedBy("n1", "u1"))
}

func TestNotNewerThan_GuardsModifiedAt(t *testing.T) {
	n := sampleNote()

	f := notNewerThan(n)
	assert.Equal(t, "n1", f["_id"])
	assert.Equal(t, "u1", f["user_id"])
	assert.Equal(t, bson.M{"$lte": t1}, f["modified_at"])
}

func TestUpdateDoc_SetsContentOnly(t *testing.T) {
	n := sampleNote()

	set, ok := updateDoc(n)["$set"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, bson.M{"title": "Groceries", "content": "milk", "modified_at": t1}, set)
}

func TestNoteBSONRoundTrip(t *testing.T) {
	raw, err := bson.Marshal(sampleNote())
	require.NoError(t, err)

	var doc bson.M
	require.NoError(t, bson.Unmarshal(raw, &doc))
	assert.Equal(t, "n1", doc["_id"])
	assert.Equal(t, "u1", doc["user_id"])
	assert.Contains(t, doc, "modified_at")
}
