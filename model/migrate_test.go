package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/driftmud/driftmud/model"
	"github.com/driftmud/driftmud/testutil"
)

func TestAutoMigrate_InsertAndQuery(t *testing.T) {
	db := testutil.SetupTestDB(t)

	// Account
	acc := &model.Account{Username: "test_user", PasswordHash: "hash", Status: 1}
	require.NoError(t, db.Create(acc).Error)
	assert.Greater(t, acc.ID, int64(0))

	var found model.Account
	require.NoError(t, db.First(&found, acc.ID).Error)
	assert.Equal(t, "test_user", found.Username)

	// CharacterRecord with a JSON storage set
	char := &model.CharacterRecord{
		UID:       42,
		AccountID: &acc.ID,
		Name:      "hero",
		Race:      "human",
		Data:      datatypes.JSON(`{"name":"hero","vars":{"mood":"fine"}}`),
	}
	require.NoError(t, db.Create(char).Error)
	assert.Greater(t, char.ID, int64(0))

	var gotChar model.CharacterRecord
	require.NoError(t, db.Where("uid = ?", uint64(42)).First(&gotChar).Error)
	assert.Equal(t, "hero", gotChar.Name)
	assert.JSONEq(t, `{"name":"hero","vars":{"mood":"fine"}}`, string(gotChar.Data))

	// ObjectRecord
	obj := &model.ObjectRecord{UID: 43, Name: "iron helm", Data: datatypes.JSON(`{}`)}
	require.NoError(t, db.Create(obj).Error)

	// RoomRecord
	room := &model.RoomRecord{UID: 44, Name: "square", Data: datatypes.JSON(`{}`)}
	require.NoError(t, db.Create(room).Error)

	// Duplicate uid must be rejected.
	dup := &model.RoomRecord{UID: 44, Name: "other", Data: datatypes.JSON(`{}`)}
	assert.Error(t, db.Create(dup).Error)

	// ScriptLog
	sl := &model.ScriptLog{TraceID: "trace-001", ScriptKey: "greet", TrigType: "enter", OwnerUID: 42}
	require.NoError(t, db.Create(sl).Error)
}
