package morgen

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskDefaultsToNativeSource(t *testing.T) {
	var task Task
	require.NoError(t, json.Unmarshal([]byte(`{"id":"t1","title":"x"}`), &task))
	assert.Equal(t, SourceMorgen, task.IntegrationID)

	require.NoError(t, json.Unmarshal([]byte(`{"id":"t2","title":"y","integrationId":"linear"}`), &task))
	assert.Equal(t, "linear", task.IntegrationID)
}

func TestCalendarEffectiveID(t *testing.T) {
	assert.Equal(t, "c1", Calendar{ID: "c1", CalendarID: "prov"}.EffectiveID())
	assert.Equal(t, "prov", Calendar{CalendarID: "prov"}.EffectiveID())
	assert.Empty(t, Calendar{}.EffectiveID())
}

func TestAccountHasGroup(t *testing.T) {
	account := Account{ID: "a1", IntegrationGroups: []string{"calendars", "tasks"}}
	assert.True(t, account.HasGroup("tasks"))
	assert.False(t, account.HasGroup("contacts"))
	assert.False(t, Account{ID: "a2"}.HasGroup("tasks"))
}

func TestCalendarMyRightsToleratesProviderShapes(t *testing.T) {
	var fromDict Calendar
	require.NoError(t, json.Unmarshal([]byte(`{"id":"c1","myRights":{"mayRead":true}}`), &fromDict))

	var fromString Calendar
	require.NoError(t, json.Unmarshal([]byte(`{"id":"c2","myRights":"owner"}`), &fromString))
}

func TestValidateRequiresID(t *testing.T) {
	assert.Error(t, Tag{Name: "x"}.validate())
	assert.NoError(t, Tag{ID: "t", Name: "x"}.validate())
	assert.Error(t, Event{Title: "x"}.validate())
}
