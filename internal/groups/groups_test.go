package groups

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/gutenmorgen/internal/config"
	"github.com/teemow/gutenmorgen/internal/morgen"
)

func testFile() config.File {
	return config.File{
		DefaultGroup: "work",
		ActiveOnly:   true,
		Groups: map[string]config.GroupsEntry{
			"work": {
				Accounts:  []string{"me@corp.example:google"},
				Calendars: []string{"Team", "Meetings"},
			},
			"personal": {
				Accounts: []string{"me@home.example"},
			},
		},
	}
}

func TestResolveExplicitGroup(t *testing.T) {
	filter, err := Resolve(testFile(), "personal")
	require.NoError(t, err)
	assert.Equal(t, []string{"me@home.example"}, filter.AccountKeys)
	assert.Empty(t, filter.CalendarNames)
	assert.False(t, filter.ActiveOnly)
}

func TestResolveFallsBackToDefaultGroup(t *testing.T) {
	filter, err := Resolve(testFile(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"me@corp.example:google"}, filter.AccountKeys)
	assert.Equal(t, []string{"Team", "Meetings"}, filter.CalendarNames)
}

func TestResolveAllBypassesGroupsAndActiveOnly(t *testing.T) {
	filter, err := Resolve(testFile(), All)
	require.NoError(t, err)
	assert.Equal(t, morgen.ListEventsFilter{}, filter)
}

func TestResolveNoGroupsUsesActiveOnly(t *testing.T) {
	filter, err := Resolve(config.File{ActiveOnly: true}, "")
	require.NoError(t, err)
	assert.True(t, filter.ActiveOnly)
	assert.Empty(t, filter.AccountKeys)
}

func TestResolveUnknownGroup(t *testing.T) {
	_, err := Resolve(testFile(), "nope")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "nope", nf.Name)
	assert.Equal(t, []string{"personal", "work"}, nf.Available)
	assert.Equal(t, "group_not_found", nf.Type())
	require.Len(t, nf.Suggestions(), 1)
	assert.Contains(t, nf.Suggestions()[0], "personal, work")
}
