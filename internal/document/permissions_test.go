package document

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecide(t *testing.T) {
	d := &Document{
		Owner: "owner-1",
		Collaborators: []Collaborator{
			{UserID: "viewer-1", Permission: PermissionView},
			{UserID: "editor-1", Permission: PermissionEdit},
		},
	}

	require.Equal(t, LevelOwner, Decide(d, "owner-1"))
	require.Equal(t, LevelView, Decide(d, "viewer-1"))
	require.Equal(t, LevelEdit, Decide(d, "editor-1"))
	require.Equal(t, LevelNone, Decide(d, "stranger"))
}

func TestLevelGrants(t *testing.T) {
	require.False(t, LevelNone.CanRead())
	require.True(t, LevelView.CanRead())
	require.False(t, LevelView.CanWrite())
	require.True(t, LevelEdit.CanRead())
	require.True(t, LevelEdit.CanWrite())
	require.True(t, LevelOwner.CanWrite())
}

func TestDecide_GrantChangeIsVisible(t *testing.T) {
	// permissions are re-evaluated per event, so a grant added mid-session
	// takes effect on the next decision
	d := &Document{Owner: "o"}
	require.Equal(t, LevelNone, Decide(d, "b"))
	d.Collaborators = append(d.Collaborators, Collaborator{UserID: "b", Permission: PermissionView})
	require.Equal(t, LevelView, Decide(d, "b"))
}

func TestParticipantIDs(t *testing.T) {
	d := &Document{
		Owner:         "o",
		Collaborators: []Collaborator{{UserID: "a", Permission: PermissionView}, {UserID: "b", Permission: PermissionEdit}},
	}
	require.Equal(t, []string{"o", "a", "b"}, d.ParticipantIDs())
}
