package occ

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMergeDisjointChanges(t *testing.T) {
	base := map[string]any{"a": 1, "b": 1}
	local := map[string]any{"a": 2}
	remote := map[string]any{"a": 1, "b": 2}

	merged := MergeConflicts(base, local, remote)
	require.Equal(t, map[string]any{"a": 2, "b": 2}, merged)
}

func TestMergeRemoteWinsOnTrueConflict(t *testing.T) {
	base := map[string]any{"title": "draft"}
	local := map[string]any{"title": "mine"}
	remote := map[string]any{"title": "theirs"}

	merged := MergeConflicts(base, local, remote)
	require.Equal(t, map[string]any{"title": "theirs"}, merged)
}

func TestMergeLocalAddition(t *testing.T) {
	base := map[string]any{"a": 1}
	local := map[string]any{"a": 1, "note": "added locally"}
	remote := map[string]any{"a": 1}

	merged := MergeConflicts(base, local, remote)
	require.Equal(t, map[string]any{"a": 1, "note": "added locally"}, merged)
}

func TestMergeRemoteDeletionBeatsLocalEdit(t *testing.T) {
	base := map[string]any{"a": 1, "b": 1}
	local := map[string]any{"a": 1, "b": 2}
	remote := map[string]any{"a": 1}

	merged := MergeConflicts(base, local, remote)
	require.Equal(t, map[string]any{"a": 1}, merged)
}

func TestMergeBothAddSameKey(t *testing.T) {
	base := map[string]any{}
	local := map[string]any{"tag": "local"}
	remote := map[string]any{"tag": "remote"}

	merged := MergeConflicts(base, local, remote)
	require.Equal(t, map[string]any{"tag": "remote"}, merged)
}

func TestMergeUnchangedLocalNeverOverridesRemote(t *testing.T) {
	base := map[string]any{"status": "open"}
	local := map[string]any{"status": "open"}
	remote := map[string]any{"status": "closed"}

	merged := MergeConflicts(base, local, remote)
	require.Equal(t, map[string]any{"status": "closed"}, merged)
}
