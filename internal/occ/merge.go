package occ

import "reflect"

// MergeConflicts resolves a three-way merge of record data. For each field
// the local side changed from base: the local value wins when the remote
// side left the field at its base value; when both sides changed it to
// different values the remote value wins. Callers wanting field-level
// custom resolution can merge themselves before writing.
func MergeConflicts(base, local, remote map[string]any) map[string]any {
	merged := make(map[string]any, len(remote)+len(local))
	for key, value := range remote {
		merged[key] = value
	}
	for key, localValue := range local {
		baseValue, inBase := base[key]
		if inBase && reflect.DeepEqual(localValue, baseValue) {
			continue // local did not change it
		}
		remoteValue, inRemote := remote[key]
		remoteChanged := !inRemote && inBase || inRemote && !reflect.DeepEqual(remoteValue, baseValue)
		if !remoteChanged {
			merged[key] = localValue
		}
		// Otherwise remote wins, already in merged.
	}
	return merged
}
