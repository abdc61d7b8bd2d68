package realtime

import "github.com/google/uuid"

// GroupRoom returns the room name every member of a group shares.
func GroupRoom(groupID uuid.UUID) string {
	return "group_" + groupID.String()
}

// DirectRoom returns the room name for a one-on-one conversation. The two
// user IDs are ordered so both participants derive the same name.
func DirectRoom(a, b uuid.UUID) string {
	lo, hi := a.String(), b.String()
	if hi < lo {
		lo, hi = hi, lo
	}
	return "direct_" + lo + "_" + hi
}
