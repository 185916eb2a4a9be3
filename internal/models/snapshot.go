package models

// Snapshot is the durable form of the whole store. The same structure is
// used for the local snapshot and for the export/import transfer format.
type Snapshot struct {
	Users         []User         `json:"users"`
	Posts         []Post         `json:"posts"`
	Messages      []Message      `json:"messages"`
	Notifications []Notification `json:"notifications"`
	CurrentUserID *string        `json:"currentUserId"`
}

// Contains reports whether id is present in ids.
func Contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// Toggle removes id from ids when present and appends it otherwise.
// The returned flag is true when id ends up present.
func Toggle(ids []string, id string) ([]string, bool) {
	if Contains(ids, id) {
		return Remove(ids, id), false
	}
	return append(ids, id), true
}

// Remove returns ids without any occurrence of id.
func Remove(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func cloneIDs(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}
