package auth

import "strings"

// AdminList is the set of usernames that have admin rights. Admin is not a
// stored role; it is membership in this list.
type AdminList map[string]struct{}

// ParseAdminList parses a comma-separated list of usernames. Blank entries
// are ignored.
func ParseAdminList(s string) AdminList {
	list := AdminList{}
	for _, name := range strings.Split(s, ",") {
		name = strings.TrimSpace(name)
		if name != "" {
			list[name] = struct{}{}
		}
	}
	return list
}

// IsAdmin reports whether username is on the list.
func (l AdminList) IsAdmin(username string) bool {
	_, ok := l[username]
	return ok
}
