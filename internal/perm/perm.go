package perm

import (
	"strings"

	"kanban-cli/internal/model"
)

// IsBoardMember reports whether memberID is in the board's member set.
//
// Matching is case-insensitive on emails since members are often typed by hand.
// The server remains authoritative: the 403 from the assign endpoint is what
// decides.
func IsBoardMember(b model.Board, memberID string) bool {
	memberID = strings.TrimSpace(memberID)
	if memberID == "" {
		return false
	}
	for _, m := range b.Members {
		m = strings.TrimSpace(m)
		if m == memberID {
			return true
		}
		if strings.Contains(m, "@") && strings.EqualFold(m, memberID) {
			return true
		}
	}
	return false
}

// AssignableMembers returns board members not yet assigned, in board order.
// The assign prompt offers them as completions.
func AssignableMembers(b model.Board, assigned []string) []string {
	taken := map[string]bool{}
	for _, a := range assigned {
		taken[strings.TrimSpace(a)] = true
	}
	out := make([]string, 0, len(b.Members))
	for _, m := range b.Members {
		m = strings.TrimSpace(m)
		if m == "" || taken[m] {
			continue
		}
		out = append(out, m)
	}
	return out
}
