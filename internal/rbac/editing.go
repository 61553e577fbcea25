package rbac

import (
	"fmt"
	"strings"

	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const grantedCountKey = "%d permissions granted"

func init() {
	if err := message.Set(language.English, grantedCountKey,
		plural.Selectf(1, "%d",
			"=0", "No permissions granted",
			"=1", "1 permission granted",
			"other", "%d permissions granted",
		)); err != nil {
		panic(fmt.Sprintf("rbac: register messages: %v", err))
	}
}

var printer = message.NewPrinter(language.English)

// NormalizeGrants removes duplicates and orders grants by catalog position.
func NormalizeGrants(perms []Permission) []Permission {
	seen := make(map[Permission]struct{}, len(perms))
	normalized := make([]Permission, 0, len(perms))
	for _, p := range perms {
		p = Permission(strings.TrimSpace(string(p)))
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		normalized = append(normalized, p)
	}
	sortPermissions(normalized)
	return normalized
}

// ValidateGrants returns ErrUnknownPermission naming every grant outside the catalog.
func ValidateGrants(perms []Permission) error {
	var unknown []string
	for _, p := range perms {
		if !p.Valid() {
			unknown = append(unknown, string(p))
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("%w: %s", ErrUnknownPermission, strings.Join(unknown, ", "))
	}
	return nil
}

// TogglePermission adds or removes p from granted and returns the normalized result.
func TogglePermission(granted []Permission, p Permission, enabled bool) []Permission {
	next := make([]Permission, 0, len(granted)+1)
	for _, g := range granted {
		if g != p {
			next = append(next, g)
		}
	}
	if enabled {
		next = append(next, p)
	}
	return NormalizeGrants(next)
}

// ToggleGroup adds or removes every permission of the group identified by key.
func ToggleGroup(granted []Permission, key string, enabled bool) ([]Permission, error) {
	group, ok := LookupGroup(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGroup, key)
	}
	members := make(map[Permission]struct{}, len(group.Permissions))
	for _, p := range group.Permissions {
		members[p] = struct{}{}
	}
	next := make([]Permission, 0, len(granted)+len(group.Permissions))
	for _, g := range granted {
		if _, ok := members[g]; !ok {
			next = append(next, g)
		}
	}
	if enabled {
		next = append(next, group.Permissions...)
	}
	return NormalizeGrants(next), nil
}

// PermissionState describes one catalog permission for a principal.
type PermissionState struct {
	Permission Permission `json:"permission"`
	Granted    bool       `json:"granted"`
	FromRole   bool       `json:"fromRole"`
}

// GroupAccess summarizes a principal's access within one permission group.
type GroupAccess struct {
	Key         string            `json:"key"`
	Label       string            `json:"label"`
	Granted     int               `json:"granted"`
	Total       int               `json:"total"`
	Permissions []PermissionState `json:"permissions"`
}

// AccessSummary is the effective access of a principal, shaped for editing screens.
type AccessSummary struct {
	Role        Role          `json:"role"`
	RoleLabel   string        `json:"roleLabel"`
	Permissions []Permission  `json:"permissions"`
	Count       int           `json:"count"`
	CountLabel  string        `json:"countLabel"`
	Groups      []GroupAccess `json:"groups"`
	Unknown     []Permission  `json:"unknown,omitempty"`
}

// Summarize computes the AccessSummary of p.
func Summarize(p Principal) AccessSummary {
	checker := CheckerFor(p)
	fromRole := make(map[Permission]struct{})
	for _, d := range DefaultPermissions(checker.Role()) {
		fromRole[d] = struct{}{}
	}

	summary := AccessSummary{
		Role:        checker.Role(),
		RoleLabel:   checker.Role().Label(),
		Permissions: checker.Permissions(),
	}
	for _, group := range catalog {
		access := GroupAccess{Key: group.Key, Label: group.Label, Total: len(group.Permissions)}
		for _, perm := range group.Permissions {
			_, inherited := fromRole[perm]
			state := PermissionState{Permission: perm, Granted: checker.Has(perm), FromRole: inherited}
			if state.Granted {
				access.Granted++
			}
			access.Permissions = append(access.Permissions, state)
		}
		summary.Groups = append(summary.Groups, access)
	}
	for _, perm := range summary.Permissions {
		if perm.Valid() {
			summary.Count++
			continue
		}
		summary.Unknown = append(summary.Unknown, perm)
	}
	summary.CountLabel = printer.Sprintf(grantedCountKey, summary.Count)
	return summary
}
