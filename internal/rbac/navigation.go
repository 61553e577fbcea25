package rbac

// NavigationItem is one entry of the admin menu tree.
type NavigationItem struct {
	Name                string           `json:"name"`
	Href                string           `json:"href"`
	Icon                string           `json:"icon,omitempty"`
	RequiredPermissions []Permission     `json:"requiredPermissions,omitempty"`
	RequiresAll         bool             `json:"requiresAll,omitempty"`
	Children            []NavigationItem `json:"children,omitempty"`
}

// FilterNavigation returns the entries of tree visible to auth, in their
// original order. An entry with no required permissions is unrestricted.
// An entry that had children but keeps none after filtering is dropped.
// The input tree is not modified.
func FilterNavigation(tree []NavigationItem, auth Authorizer) []NavigationItem {
	visible := make([]NavigationItem, 0, len(tree))
	for _, item := range tree {
		if !itemAllowed(item, auth) {
			continue
		}
		filtered := NavigationItem{
			Name:                item.Name,
			Href:                item.Href,
			Icon:                item.Icon,
			RequiredPermissions: append([]Permission(nil), item.RequiredPermissions...),
			RequiresAll:         item.RequiresAll,
		}
		if len(item.Children) > 0 {
			filtered.Children = FilterNavigation(item.Children, auth)
			if len(filtered.Children) == 0 {
				continue
			}
		}
		visible = append(visible, filtered)
	}
	return visible
}

func itemAllowed(item NavigationItem, auth Authorizer) bool {
	if len(item.RequiredPermissions) == 0 {
		return true
	}
	if item.RequiresAll {
		return auth.HasAll(item.RequiredPermissions...)
	}
	return auth.HasAny(item.RequiredPermissions...)
}
