package rbac

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownPermission indicates a permission string outside the catalog.
var ErrUnknownPermission = errors.New("rbac: unknown permission")

// ErrUnknownGroup indicates a permission group key outside the catalog.
var ErrUnknownGroup = errors.New("rbac: unknown permission group")

// Permission is an "<area>.<action>" capability identifier.
type Permission string

// Dashboard permissions.
const (
	PermDashboardView Permission = "dashboard.view"
)

// Product management permissions.
const (
	PermProductsView   Permission = "products.view"
	PermProductsCreate Permission = "products.create"
	PermProductsEdit   Permission = "products.edit"
	PermProductsDelete Permission = "products.delete"
)

// Order management permissions.
const (
	PermOrdersView   Permission = "orders.view"
	PermOrdersEdit   Permission = "orders.edit"
	PermOrdersDelete Permission = "orders.delete"
)

// Customer management permissions.
const (
	PermCustomersView   Permission = "customers.view"
	PermCustomersEdit   Permission = "customers.edit"
	PermCustomersDelete Permission = "customers.delete"
)

// Review management permissions.
const (
	PermReviewsView     Permission = "reviews.view"
	PermReviewsModerate Permission = "reviews.moderate"
	PermReviewsDelete   Permission = "reviews.delete"
)

// Blog permissions.
const (
	PermBlogView   Permission = "blog.view"
	PermBlogCreate Permission = "blog.create"
	PermBlogEdit   Permission = "blog.edit"
	PermBlogDelete Permission = "blog.delete"
)

// Reporting permissions.
const (
	PermReportsView   Permission = "reports.view"
	PermReportsExport Permission = "reports.export"
)

// Shipping permissions.
const (
	PermShippingView   Permission = "shipping.view"
	PermShippingManage Permission = "shipping.manage"
)

// Admin management permissions.
const (
	PermAdminsView        Permission = "admins.view"
	PermAdminsCreate      Permission = "admins.create"
	PermAdminsEdit        Permission = "admins.edit"
	PermAdminsDelete      Permission = "admins.delete"
	PermAdminsPermissions Permission = "admins.permissions"
)

// Store settings permissions.
const (
	PermSettingsView   Permission = "settings.view"
	PermSettingsManage Permission = "settings.manage"
)

// Admin access request permissions.
const (
	PermRequestsView   Permission = "requests.view"
	PermRequestsManage Permission = "requests.manage"
)

// PermissionGroup bundles the permissions of one functional area for editing screens.
type PermissionGroup struct {
	Key         string       `json:"key"`
	Label       string       `json:"label"`
	Permissions []Permission `json:"permissions"`
}

var catalog = []PermissionGroup{
	{Key: "dashboard", Label: "Dashboard", Permissions: []Permission{
		PermDashboardView,
	}},
	{Key: "products", Label: "Product Management", Permissions: []Permission{
		PermProductsView, PermProductsCreate, PermProductsEdit, PermProductsDelete,
	}},
	{Key: "orders", Label: "Order Management", Permissions: []Permission{
		PermOrdersView, PermOrdersEdit, PermOrdersDelete,
	}},
	{Key: "customers", Label: "Customer Management", Permissions: []Permission{
		PermCustomersView, PermCustomersEdit, PermCustomersDelete,
	}},
	{Key: "reviews", Label: "Review Management", Permissions: []Permission{
		PermReviewsView, PermReviewsModerate, PermReviewsDelete,
	}},
	{Key: "blog", Label: "Blog Management", Permissions: []Permission{
		PermBlogView, PermBlogCreate, PermBlogEdit, PermBlogDelete,
	}},
	{Key: "reports", Label: "Reports & Analytics", Permissions: []Permission{
		PermReportsView, PermReportsExport,
	}},
	{Key: "shipping", Label: "Shipping", Permissions: []Permission{
		PermShippingView, PermShippingManage,
	}},
	{Key: "admins", Label: "Admin Management", Permissions: []Permission{
		PermAdminsView, PermAdminsCreate, PermAdminsEdit, PermAdminsDelete, PermAdminsPermissions,
	}},
	{Key: "settings", Label: "Settings", Permissions: []Permission{
		PermSettingsView, PermSettingsManage,
	}},
	{Key: "requests", Label: "Admin Requests", Permissions: []Permission{
		PermRequestsView, PermRequestsManage,
	}},
}

// catalogIndex maps each permission to its position in AllPermissions.
var catalogIndex = buildCatalogIndex()

func buildCatalogIndex() map[Permission]int {
	index := make(map[Permission]int)
	for _, group := range catalog {
		for _, p := range group.Permissions {
			if _, dup := index[p]; dup {
				panic(fmt.Sprintf("rbac: permission %q listed twice in catalog", p))
			}
			index[p] = len(index)
		}
	}
	return index
}

// Catalog returns the grouped permission catalog in presentation order.
func Catalog() []PermissionGroup {
	groups := make([]PermissionGroup, len(catalog))
	for i, group := range catalog {
		groups[i] = PermissionGroup{
			Key:         group.Key,
			Label:       group.Label,
			Permissions: append([]Permission(nil), group.Permissions...),
		}
	}
	return groups
}

// AllPermissions returns every catalog permission in catalog order.
func AllPermissions() []Permission {
	all := make([]Permission, 0, len(catalogIndex))
	for _, group := range catalog {
		all = append(all, group.Permissions...)
	}
	return all
}

// LookupGroup finds a permission group by key.
func LookupGroup(key string) (PermissionGroup, bool) {
	key = strings.TrimSpace(strings.ToLower(key))
	for _, group := range catalog {
		if group.Key == key {
			return PermissionGroup{
				Key:         group.Key,
				Label:       group.Label,
				Permissions: append([]Permission(nil), group.Permissions...),
			}, true
		}
	}
	return PermissionGroup{}, false
}

// Valid reports whether p is part of the catalog.
func (p Permission) Valid() bool {
	_, ok := catalogIndex[p]
	return ok
}

// Area returns the functional area prefix of p.
func (p Permission) Area() string {
	area, _, _ := strings.Cut(string(p), ".")
	return area
}

func (p Permission) String() string {
	return string(p)
}

// ParsePermission normalizes raw and checks it against the catalog.
func ParsePermission(raw string) (Permission, error) {
	p := Permission(strings.TrimSpace(strings.ToLower(raw)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownPermission, raw)
	}
	return p, nil
}
