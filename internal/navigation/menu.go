// Package navigation serves the admin menu filtered to what the signed-in
// user may open.
package navigation

import "github.com/Chambu-Digital/javic-collection-sub001/internal/rbac"

// AdminMenu returns a fresh copy of the storefront admin menu.
func AdminMenu() []rbac.NavigationItem {
	return []rbac.NavigationItem{
		{
			Name:                "Dashboard",
			Href:                "/admin",
			Icon:                "layout-dashboard",
			RequiredPermissions: perms(rbac.PermDashboardView),
		},
		{
			Name:                "Products",
			Href:                "/admin/products",
			Icon:                "package",
			RequiredPermissions: perms(rbac.PermProductsView),
			Children: []rbac.NavigationItem{
				{Name: "All Products", Href: "/admin/products", RequiredPermissions: perms(rbac.PermProductsView)},
				{Name: "Add Product", Href: "/admin/products/new", RequiredPermissions: perms(rbac.PermProductsCreate)},
				{
					Name:                "Trash",
					Href:                "/admin/products/trash",
					RequiredPermissions: perms(rbac.PermProductsView, rbac.PermProductsDelete),
					RequiresAll:         true,
				},
			},
		},
		{
			Name:                "Orders",
			Href:                "/admin/orders",
			Icon:                "shopping-cart",
			RequiredPermissions: perms(rbac.PermOrdersView),
		},
		{
			Name:                "Customers",
			Href:                "/admin/customers",
			Icon:                "users",
			RequiredPermissions: perms(rbac.PermCustomersView),
		},
		{
			Name:                "Reviews",
			Href:                "/admin/reviews",
			Icon:                "star",
			RequiredPermissions: perms(rbac.PermReviewsView),
		},
		{
			Name:                "Blog",
			Href:                "/admin/blog",
			Icon:                "file-text",
			RequiredPermissions: perms(rbac.PermBlogView),
			Children: []rbac.NavigationItem{
				{Name: "All Posts", Href: "/admin/blog", RequiredPermissions: perms(rbac.PermBlogView)},
				{Name: "New Post", Href: "/admin/blog/new", RequiredPermissions: perms(rbac.PermBlogCreate)},
			},
		},
		{
			Name:                "Reports",
			Href:                "/admin/reports",
			Icon:                "bar-chart",
			RequiredPermissions: perms(rbac.PermReportsView),
		},
		{
			Name:                "Shipping",
			Href:                "/admin/shipping",
			Icon:                "truck",
			RequiredPermissions: perms(rbac.PermShippingView, rbac.PermShippingManage),
		},
		{
			Name:                "Admin Management",
			Href:                "/admin/admins",
			Icon:                "shield",
			RequiredPermissions: perms(rbac.PermAdminsView, rbac.PermRequestsView),
			Children: []rbac.NavigationItem{
				{Name: "Admins", Href: "/admin/admins", RequiredPermissions: perms(rbac.PermAdminsView)},
				{Name: "Requests", Href: "/admin/requests", RequiredPermissions: perms(rbac.PermRequestsView)},
			},
		},
		{
			Name:                "Settings",
			Href:                "/admin/settings",
			Icon:                "settings",
			RequiredPermissions: perms(rbac.PermSettingsView),
		},
	}
}

func perms(ps ...rbac.Permission) []rbac.Permission {
	return ps
}
