package registry

import "time"

// DefaultDescriptors is the built-in catalog for the standard business entity
// set. Deployments can replace it entirely with a YAML file via LoadFile.
func DefaultDescriptors() []EntityDescriptor {
	return []EntityDescriptor{
		{
			Type:         "customer",
			Database:     "erp",
			Table:        "partners",
			IDColumn:     "id",
			TenantColumn: "tenant_id",
			Fields: FieldGroups{
				Primary: []Field{
					{Name: "name", Weight: 10, Kind: KindText},
					{Name: "code", Weight: 9, Kind: KindKeyword},
				},
				Secondary: []Field{
					{Name: "email", Weight: 6, Kind: KindKeyword},
					{Name: "city", Weight: 4, Kind: KindText},
				},
				Metadata: []Field{
					{Name: "phone", Weight: 2, Kind: KindKeyword},
					{Name: "vat_number", Weight: 2, Kind: KindKeyword},
				},
			},
			StaticFilters:      map[string]string{"partner_type": "customer"},
			URLTemplate:        "/customers/{id}",
			Icon:               "users",
			RequiredPermission: "customers.read",
			Priority:           8,
			CacheTTL:           Duration(5 * time.Minute),
			Enabled:            true,
		},
		{
			Type:         "supplier",
			Database:     "erp",
			Table:        "partners",
			IDColumn:     "id",
			TenantColumn: "tenant_id",
			Fields: FieldGroups{
				Primary: []Field{
					{Name: "name", Weight: 10, Kind: KindText},
					{Name: "code", Weight: 9, Kind: KindKeyword},
				},
				Secondary: []Field{
					{Name: "email", Weight: 6, Kind: KindKeyword},
					{Name: "city", Weight: 4, Kind: KindText},
				},
				Metadata: []Field{
					{Name: "phone", Weight: 2, Kind: KindKeyword},
				},
			},
			StaticFilters:      map[string]string{"partner_type": "supplier"},
			URLTemplate:        "/suppliers/{id}",
			Icon:               "truck",
			RequiredPermission: "suppliers.read",
			Priority:           6,
			CacheTTL:           Duration(5 * time.Minute),
			Enabled:            true,
		},
		{
			Type:         "article",
			Database:     "erp",
			Table:        "articles",
			IDColumn:     "id",
			TenantColumn: "tenant_id",
			Fields: FieldGroups{
				Primary: []Field{
					{Name: "reference", Weight: 10, Kind: KindKeyword},
					{Name: "label", Weight: 9, Kind: KindText},
				},
				Secondary: []Field{
					{Name: "description", Weight: 5, Kind: KindText},
					{Name: "barcode", Weight: 5, Kind: KindKeyword},
				},
				Metadata: []Field{
					{Name: "family", Weight: 2, Kind: KindKeyword},
					{Name: "unit_price", Weight: 1, Kind: KindNumeric},
				},
			},
			URLTemplate:        "/articles/{id}",
			Icon:               "package",
			RequiredPermission: "articles.read",
			Priority:           9,
			CacheTTL:           Duration(10 * time.Minute),
			Enabled:            true,
		},
		{
			Type:         "order",
			Database:     "erp",
			Table:        "orders",
			IDColumn:     "id",
			TenantColumn: "tenant_id",
			Fields: FieldGroups{
				Primary: []Field{
					{Name: "number", Weight: 10, Kind: KindKeyword},
				},
				Secondary: []Field{
					{Name: "customer_name", Weight: 6, Kind: KindText},
					{Name: "notes", Weight: 3, Kind: KindText},
				},
				Metadata: []Field{
					{Name: "status", Weight: 2, Kind: KindKeyword},
					{Name: "order_date", Weight: 1, Kind: KindDate},
				},
			},
			URLTemplate:        "/orders/{id}",
			Icon:               "shopping-cart",
			RequiredPermission: "orders.read",
			Priority:           7,
			CacheTTL:           Duration(time.Minute),
			Enabled:            true,
		},
		{
			Type:         "invoice",
			Database:     "erp",
			Table:        "invoices",
			IDColumn:     "id",
			TenantColumn: "tenant_id",
			Fields: FieldGroups{
				Primary: []Field{
					{Name: "number", Weight: 10, Kind: KindKeyword},
				},
				Secondary: []Field{
					{Name: "customer_name", Weight: 6, Kind: KindText},
				},
				Metadata: []Field{
					{Name: "status", Weight: 2, Kind: KindKeyword},
					{Name: "total", Weight: 1, Kind: KindNumeric},
				},
			},
			URLTemplate:        "/invoices/{id}",
			Icon:               "file-text",
			RequiredPermission: "invoices.read",
			RequiredRoles:      []string{"accounting", "admin"},
			Priority:           5,
			CacheTTL:           Duration(time.Minute),
			Enabled:            true,
		},
		{
			Type:     "menu",
			Database: "app",
			Table:    "menus",
			IDColumn: "id",
			Fields: FieldGroups{
				Primary: []Field{
					{Name: "label", Weight: 10, Kind: KindText},
				},
				Secondary: []Field{
					{Name: "path", Weight: 5, Kind: KindKeyword},
				},
				Metadata: []Field{
					{Name: "section", Weight: 2, Kind: KindKeyword},
				},
			},
			URLTemplate: "{path}",
			Icon:        "menu",
			Priority:    10,
			CacheTTL:    Duration(time.Hour),
			Enabled:     true,
		},
		{
			Type:         "user",
			Database:     "app",
			Table:        "users",
			IDColumn:     "id",
			TenantColumn: "tenant_id",
			Fields: FieldGroups{
				Primary: []Field{
					{Name: "display_name", Weight: 10, Kind: KindText},
					{Name: "username", Weight: 9, Kind: KindKeyword},
				},
				Secondary: []Field{
					{Name: "email", Weight: 6, Kind: KindKeyword},
				},
				Metadata: []Field{
					{Name: "department", Weight: 2, Kind: KindKeyword},
				},
			},
			URLTemplate:   "/users/{id}",
			Icon:          "user",
			RequiredRoles: []string{"admin", "hr"},
			Priority:      4,
			CacheTTL:      Duration(15 * time.Minute),
			Enabled:       true,
		},
	}
}

// Default builds the registry from the built-in catalog.
func Default() *Registry {
	r, err := New(DefaultDescriptors())
	if err != nil {
		// The built-in catalog is validated by tests; a failure here is a
		// programming error.
		panic(err)
	}
	return r
}
