package registry

// Dashboard is the navigation key of the statistics page.
const Dashboard Key = "dashboard"

// NavItem is one sidebar entry.
type NavItem struct {
	Key   Key
	Label string
}

// NavGroup is a titled block of sidebar entries.
type NavGroup struct {
	Title string
	Items []NavItem
}

// Navigation returns the sidebar structure.
func Navigation() []NavGroup {
	return []NavGroup{
		{
			Title: "Vendite",
			Items: []NavItem{
				{Dashboard, "Dashboard"},
				{Clients, "Clienti"},
				{Contacts, "Contatti"},
				{Opportunities, "Opportunità"},
				{Offers, "Offerte"},
				{OrdersSales, "Ordini Vendita"},
				{InvoicesSales, "Fatture"},
				{Contracts, "Contratti"},
			},
		},
		{
			Title: "Acquisti",
			Items: []NavItem{
				{Suppliers, "Fornitori"},
				{OrdersPurchase, "Ordini Acquisto"},
				{InvoicesPurchase, "Fatture Acquisto"},
			},
		},
	}
}
