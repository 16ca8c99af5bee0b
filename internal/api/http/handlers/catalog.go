package handlers

// Product is a storefront catalogue item shown on the marketing pages.
type Product struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Featured bool    `json:"featured"`
	New      bool    `json:"new"`
}

var catalog = []Product{
	{ID: "p-100", Name: "Aurora Headphones", Price: 199, Featured: true},
	{ID: "p-101", Name: "Nimbus Smartwatch", Price: 249, Featured: true, New: true},
	{ID: "p-102", Name: "Drift Wireless Mouse", Price: 49},
	{ID: "p-103", Name: "Pulse Speaker", Price: 129, New: true},
	{ID: "p-104", Name: "Orbit Charging Dock", Price: 59, New: true},
}

func filterProducts(keep func(Product) bool) []Product {
	out := make([]Product, 0, len(catalog))
	for _, p := range catalog {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}
