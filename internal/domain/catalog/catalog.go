package catalog

import "strings"

// Point is a named pickup/drop-off location in the catalog city with a fixed price.
type Point struct {
	Name  string
	Price int64
}

// Catalog is the static set of priced points for the catalog city. Shared
// read-only by the conversation state machine (price lookup) and by keyboard
// rendering. Point order is fixed so paginated display stays deterministic.
type Catalog struct {
	points []Point
	byName map[string]int64
}

// New builds a catalog from the given points, preserving their order.
func New(points []Point) *Catalog {
	byName := make(map[string]int64, len(points))
	for _, p := range points {
		byName[p.Name] = p.Price
	}
	return &Catalog{points: points, byName: byName}
}

// Default returns the served catalog for Kazan.
func Default() *Catalog {
	return New([]Point{
		{Name: "Метро проспект победы", Price: 1000},
		{Name: "РКБ", Price: 1000},
		{Name: "ДРКБ", Price: 1100},
		{Name: "ЖД вокзал 1", Price: 1400},
		{Name: "ЖД вокзал 2", Price: 1500},
		{Name: "Аэропорт Казани", Price: 1400},
		{Name: "Онкоцентр", Price: 1300},
		{Name: "Глазной центр", Price: 1400},
		{Name: "Бутлерова 14 и 41", Price: 1400},
		{Name: "Баумана центр", Price: 1400},
		{Name: "Аквапарк Ривьера", Price: 1500},
		{Name: "Речной порт", Price: 1400},
		{Name: "Автовокзал центр", Price: 1400},
		{Name: "ул. Чистопольская", Price: 1400},
		{Name: "МКДЦ", Price: 1200},
		{Name: "Казан Молл", Price: 1400},
		{Name: "Парк Хаус", Price: 1500},
		{Name: "Тандем", Price: 1500},
		{Name: "Аквапарк Брионикс", Price: 1500},
		{Name: "Южный вокзал", Price: 1100},
		{Name: "Восточный автовокзал", Price: 1400},
		{Name: "Северный вокзал", Price: 1500},
	})
}

// Price returns the fixed price for the named point. The match is exact, no
// fuzzy matching.
func (c *Catalog) Price(name string) (int64, bool) {
	price, ok := c.byName[name]
	return price, ok
}

// Points returns the point names in catalog order.
func (c *Catalog) Points() []string {
	names := make([]string, len(c.points))
	for i, p := range c.points {
		names[i] = p.Name
	}
	return names
}

// Rows chunks the point names into keyboard rows of the given size.
func (c *Catalog) Rows(size int) [][]string {
	if size < 1 {
		size = 1
	}
	names := c.Points()
	var rows [][]string
	for i := 0; i < len(names); i += size {
		end := i + size
		if end > len(names) {
			end = len(names)
		}
		rows = append(rows, names[i:end])
	}
	return rows
}

// Len returns the number of catalog points.
func (c *Catalog) Len() int {
	return len(c.points)
}

// Network is the fixed two-city pair served by the service. CatalogCity is the
// side with priced points; OpenCity accepts free-text addresses.
type Network struct {
	CatalogCity string
	OpenCity    string
}

// DefaultNetwork returns the served Kazan–Nizhnekamsk pair.
func DefaultNetwork() Network {
	return Network{CatalogCity: "Казань", OpenCity: "Нижнекамск"}
}

// Normalize maps raw user input onto one of the two cities: trimmed,
// case-insensitive. Third cities are rejected.
func (n Network) Normalize(input string) (string, bool) {
	cleaned := strings.TrimSpace(input)
	if strings.EqualFold(cleaned, n.CatalogCity) {
		return n.CatalogCity, true
	}
	if strings.EqualFold(cleaned, n.OpenCity) {
		return n.OpenCity, true
	}
	return "", false
}

// Other returns the complementary city of the two-node network.
func (n Network) Other(city string) string {
	if city == n.CatalogCity {
		return n.OpenCity
	}
	return n.CatalogCity
}

// IsCatalogSide reports whether points in the given city carry catalog prices.
func (n Network) IsCatalogSide(city string) bool {
	return city == n.CatalogCity
}

// Flow selects the conversation variant. Both variants run through the same
// state machine code path; the flags only skip steps.
type Flow struct {
	// CollapseCityStep folds direction choice and origin selection into a
	// single city choice, fixing the origin to a catalog point list.
	CollapseCityStep bool
	// RequireDate includes the date step. When false the reservation's
	// scheduled time stays unset.
	RequireDate bool
}

// DefaultFlow returns the full seven-step variant.
func DefaultFlow() Flow {
	return Flow{CollapseCityStep: false, RequireDate: true}
}
