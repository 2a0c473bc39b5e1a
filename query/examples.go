package query

import "fmt"

// Category names a group of example queries.
type Category string

const (
	CategoryValid     Category = "valid"
	CategoryAmbiguous Category = "ambiguous"
	CategoryInvalid   Category = "invalid"
	CategoryComplex   Category = "complex"
)

// Categories lists the example categories in display order.
var Categories = []Category{CategoryValid, CategoryAmbiguous, CategoryInvalid, CategoryComplex}

var examples = map[Category][]string{
	CategoryValid: {
		"SELECT * FROM users WHERE (age > 18 AND status = 'active') OR role = 'admin'",
		"SELECT name FROM users ORDER BY name ASC",
		"SELECT * FROM products WHERE price > 50 ORDER BY price DESC",
	},
	CategoryAmbiguous: {
		"SELECT * FROM users WHERE a = 1 AND b = 2 AND c = 3 OR d = 4",
		"SELECT * FROM users WHERE NOT status = 'banned' AND age > 18",
		"SELECT * FROM users WHERE price > 100 OR category = 'electronics' AND stock > 0",
	},
	CategoryInvalid: {
		"SELECT * users",
		"SELECT * FROM",
		"SELECT * FROM users WHERE",
		"SELECT * FROM users WHERE age >",
		"SELECT name, FROM users",
	},
	CategoryComplex: {
		"SELECT name, age, email FROM users WHERE (age >= 18 AND status = 'active') OR role = 'admin' ORDER BY name ASC",
		"SELECT * FROM products WHERE (price > 100 AND category = 'electronics') OR (price < 50 AND category = 'books')",
		"SELECT id FROM orders WHERE NOT (status = 'cancelled' OR status = 'refunded') AND total > 1000",
	},
}

// ParseCategory returns the category called name.
func ParseCategory(name string) (Category, error) {
	for _, c := range Categories {
		if string(c) == name {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown example category %q", name)
}

// Examples returns a copy of the example queries of one category.
func Examples(c Category) []string {
	return append([]string(nil), examples[c]...)
}

// AllExamples returns every example query, category by category.
func AllExamples() []string {
	var all []string
	for _, c := range Categories {
		all = append(all, examples[c]...)
	}
	return all
}
