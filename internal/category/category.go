// Package category assigns spending categories to transaction descriptions
// using ordered keyword matching.
package category

import "strings"

// Other is the fallback category for descriptions no rule matches.
const Other = "Other"

type rule struct {
	name     string
	keywords []string
}

// Rules are evaluated in order; the first category with a matching keyword
// wins. Keywords are lowercase substrings of the description.
var rules = []rule{
	{"Food & Groceries", []string{
		"tesco", "lidl", "supervalu", "dunnes", "eurasia", "supermarket",
		"spar", "centra", "aldi", "marks & spencer", "m&s food",
	}},
	{"Transport", []string{
		"transport for ireland", "tfi", "leap", "bus", "luas", "dart",
		"nta", "dublin bus", "irish rail", "taxi", "uber", "lyft", "bolt",
	}},
	{"Shopping", []string{
		"penneys", "primark", "mr price", "euro giant", "euro store",
		"zara", "h&m", "next", "new look", "tk maxx", "dunnes stores",
	}},
	{"Subscriptions", []string{
		"netflix", "spotify", "apple.com", "apple music", "subscription",
		"amazon prime", "disney+", "youtube premium", "48months",
	}},
	{"Snacks & Dining", []string{
		"five guys", "burger king", "mcdonalds", "mcdonald's", "kfc",
		"supermacs", "subway", "starbucks", "costa", "insomnia",
		"cafe", "bakehouse", "restaurant", "pizza", "nandos",
	}},
	{"Bills & Utilities", []string{
		"rent", "electric", "electricity", "gas", "eir", "vodafone",
		"three", "sky", "virgin media", "utility", "sse airtricity",
	}},
	{"Health & Pharmacy", []string{
		"pharmacy", "chemist", "boots", "mccabes", "lloyds pharmacy",
		"hospital", "doctor", "dentist", "medical",
	}},
}

// Categorize maps a transaction description to a category name. Matching is
// case-insensitive; an empty or unrecognized description falls back to Other.
func Categorize(description string) string {
	if description == "" {
		return Other
	}
	text := strings.ToLower(description)
	for _, r := range rules {
		for _, k := range r.keywords {
			if strings.Contains(text, k) {
				return r.name
			}
		}
	}
	return Other
}

// Names returns every category name in rule order, with Other last.
func Names() []string {
	names := make([]string, 0, len(rules)+1)
	for _, r := range rules {
		names = append(names, r.name)
	}
	return append(names, Other)
}
