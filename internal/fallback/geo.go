package fallback

import "strings"

// cityCountries lists the country names and codes a target city belongs to.
var cityCountries = map[string][]string{
	"amsterdam":  {"netherlands", "nl"},
	"rotterdam":  {"netherlands", "nl"},
	"berlin":     {"germany", "de"},
	"munich":     {"germany", "de"},
	"hamburg":    {"germany", "de"},
	"frankfurt":  {"germany", "de"},
	"paris":      {"france", "fr"},
	"lyon":       {"france", "fr"},
	"london":     {"united kingdom", "uk", "gb", "england"},
	"manchester": {"united kingdom", "uk", "gb", "england"},
	"birmingham": {"united kingdom", "uk", "gb", "england"},
	"edinburgh":  {"united kingdom", "uk", "gb", "scotland"},
	"dublin":     {"ireland", "ie"},
	"madrid":     {"spain", "es"},
	"barcelona":  {"spain", "es"},
	"milan":      {"italy", "it"},
	"rome":       {"italy", "it"},
	"brussels":   {"belgium", "be"},
	"zurich":     {"switzerland", "ch"},
	"geneva":     {"switzerland", "ch"},
	"stockholm":  {"sweden", "se"},
	"copenhagen": {"denmark", "dk"},
	"vienna":     {"austria", "at"},
	"prague":     {"czech republic", "czechia", "cz"},
	"warsaw":     {"poland", "pl"},
	"lisbon":     {"portugal", "pt"},
	"helsinki":   {"finland", "fi"},
	"oslo":       {"norway", "no"},
}

// countryMatches reports whether the job's country is the one the city lies
// in. A user selecting a country name directly also matches.
func countryMatches(jobCountry, city string) bool {
	country := strings.ToLower(strings.TrimSpace(jobCountry))
	if country == "" {
		return false
	}

	target := strings.ToLower(strings.TrimSpace(city))
	if country == target {
		return true
	}

	for _, name := range cityCountries[target] {
		if country == name {
			return true
		}
	}
	return false
}
