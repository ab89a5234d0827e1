package extract

import (
	"sort"
	"strings"
)

// Synonym tables normalize surface forms to canonical attribute values.
// Multi-word keys win over their single-word substrings because vocabulary
// regexes list alternatives longest-first.

var citySynonyms = map[string]string{
	"chennai":    "Chennai",
	"madras":     "Chennai",
	"bengaluru":  "Bengaluru",
	"bangalore":  "Bengaluru",
	"blr":        "Bengaluru",
	"mumbai":     "Mumbai",
	"bombay":     "Mumbai",
	"delhi":      "Delhi",
	"new delhi":  "Delhi",
	"hyderabad":  "Hyderabad",
	"pune":       "Pune",
	"kolkata":    "Kolkata",
	"calcutta":   "Kolkata",
	"coimbatore": "Coimbatore",
	"kovai":      "Coimbatore",
	"madurai":    "Madurai",
	"trichy":     "Tiruchirappalli",
	"ahmedabad":  "Ahmedabad",
	"kochi":      "Kochi",
	"cochin":     "Kochi",
	"gurgaon":    "Gurugram",
	"gurugram":   "Gurugram",
	"noida":      "Noida",
	"chandigarh": "Chandigarh",
	"jaipur":     "Jaipur",
	"nagpur":     "Nagpur",
	"vizag":      "Visakhapatnam",
	"singapore":  "Singapore",
	"dubai":      "Dubai",
	"london":     "London",
	"bay area":   "San Francisco",
	"new york":   "New York",
	"nyc":        "New York",
}

var branchSynonyms = map[string]string{
	"mechanical":                     "Mechanical",
	"mechanical engineering":         "Mechanical",
	"mech":                           "Mechanical",
	"civil":                          "Civil",
	"civil engineering":              "Civil",
	"electrical":                     "Electrical",
	"electrical engineering":         "Electrical",
	"eee":                            "Electrical",
	"electronics":                    "Electronics",
	"ece":                            "Electronics",
	"electronics and communication":  "Electronics",
	"computer science":               "Computer Science",
	"cse":                            "Computer Science",
	"computer engineering":           "Computer Science",
	"information technology":         "Information Technology",
	"chemical":                       "Chemical",
	"chemical engineering":           "Chemical",
	"production":                     "Production",
	"production engineering":         "Production",
	"metallurgy":                     "Metallurgy",
	"metallurgical":                  "Metallurgy",
	"aerospace":                      "Aerospace",
	"aeronautical":                   "Aerospace",
	"automobile":                     "Automobile",
	"biotech":                        "Biotechnology",
	"biotechnology":                  "Biotechnology",
	"instrumentation":                "Instrumentation",
	"textile":                        "Textile",
}

// degreeSynonyms normalize degree mentions. There is no degree filter kind;
// recognized degrees are claimed from the text and contribute a canonical
// token so they still reach the embedding step.
var degreeSynonyms = map[string]string{
	"btech":  "BTech",
	"b.tech": "BTech",
	"b tech": "BTech",
	"b.e":    "BE",
	"bsc":    "BSc",
	"b.sc":   "BSc",
	"mtech":  "MTech",
	"m.tech": "MTech",
	"m.e":    "ME",
	"msc":    "MSc",
	"m.sc":   "MSc",
	"mba":    "MBA",
	"pgdm":   "MBA",
	"phd":    "PhD",
	"ph.d":   "PhD",
	"mca":    "MCA",
	"bca":    "BCA",
}

var designationSynonyms = map[string]string{
	"founder":           "Founder",
	"co-founder":        "Founder",
	"cofounder":         "Founder",
	"ceo":               "CEO",
	"chief executive":   "CEO",
	"cto":               "CTO",
	"coo":               "COO",
	"cfo":               "CFO",
	"director":          "Director",
	"managing director": "Director",
	"partner":           "Partner",
	"proprietor":        "Proprietor",
	"manager":           "Manager",
	"general manager":   "Manager",
	"consultant":        "Consultant",
	"architect":         "Architect",
	"professor":         "Professor",
	"entrepreneur":      "Founder",
}

// vocabPattern builds a longest-first alternation over table keys, suitable
// for embedding into a word-bounded regex.
func vocabPattern(table map[string]string) string {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	// Longest first so "mechanical engineering" wins over "mechanical".
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	escaped := make([]string, len(keys))
	for i, k := range keys {
		escaped[i] = regexpQuote(k)
	}
	return strings.Join(escaped, "|")
}

// regexpQuote escapes the regex metacharacters that occur in vocabulary keys.
func regexpQuote(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '.', '+', '(', ')', '[', ']', '|', '*', '?', '^', '$', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
