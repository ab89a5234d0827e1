package domain

// Intent is the closed set of query intents the extractor may produce.
type Intent string

// Known intents.
const (
	IntentFindBusiness       Intent = "find_business"
	IntentFindPeers          Intent = "find_peers"
	IntentFindSpecificPerson Intent = "find_specific_person"
	IntentFindAlumniBusiness Intent = "find_alumni_business"
	IntentAmbiguous          Intent = "ambiguous"
)

// IsValid reports whether i belongs to the closed intent set.
func (i Intent) IsValid() bool {
	switch i {
	case IntentFindBusiness, IntentFindPeers, IntentFindSpecificPerson,
		IntentFindAlumniBusiness, IntentAmbiguous:
		return true
	}
	return false
}
