package provider

// Sub-resource keys that mark a number type as available
const (
	subresourceLocal            = "local"
	subresourceTollFree         = "toll_free"
	subresourceMobile           = "mobile"
	subresourceNational         = "national"
	subresourceVoip             = "voip"
	subresourceSharedCost       = "shared_cost"
	subresourceMachineToMachine = "machine_to_machine"
)

// NumberTypeNames lists the stored number type names in column order
var NumberTypeNames = []string{
	subresourceLocal,
	subresourceTollFree,
	subresourceMobile,
	subresourceNational,
	subresourceVoip,
	subresourceSharedCost,
	subresourceMachineToMachine,
}

// ExtractNumberTypes maps the sub-resource reference map onto availability
// flags. A flag is set iff its key is present; a nil map yields all false.
func ExtractNumberTypes(details *CountryDetails) NumberTypes {
	if details == nil {
		return NumberTypes{}
	}
	has := func(key string) bool {
		_, ok := details.SubresourceURIs[key]
		return ok
	}
	return NumberTypes{
		Local:            has(subresourceLocal),
		TollFree:         has(subresourceTollFree),
		Mobile:           has(subresourceMobile),
		National:         has(subresourceNational),
		Voip:             has(subresourceVoip),
		SharedCost:       has(subresourceSharedCost),
		MachineToMachine: has(subresourceMachineToMachine),
	}
}

// Available returns the names of the set flags, in NumberTypeNames order
func (n NumberTypes) Available() []string {
	flags := []bool{n.Local, n.TollFree, n.Mobile, n.National, n.Voip, n.SharedCost, n.MachineToMachine}
	var names []string
	for i, set := range flags {
		if set {
			names = append(names, NumberTypeNames[i])
		}
	}
	return names
}

// IsNumberTypeName reports whether name is one of NumberTypeNames
func IsNumberTypeName(name string) bool {
	for _, n := range NumberTypeNames {
		if n == name {
			return true
		}
	}
	return false
}

// NewCountryAvailability builds the stored record from a country's details
func NewCountryAvailability(countryCode string, details *CountryDetails) CountryAvailability {
	record := CountryAvailability{
		CountryCode: countryCode,
		NumberTypes: ExtractNumberTypes(details),
	}
	if details != nil {
		record.Country = details.Country
		record.Beta = details.Beta
	}
	return record
}
