package identity

import "funnelgate/pkg/prepop"

// Source tags which backend system supplied the primary identity record.
type Source string

const (
	SourceInternal Source = "address_internal"
	SourceDataAxle Source = "address_dataaxle"
)

// dataAxleIndex is the upstream index name that maps to SourceDataAxle;
// every other index is internal.
const dataAxleIndex = "data_axle"

// Category classifies a record's contact completeness.
type Category string

const (
	CategoryAllData     Category = "all_data_present"
	CategoryPartialData Category = "partial_data_present"
)

// Record is the resolved contact bundle for one visitor. Fields hold
// validated values only — a placeholder or empty upstream value is stored
// as "". The completeness category is derived, never stored, so it can
// never go stale against the fields.
type Record struct {
	Name    string
	Phone   string
	Email   string
	Address string
	Street  string
	City    string
	State   string
	Zip     string

	// Source is the primary lookup's system tag. It survives merging: a
	// supplementary lookup fills fields but never re-attributes the record.
	Source Source

	// APIValidationOK is false when the primary lookup failed and the
	// record was rebuilt from raw URL parameters.
	APIValidationOK bool
}

// Category derives completeness from the record's own fields.
func (r Record) Category() Category {
	if r.Complete() {
		return CategoryAllData
	}
	return CategoryPartialData
}

// Complete reports whether name, phone and email are all present.
func (r Record) Complete() bool {
	return r.Name != "" && r.Phone != "" && r.Email != ""
}

// Merge overlays a supplementary lookup onto the primary record. For each
// contact and address field the supplementary value wins when non-empty,
// otherwise the primary's value is kept. Source and APIValidationOK always
// come from the primary. Merging an empty supplement is the identity.
func Merge(primary, supplementary Record) Record {
	merged := Record{
		Name:            pick(supplementary.Name, primary.Name),
		Phone:           pick(supplementary.Phone, primary.Phone),
		Email:           pick(supplementary.Email, primary.Email),
		Address:         pick(supplementary.Address, primary.Address),
		Street:          pick(supplementary.Street, primary.Street),
		City:            pick(supplementary.City, primary.City),
		State:           pick(supplementary.State, primary.State),
		Zip:             pick(supplementary.Zip, primary.Zip),
		Source:          primary.Source,
		APIValidationOK: primary.APIValidationOK,
	}
	return merged
}

func pick(preferred, fallback string) string {
	if preferred != "" {
		return preferred
	}
	return fallback
}

// sourceFromIndex maps the upstream index name onto the record's tag.
func sourceFromIndex(index string) Source {
	if index == dataAxleIndex {
		return SourceDataAxle
	}
	return SourceInternal
}

// recordFromFields builds a Record from upstream field values, cleaning
// each through the parameter validator.
func recordFromFields(f fields) Record {
	return Record{
		Name:    prepop.Clean(f.Name),
		Phone:   prepop.Clean(f.Phone),
		Email:   prepop.Clean(f.Email),
		Address: prepop.Clean(f.Address),
		Street:  prepop.Clean(f.Street),
		City:    prepop.Clean(f.City),
		State:   prepop.Clean(f.State),
		Zip:     prepop.Clean(f.Zip),
	}
}
