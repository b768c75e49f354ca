package provider

import (
	"encoding/json"
	"strconv"
)

// EndUserTypeBusiness is the only end-user type requested and stored
const EndUserTypeBusiness = "business"

// CountryRef is one entry of the country enumeration
type CountryRef struct {
	CountryCode     string            `json:"country_code"`
	Country         string            `json:"country"`
	Beta            bool              `json:"beta"`
	URI             string            `json:"uri"`
	SubresourceURIs map[string]string `json:"subresource_uris"`
}

// CountryDetails is the single-country payload
type CountryDetails struct {
	CountryCode     string            `json:"country_code"`
	Country         string            `json:"country"`
	Beta            bool              `json:"beta"`
	SubresourceURIs map[string]string `json:"subresource_uris"`
}

// NumberTypes holds one availability flag per number type
type NumberTypes struct {
	Local            bool `json:"local"`
	TollFree         bool `json:"toll_free"`
	Mobile           bool `json:"mobile"`
	National         bool `json:"national"`
	Voip             bool `json:"voip"`
	SharedCost       bool `json:"shared_cost"`
	MachineToMachine bool `json:"machine_to_machine"`
}

// CountryAvailability is the record written for each country by a number-type sync
type CountryAvailability struct {
	CountryCode string `json:"country_code"`
	Country     string `json:"country"`
	Beta        bool   `json:"beta"`
	NumberTypes
}

// Regulation is a normalized regulatory compliance record. Empty strings
// stand for absent values. Requirements is kept verbatim.
type Regulation struct {
	Sid          string          `json:"sid"`
	FriendlyName string          `json:"friendly_name"`
	IsoCountry   string          `json:"iso_country"`
	NumberType   string          `json:"number_type"`
	EndUserType  string          `json:"end_user_type"`
	Requirements json.RawMessage `json:"requirements"`
	URL          string          `json:"url"`
}

// SearchRequest describes a live number search
type SearchRequest struct {
	CountryCode  string `json:"country_code"`
	NumberType   string `json:"number_type"`
	SmsEnabled   *bool  `json:"sms_enabled,omitempty"`
	VoiceEnabled *bool  `json:"voice_enabled,omitempty"`
}

// Capabilities lists what a number supports
type Capabilities struct {
	MMS   *bool `json:"mms"`
	SMS   *bool `json:"sms"`
	Voice *bool `json:"voice"`
	Fax   *bool `json:"fax"`
}

// AvailableNumber is one purchasable number returned by a live search
type AvailableNumber struct {
	PhoneNumber         *string       `json:"phone_number"`
	FriendlyName        *string       `json:"friendly_name"`
	Capabilities        *Capabilities `json:"capabilities"`
	IsoCountry          *string       `json:"iso_country"`
	AddressRequirements *string       `json:"address_requirements"`
	Beta                *bool         `json:"beta"`
	Lata                *string       `json:"lata"`
	Locality            *string       `json:"locality"`
	RateCenter          *string       `json:"rate_center"`
	Latitude            *float64      `json:"latitude"`
	Longitude           *float64      `json:"longitude"`
	Region              *string       `json:"region"`
	PostalCode          *string       `json:"postal_code"`
}

// flexFloat accepts a JSON number or a numeric string
type flexFloat struct {
	value *float64
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		if v, err := n.Float64(); err == nil {
			f.value = &v
		}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		f.value = &v
	}
	return nil
}
