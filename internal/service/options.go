package service

import (
	"fmt"

	"github.com/stacklok/phone-registry-server/internal/provider"
)

// Option is a function that sets an option for service operations
type Option func(T any) error

type skipOption interface {
	setSkip(skip int) error
}

type limitOption interface {
	setLimit(limit int) error
}

type numberTypeOption interface {
	setNumberType(numberType string) error
}

type onlyAvailableTypesOption interface {
	setOnlyAvailableTypes(only bool) error
}

// ListCountriesOptions is the options for the ListCountries operation
type ListCountriesOptions struct {
	Skip       int
	Limit      int
	NumberType string
}

//nolint:unparam
func (o *ListCountriesOptions) setSkip(skip int) error {
	o.Skip = skip
	return nil
}

//nolint:unparam
func (o *ListCountriesOptions) setLimit(limit int) error {
	o.Limit = limit
	return nil
}

// setNumberType accepts only the availability column names, since the
// country filter selects on those columns
func (o *ListCountriesOptions) setNumberType(numberType string) error {
	if numberType != "" && !provider.IsNumberTypeName(numberType) {
		return fmt.Errorf("%w: %q", ErrInvalidNumberType, numberType)
	}
	o.NumberType = numberType
	return nil
}

// ListRegulationsOptions is the options for the ListRegulations operation
type ListRegulationsOptions struct {
	NumberType         string
	OnlyAvailableTypes bool
}

// setNumberType keeps the value as sent. Regulation rows carry the provider's
// own spelling (for example "toll free"), matched exactly.
//
//nolint:unparam
func (o *ListRegulationsOptions) setNumberType(numberType string) error {
	o.NumberType = numberType
	return nil
}

//nolint:unparam
func (o *ListRegulationsOptions) setOnlyAvailableTypes(only bool) error {
	o.OnlyAvailableTypes = only
	return nil
}

// WithSkip sets how many countries to skip
func WithSkip(skip int) Option {
	return func(o any) error {
		if skip < 0 {
			return fmt.Errorf("invalid skip: %d", skip)
		}

		switch o := o.(type) {
		case skipOption:
			return o.setSkip(skip)
		default:
			return fmt.Errorf("invalid option type: %T", o)
		}
	}
}

// WithLimit sets the maximum number of countries returned
func WithLimit(limit int) Option {
	return func(o any) error {
		if limit < 1 || limit > MaxPageSize {
			return fmt.Errorf("invalid limit: %d, must be between 1 and %d", limit, MaxPageSize)
		}

		switch o := o.(type) {
		case limitOption:
			return o.setLimit(limit)
		default:
			return fmt.Errorf("invalid option type: %T", o)
		}
	}
}

// WithNumberType filters on a number type. An empty value is no filter.
// Country listings reject names outside provider.NumberTypeNames.
func WithNumberType(numberType string) Option {
	return func(o any) error {
		switch o := o.(type) {
		case numberTypeOption:
			return o.setNumberType(numberType)
		default:
			return fmt.Errorf("invalid option type: %T", o)
		}
	}
}

// WithOnlyAvailableTypes restricts regulations to the number types the
// country has available, plus regulations without a number type
func WithOnlyAvailableTypes(only bool) Option {
	return func(o any) error {
		switch o := o.(type) {
		case onlyAvailableTypesOption:
			return o.setOnlyAvailableTypes(only)
		default:
			return fmt.Errorf("invalid option type: %T", o)
		}
	}
}
