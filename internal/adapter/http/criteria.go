package http

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/couchcryptid/disaster-funding-service/internal/domain"
)

var yearMonthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// criteriaQuery mirrors the filter query parameters before conversion.
type criteriaQuery struct {
	Start       string   `json:"start" validate:"omitempty,yearmonth"`
	End         string   `json:"end" validate:"omitempty,yearmonth"`
	Regions     []string `json:"regions" validate:"dive,region"`
	Territories string   `json:"territories" validate:"omitempty,oneof=true false 1 0"`
	Types       []string `json:"types" validate:"dive,required"`
	Sources     []string `json:"sources" validate:"dive,oneof=ihp pa cdbg_dr sba"`
	Strategy    string   `json:"strategy" validate:"omitempty,oneof=proportional quantile"`

	sourcesSet bool
}

type factSheetQuery struct {
	IDs          []string `json:"ids" validate:"required,min=1,max=20,dive,required"`
	DistrictSort string   `json:"district_sort" validate:"omitempty,oneof=funding applicants"`
	Order        string   `json:"order" validate:"omitempty,oneof=asc desc"`
}

// fieldError is one rejected query parameter.
type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// validationError carries every rejected parameter of a request.
type validationError struct {
	Fields []fieldError
}

func (e *validationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+": "+f.Message)
	}
	return "invalid query: " + strings.Join(msgs, "; ")
}

type criteriaValidator struct {
	v *validator.Validate
}

// customValidations are the tags used by criteriaQuery beyond validator's built-ins.
var customValidations = map[string]validator.Func{
	"yearmonth": func(fl validator.FieldLevel) bool {
		return yearMonthPattern.MatchString(fl.Field().String())
	},
	"region": func(fl validator.FieldLevel) bool {
		return domain.IsKnownRegion(domain.NormalizeRegion(fl.Field().String()))
	},
}

func registerValidations(v *validator.Validate, fns map[string]validator.Func) error {
	for tag, fn := range fns {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %q validation: %w", tag, err)
		}
	}
	return nil
}

// newCriteriaValidator panics if a custom tag fails to register, since the
// query structs would otherwise be validated without it.
func newCriteriaValidator() *criteriaValidator {
	v := validator.New()
	if err := registerValidations(v, customValidations); err != nil {
		panic(err)
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &criteriaValidator{v: v}
}

func (cv *criteriaValidator) validate(s any) error {
	err := cv.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &validationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, fieldError{Field: fieldName(fe), Message: fieldMessage(fe)})
	}
	return out
}

// fieldName drops the struct prefix and keeps the element index for dives.
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "yearmonth":
		return fmt.Sprintf("%q is not a YYYY-MM month", fe.Value())
	case "region":
		return fmt.Sprintf("%q is not a state, DC or territory code", fe.Value())
	case "oneof":
		return fmt.Sprintf("%q must be one of: %s", fe.Value(), fe.Param())
	case "required":
		return "is required"
	case "min":
		return "needs at least " + fe.Param() + " value(s)"
	case "max":
		return "allows at most " + fe.Param() + " values"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

// parseCriteria reads and validates the filter parameters. Absent sources
// select all four; a present but empty sources parameter selects none.
func (cv *criteriaValidator) parseCriteria(q url.Values) (domain.FilterCriteria, domain.ThresholdStrategy, error) {
	_, sourcesSet := q["sources"]
	query := criteriaQuery{
		Start:       q.Get("start"),
		End:         q.Get("end"),
		Regions:     splitParam(q.Get("regions")),
		Territories: q.Get("territories"),
		Types:       splitParam(q.Get("types")),
		Sources:     splitParam(q.Get("sources")),
		Strategy:    q.Get("strategy"),
		sourcesSet:  sourcesSet,
	}
	if err := cv.validate(query); err != nil {
		return domain.FilterCriteria{}, "", err
	}
	return query.toCriteria()
}

func (q criteriaQuery) toCriteria() (domain.FilterCriteria, domain.ThresholdStrategy, error) {
	c := domain.FilterCriteria{
		Types:              q.Types,
		IncludeTerritories: q.Territories == "true" || q.Territories == "1",
	}
	c.StartYear, c.StartMonth = parseYearMonth(q.Start)
	c.EndYear, c.EndMonth = parseYearMonth(q.End)
	if q.Start != "" && q.End != "" && q.Start > q.End {
		return c, "", &validationError{Fields: []fieldError{{Field: "start", Message: "must not be after end"}}}
	}

	for _, r := range q.Regions {
		c.Regions = append(c.Regions, domain.NormalizeRegion(r))
	}

	if !q.sourcesSet {
		c.Sources = append([]domain.FundingSource(nil), domain.AllSources...)
	} else {
		c.Sources = make([]domain.FundingSource, 0, len(q.Sources))
		for _, s := range q.Sources {
			c.Sources = append(c.Sources, domain.FundingSource(s))
		}
		c.Sources = domain.UniqueSources(c.Sources)
	}

	return c, domain.ThresholdStrategy(q.Strategy), nil
}

func (cv *criteriaValidator) parseFactSheet(q url.Values) ([]string, domain.FactSheetOptions, error) {
	query := factSheetQuery{
		IDs:          splitParam(q.Get("ids")),
		DistrictSort: q.Get("district_sort"),
		Order:        q.Get("order"),
	}
	if err := cv.validate(query); err != nil {
		return nil, domain.FactSheetOptions{}, err
	}
	return query.IDs, domain.FactSheetOptions{
		DistrictSort: domain.DistrictSortKey(query.DistrictSort),
		Ascending:    query.Order == "asc",
	}, nil
}

// parseYearMonth splits a validated YYYY-MM value; empty yields zeros.
func parseYearMonth(s string) (year, month int) {
	if s == "" {
		return 0, 0
	}
	year, _ = strconv.Atoi(s[:4])
	month, _ = strconv.Atoi(s[5:])
	return year, month
}

func splitParam(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
