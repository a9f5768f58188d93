package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/goliatone/go-formkit/pkg/schema"
)

// Messages produced by the built-in rules.
const (
	MessageRequired     = "This field is required"
	MessageInvalidEmail = "Invalid email address"
	MessageInvalidURL   = "Invalid URL"
	MessagePattern      = "Does not match pattern"
	MessageBadPattern   = "Invalid pattern"
)

// Validator is a custom rule set whose errors are appended to the built-in
// ones.
type Validator func(value any, field schema.Field) []string

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Validate checks value against field and returns every error found. Errors
// of nested fields carry a "name: " or "[index]: " prefix per level.
func Validate(value any, field schema.Field) []string {
	return validateField(value, field)
}

// Run validates with the built-in rules and then appends the errors of each
// custom validator. Built-in validation always runs.
func Run(value any, field schema.Field, custom ...Validator) []string {
	errs := Validate(value, field)
	for _, validator := range custom {
		if validator == nil {
			continue
		}
		errs = append(errs, validator(value, field)...)
	}
	return errs
}

func validateField(value any, field schema.Field) []string {
	if isEmpty(value) {
		switch {
		case field.Required:
			return []string{MessageRequired}
		case value == "" && !matchesType(value, field.Type):
			// A blank answer is only a valid "no value" for string fields.
			return []string{typeMessage(field)}
		}
		return nil
	}
	if !matchesType(value, field.Type) {
		return []string{typeMessage(field)}
	}

	var errs []string
	if len(field.Enum) > 0 && !inEnum(value, field.Enum) {
		errs = append(errs, enumMessage(field))
	}

	switch field.Type {
	case schema.TypeString:
		errs = append(errs, validateString(value.(string), field)...)
	case schema.TypeNumber, schema.TypeInteger:
		number, _ := toFloat(value)
		errs = append(errs, validateNumber(number, field)...)
	case schema.TypeObject:
		errs = append(errs, validateObject(value, field)...)
	case schema.TypeArray:
		errs = append(errs, validateArray(value, field)...)
	}
	return errs
}

func validateString(value string, field schema.Field) []string {
	var errs []string
	length := utf8.RuneCountInString(value)
	if field.MinLength != nil && length < *field.MinLength {
		errs = append(errs, fmt.Sprintf("Must be at least %d characters", *field.MinLength))
	}
	if field.MaxLength != nil && length > *field.MaxLength {
		errs = append(errs, fmt.Sprintf("Must be at most %d characters", *field.MaxLength))
	}
	if field.Pattern != "" {
		re, err := compilePattern(field.Pattern)
		switch {
		case err != nil:
			errs = append(errs, MessageBadPattern)
		case !re.MatchString(value):
			errs = append(errs, MessagePattern)
		}
	}
	switch field.Format {
	case schema.FormatEmail:
		if !emailPattern.MatchString(value) {
			errs = append(errs, MessageInvalidEmail)
		}
	case schema.FormatURL:
		if parsed, err := url.ParseRequestURI(value); err != nil || parsed.Scheme == "" || parsed.Host == "" {
			errs = append(errs, MessageInvalidURL)
		}
	}
	return errs
}

func validateNumber(value float64, field schema.Field) []string {
	var errs []string
	if field.Minimum != nil && value < *field.Minimum {
		errs = append(errs, "Must be at least "+formatNumber(*field.Minimum))
	}
	if field.Maximum != nil && value > *field.Maximum {
		errs = append(errs, "Must be at most "+formatNumber(*field.Maximum))
	}
	return errs
}

func validateObject(value any, field schema.Field) []string {
	rv := reflect.ValueOf(value)
	keyType := rv.Type().Key()
	var errs []string
	for _, prop := range field.Properties {
		child := rv.MapIndex(reflect.ValueOf(prop.Name).Convert(keyType))
		if !child.IsValid() {
			if prop.Field.Required {
				errs = append(errs, prop.Name+": "+MessageRequired)
			}
			continue
		}
		for _, childErr := range validateField(child.Interface(), prop.Field) {
			errs = append(errs, prop.Name+": "+childErr)
		}
	}
	return errs
}

func validateArray(value any, field schema.Field) []string {
	if field.Items == nil {
		return nil
	}
	rv := reflect.ValueOf(value)
	var errs []string
	for idx := 0; idx < rv.Len(); idx++ {
		prefix := "[" + strconv.Itoa(idx) + "]: "
		for _, childErr := range validateField(rv.Index(idx).Interface(), *field.Items) {
			errs = append(errs, prefix+childErr)
		}
	}
	return errs
}

func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	if str, ok := value.(string); ok {
		return str == ""
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func matchesType(value any, fieldType schema.Type) bool {
	switch fieldType {
	case schema.TypeString:
		_, ok := value.(string)
		return ok
	case schema.TypeNumber:
		_, ok := toFloat(value)
		return ok
	case schema.TypeInteger:
		number, ok := toFloat(value)
		return ok && number == math.Trunc(number) && !math.IsInf(number, 0)
	case schema.TypeBoolean:
		_, ok := value.(bool)
		return ok
	case schema.TypeObject:
		rv := reflect.ValueOf(value)
		return rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String
	case schema.TypeArray:
		kind := reflect.ValueOf(value).Kind()
		return kind == reflect.Slice || kind == reflect.Array
	default:
		// Plugin-defined types carry their own rules through custom validators.
		return true
	}
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case bool, string:
		return 0, false
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f, !math.IsNaN(f)
	}
	return 0, false
}

func inEnum(value any, enum []any) bool {
	for _, candidate := range enum {
		if reflect.DeepEqual(candidate, value) {
			return true
		}
		left, lok := toFloat(candidate)
		right, rok := toFloat(value)
		if lok && rok && left == right {
			return true
		}
	}
	return false
}

func typeMessage(field schema.Field) string {
	return fmt.Sprintf("Expected %s", field.Type)
}

func enumMessage(field schema.Field) string {
	labels := make([]string, len(field.Enum))
	for idx := range field.Enum {
		labels[idx] = field.EnumLabel(idx)
	}
	return "Must be one of: " + strings.Join(labels, ", ")
}

func formatNumber(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

var patternCache sync.Map

func compilePattern(pattern string) (*regexp.Regexp, error) {
	if cached, ok := patternCache.Load(pattern); ok {
		return cached.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	patternCache.Store(pattern, re)
	return re, nil
}

// ErrorsFor returns the errors at or below path with the path prefix
// stripped. indexes flags the segments that are array indexes, as
// schema.IndexMask reports them. The root path returns a copy of every
// error.
func ErrorsFor(errs []string, path []string, indexes []bool) []string {
	if len(errs) == 0 {
		return nil
	}
	prefix := PathPrefix(path, indexes)
	var out []string
	for _, err := range errs {
		if strings.HasPrefix(err, prefix) {
			out = append(out, strings.TrimPrefix(err, prefix))
		}
	}
	return out
}

// PathPrefix formats path the way nested errors are prefixed:
// "owner: tags: [0]: ".
func PathPrefix(path []string, indexes []bool) string {
	if len(path) == 0 {
		return ""
	}
	var b strings.Builder
	for idx, segment := range path {
		if idx < len(indexes) && indexes[idx] {
			b.WriteString("[" + segment + "]: ")
			continue
		}
		b.WriteString(segment + ": ")
	}
	return b.String()
}
