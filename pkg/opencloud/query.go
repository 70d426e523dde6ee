package opencloud

import (
	"fmt"
	"net/url"
	"strconv"
)

// QueryParams holds request query parameters before wire encoding. Open
// Cloud endpoints take free-form scalar parameters; nil values are
// omitted entirely and booleans are rendered lowercase.
type QueryParams map[string]any

// NewQueryParams creates an empty QueryParams.
func NewQueryParams() QueryParams {
	return QueryParams{}
}

// Set assigns a parameter value, replacing any previous value.
func (p QueryParams) Set(key string, value any) QueryParams {
	p[key] = value

	return p
}

// SetOptional assigns a string parameter only when it is non-empty.
// Open Cloud treats an absent parameter and an empty one differently
// for cursors and filters.
func (p QueryParams) SetOptional(key, value string) QueryParams {
	if value != "" {
		p[key] = value
	}

	return p
}

// ToValues converts the parameters to url.Values. A nil value drops the
// parameter, booleans encode as "true"/"false", and numbers use their
// shortest decimal form.
func (p QueryParams) ToValues() url.Values {
	values := url.Values{}

	for key, value := range p {
		encoded, ok := encodeQueryValue(value)
		if !ok {
			continue
		}

		values.Set(key, encoded)
	}

	return values
}

func encodeQueryValue(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case fmt.Stringer:
		return v.String(), true
	default:
		return fmt.Sprintf("%v", v), true
	}
}
