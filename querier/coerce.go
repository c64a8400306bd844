package querier

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/thisisjab/usersearch/fault"
	"github.com/thisisjab/usersearch/querier/parser"
)

// Options controls how search values are coerced.
type Options struct {
	// DateOrder decides how ambiguous numeric dates are read. Defaults to DateOrderDMY.
	DateOrder DateOrder

	// Location is used for dates without an explicit zone. Defaults to time.Local.
	Location *time.Location

	// Now is the clock for relative dates such as "today". Defaults to time.Now.
	Now func() time.Time
}

// Coercer converts raw search values into typed values. It holds no mutable
// state and may be shared between goroutines.
type Coercer struct {
	dates dateParser
}

func NewCoercer(opts Options) *Coercer {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Coercer{dates: dateParser{order: opts.DateOrder, loc: loc, now: now}}
}

// Coerce returns raw as a float64, string, time.Time or bool according to t.
func (c *Coercer) Coerce(raw string, t DeclaredType) (any, error) {
	switch t {
	case TypeString:
		return raw, nil

	case TypeNumber:
		v, err := parser.Evaluate(raw)
		if err != nil {
			return nil, fault.New(fault.CoercionCode, fmt.Sprintf("%q is not a number", raw)).WithOriginal(err)
		}
		return v, nil

	case TypeDate:
		v, err := c.dates.parse(raw)
		if err != nil {
			return nil, fault.New(fault.CoercionCode, fmt.Sprintf("%q is not a date", raw)).WithOriginal(err)
		}
		return v, nil

	case TypeBoolean:
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, fault.New(fault.CoercionCode, fmt.Sprintf("%q is not a boolean, expected true or false", raw))

	default:
		return nil, fault.New(fault.ConfigurationCode, fmt.Sprintf("unsupported declared type %s", t))
	}
}

// FormatValue renders a coerced value the way executed searches show it.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(DateTimeLayout)
	default:
		return fmt.Sprint(x)
	}
}
