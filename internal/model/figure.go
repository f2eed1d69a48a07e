package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Figure is a financial number kept as decimal text. The zero value is "not published".
// It is stored in a NOT NULL string column where the empty string means absent.
type Figure struct {
	decimal.NullDecimal
}

func NewFigure(d decimal.Decimal) Figure {
	return Figure{decimal.NullDecimal{Decimal: d, Valid: true}}
}

func MustFigure(s string) Figure {
	f, err := ParseFigure(s)
	if err != nil {
		panic(err)
	}
	return f
}

var suffixShift = map[byte]int32{
	'K': 3,
	'M': 6,
	'B': 9,
	'T': 12,
}

// ParseFigure reads figures as published on calendar pages: "1.23", "-0.5", "1,234.5",
// "2.5%", "12.3B", and "", "-", "--", "N/A" for missing values.
func ParseFigure(s string) (Figure, error) {
	s = strings.TrimSpace(s)
	switch strings.ToUpper(s) {
	case "", "-", "--", "N/A", "NA":
		return Figure{}, nil
	}

	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimPrefix(s, "+")

	var shift int32
	if n := len(s); n > 0 {
		if sh, ok := suffixShift[strings.ToUpper(s[n-1:])[0]]; ok {
			shift = sh
			s = s[:n-1]
		}
	}

	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Figure{}, fmt.Errorf("invalid figure %q: %w", s, err)
	}
	if shift != 0 {
		d = d.Shift(shift)
	}
	return NewFigure(d), nil
}

func (f Figure) IsZero() bool {
	return !f.Valid
}

// String keeps every fractional digit the value was created with ("0.10" stays "0.10").
func (f Figure) String() string {
	if !f.Valid {
		return ""
	}
	places := int32(0)
	if exp := f.Decimal.Exponent(); exp < 0 {
		places = -exp
	}
	return f.Decimal.StringFixed(places)
}

func (f Figure) Value() (driver.Value, error) {
	return f.String(), nil
}

func (f *Figure) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*f = Figure{}
		return nil
	case []byte:
		return f.scanText(string(v))
	case string:
		return f.scanText(v)
	default:
		return f.NullDecimal.Scan(src)
	}
}

func (f *Figure) scanText(s string) error {
	if strings.TrimSpace(s) == "" {
		*f = Figure{}
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("stored figure %q is not a decimal: %w", s, err)
	}
	*f = NewFigure(d)
	return nil
}

func (Figure) GormDataType() string {
	return "string"
}

func (f Figure) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

func (f *Figure) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = Figure{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		// 숫자 리터럴도 허용
		s = string(b)
	}
	parsed, err := ParseFigure(s)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
