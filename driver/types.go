package driver

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TypeCode is a server datatype token, numbered the way DB-Library numbers them.
type TypeCode int

const (
	TypeImage     TypeCode = 34
	TypeText      TypeCode = 35
	TypeVarBinary TypeCode = 37
	TypeVarChar   TypeCode = 39
	TypeBinary    TypeCode = 45
	TypeChar      TypeCode = 47
	TypeInt1      TypeCode = 48
	TypeBit       TypeCode = 50
	TypeInt2      TypeCode = 52
	TypeInt4      TypeCode = 56
	TypeDateTime4 TypeCode = 58
	TypeReal      TypeCode = 59
	TypeMoney     TypeCode = 60
	TypeDateTime  TypeCode = 61
	TypeFloat8    TypeCode = 62
	TypeDecimal   TypeCode = 106
	TypeNumeric   TypeCode = 108
	TypeMoney4    TypeCode = 122
	TypeInt8      TypeCode = 127
)

var typeNames = map[TypeCode]string{
	TypeImage:     "IMAGE",
	TypeText:      "TEXT",
	TypeVarBinary: "VARBINARY",
	TypeVarChar:   "VARCHAR",
	TypeBinary:    "BINARY",
	TypeChar:      "CHAR",
	TypeInt1:      "INT1",
	TypeBit:       "BIT",
	TypeInt2:      "INT2",
	TypeInt4:      "INT4",
	TypeDateTime4: "DATETIME4",
	TypeReal:      "REAL",
	TypeMoney:     "MONEY",
	TypeDateTime:  "DATETIME",
	TypeFloat8:    "FLT8",
	TypeDecimal:   "DECIMAL",
	TypeNumeric:   "NUMERIC",
	TypeMoney4:    "MONEY4",
	TypeInt8:      "INT8",
}

// aliases maps server type names as reported by database/sql drivers and as
// written by users onto type codes.
var aliases = map[string]TypeCode{
	"NCHAR":            TypeChar,
	"NVARCHAR":         TypeVarChar,
	"UNICHAR":          TypeChar,
	"UNIVARCHAR":       TypeVarChar,
	"SYSNAME":          TypeVarChar,
	"NTEXT":            TypeText,
	"UNITEXT":          TypeText,
	"XML":              TypeText,
	"TINYINT":          TypeInt1,
	"SMALLINT":         TypeInt2,
	"INT":              TypeInt4,
	"INTEGER":          TypeInt4,
	"BIGINT":           TypeInt8,
	"FLOAT":            TypeFloat8,
	"SMALLDATETIME":    TypeDateTime4,
	"DATE":             TypeDateTime,
	"TIME":             TypeDateTime,
	"DATETIME2":        TypeDateTime,
	"DATETIMEOFFSET":   TypeDateTime,
	"BIGDATETIME":      TypeDateTime,
	"SMALLMONEY":       TypeMoney4,
	"UNIQUEIDENTIFIER": TypeBinary,
	"TIMESTAMP":        TypeVarBinary,
}

func (t TypeCode) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "TYPE(" + strconv.Itoa(int(t)) + ")"
}

// Terminated reports whether fields of this type are transferred up to a
// terminator rather than with an explicit byte count.
func (t TypeCode) Terminated() bool {
	switch t {
	case TypeInt2, TypeInt4, TypeInt8:
		return true
	}
	return false
}

// Binary reports whether values of this type are raw bytes.
func (t TypeCode) Binary() bool {
	switch t {
	case TypeBinary, TypeVarBinary, TypeImage:
		return true
	}
	return false
}

// ParseTypeCode accepts a type name ("CHAR", "int4", "nvarchar") or a numeric
// type code ("47").
func ParseTypeCode(s string) (TypeCode, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("driver: empty type code")
	}
	if n, err := strconv.Atoi(s); err == nil {
		return TypeCode(n), nil
	}
	for code, name := range typeNames {
		if name == s {
			return code, nil
		}
	}
	if code, ok := aliases[s]; ok {
		return code, nil
	}
	return 0, fmt.Errorf("driver: unknown type %q", s)
}

// TypeFromName maps a database/sql DatabaseTypeName onto a type code. Unknown
// names map to TypeVarChar.
func TypeFromName(name string) TypeCode {
	code, err := ParseTypeCode(name)
	if err != nil {
		return TypeVarChar
	}
	return code
}

// dateLayouts are tried in order when a bound field targets a date type.
var dateLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006",
	"Jan _2 2006  3:04PM",
	"Jan _2 2006 3:04PM",
}

// Decode converts the payload of a bound field into the Go value a
// database/sql bulk interface expects for its server type. An empty payload
// is NULL, as is a blank one for non-character types.
func Decode(b Bind) (any, error) {
	raw := b.Payload()
	if len(raw) == 0 {
		return nil, nil
	}
	s := string(raw)
	switch b.Type {
	case TypeChar, TypeVarChar, TypeText:
		return s, nil
	case TypeBinary, TypeVarBinary, TypeImage:
		return raw, nil
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	switch b.Type {
	case TypeInt1, TypeInt2, TypeInt4, TypeInt8:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("column %d: %s value %q: %w", b.Column, b.Type, s, err)
		}
		return n, nil
	case TypeBit:
		v, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("column %d: %s value %q: %w", b.Column, b.Type, s, err)
		}
		return v, nil
	case TypeReal, TypeFloat8:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("column %d: %s value %q: %w", b.Column, b.Type, s, err)
		}
		return f, nil
	case TypeDateTime, TypeDateTime4:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return nil, fmt.Errorf("column %d: %s value %q: unrecognized date format", b.Column, b.Type, s)
	case TypeDecimal, TypeNumeric, TypeMoney, TypeMoney4:
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return nil, fmt.Errorf("column %d: %s value %q: %w", b.Column, b.Type, s, err)
		}
		return s, nil
	}
	return s, nil
}

// EncodeHex renders binary data the way the server converts it to character
// data: upper-case hex digits, no prefix.
func EncodeHex(b []byte) string {
	return strings.ToUpper(hex.EncodeToString(b))
}
