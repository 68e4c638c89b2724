package models

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Quantity is a stock count. Older asset documents and clients send it as a
// numeric string; both forms decode, and it is always written as a number.
type Quantity int

func (q *Quantity) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	v := bson.RawValue{Type: t, Value: data}
	switch t {
	case bson.TypeInt32:
		*q = Quantity(v.Int32())
	case bson.TypeInt64:
		*q = Quantity(v.Int64())
	case bson.TypeDouble:
		*q = Quantity(v.Double())
	case bson.TypeString:
		return q.parse(v.StringValue())
	case bson.TypeNull, bson.TypeUndefined:
		*q = 0
	default:
		return errors.Errorf("quantity: cannot decode %s", t)
	}
	return nil
}

func (q *Quantity) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	return q.parse(s)
}

func (q *Quantity) parse(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return errors.Errorf("quantity: %q is not a whole number", s)
	}
	*q = Quantity(n)
	return nil
}
