package order

import (
	"errors"
	"fmt"
	"strings"

	"github.com/brimdata/arbor/field"
)

type SortKey struct {
	Order Which      `json:"order" yaml:"order"`
	Key   field.Path `json:"key" yaml:"key"`
}

func NewSortKey(order Which, key field.Path) SortKey {
	return SortKey{order, key}
}

func (s SortKey) Equal(to SortKey) bool {
	return s.Order == to.Order && s.Key.Equal(to.Key)
}

func (s SortKey) String() string {
	return fmt.Sprintf("%s:%s", s.Key, s.Order)
}

type SortKeys []SortKey

// ParseSortKeys parses a description like "a,b.c:desc" where a single
// trailing order clause applies to every key.
func ParseSortKeys(s string) (SortKeys, error) {
	if s == "" {
		return nil, nil
	}
	which := Asc
	parts := strings.Split(s, ":")
	if len(parts) > 1 {
		if len(parts) > 2 {
			return nil, errors.New("only one order clause allowed in sortkey description")
		}
		var err error
		which, err = Parse(parts[1])
		if err != nil {
			return nil, err
		}
	}
	var keys SortKeys
	for _, k := range field.DottedList(parts[0]) {
		keys = append(keys, NewSortKey(which, k))
	}
	return keys, nil
}

func (s SortKeys) String() string {
	var out []string
	for _, k := range s {
		out = append(out, k.String())
	}
	return strings.Join(out, ",")
}
