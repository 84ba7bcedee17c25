package order

import (
	"fmt"
	"strings"
)

// Which is the direction of a sort.
type Which bool

const (
	Asc  = Which(false)
	Desc = Which(true)
)

func Parse(s string) (Which, error) {
	switch strings.ToLower(s) {
	case "asc", "":
		return Asc, nil
	case "desc":
		return Desc, nil
	default:
		return false, fmt.Errorf("unknown order: %s", s)
	}
}

func (w Which) String() string {
	if w == Desc {
		return "desc"
	}
	return "asc"
}

func (w Which) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

func (w *Which) UnmarshalText(b []byte) error {
	var err error
	*w, err = Parse(string(b))
	return err
}
