package query

import (
	"github.com/pkg/errors"
)

// Ordering is the direction a paged listing walks record ids in
type Ordering uint

const (
	Ascending Ordering = iota
	Descending
)

func ParseOrdering(val string) (Ordering, error) {
	switch val {
	case "asc", "ASC":
		return Ascending, nil
	case "desc", "DESC":
		return Descending, nil
	default:
		return 0, errors.Errorf("unexpected ordering: %v", val)
	}
}

func (o Ordering) Validate() error {
	if o != Ascending && o != Descending {
		return errors.Errorf("unexpected ordering: %d", o)
	}
	return nil
}

func (o Ordering) String() string {
	switch o {
	case Ascending:
		return "asc"
	case Descending:
		return "desc"
	default:
		return "unknown"
	}
}
