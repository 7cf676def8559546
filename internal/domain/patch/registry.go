package patch

import (
	"sort"

	crerr "github.com/cockroachdb/errors"

	"github.com/a-luna/vigorish-sub003/internal/domain/scrape"
)

// Key addresses the patch list of one input.
type Key struct {
	DataSet scrape.DataSet
	URLID   string
}

// Registry holds every patch list known at start-up. It is never modified
// after NewRegistry returns, so it can be shared across goroutines.
type Registry struct {
	lists map[Key]List
}

func NewRegistry(lists ...List) (*Registry, error) {
	r := &Registry{lists: make(map[Key]List, len(lists))}
	for _, l := range lists {
		if err := l.Validate(); err != nil {
			return nil, err
		}
		if _, ok := r.lists[l.Key()]; ok {
			return nil, crerr.Wrapf(ErrInvalidList, "duplicate patch list for %s/%s", l.DataSet, l.URLID)
		}
		r.lists[l.Key()] = l
	}
	return r, nil
}

func (r *Registry) Lookup(ds scrape.DataSet, urlID string) (List, bool) {
	if r == nil {
		return List{}, false
	}
	l, ok := r.lists[Key{DataSet: ds, URLID: urlID}]
	return l, ok
}

func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.lists)
}

// Keys returns every key sorted by data set then url id.
func (r *Registry) Keys() []Key {
	if r == nil {
		return nil
	}
	keys := make([]Key, 0, len(r.lists))
	for k := range r.lists {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].DataSet != keys[j].DataSet {
			return keys[i].DataSet < keys[j].DataSet
		}
		return keys[i].URLID < keys[j].URLID
	})
	return keys
}

// ApplyTo looks up the list for in and applies it. Inputs without a list
// come back unchanged.
func (r *Registry) ApplyTo(in scrape.Input) (Result, error) {
	list, ok := r.Lookup(in.DataSet(), in.URLID())
	if !ok {
		return Result{Input: in}, nil
	}
	return Apply(list, in)
}
