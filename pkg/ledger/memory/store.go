package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/code-payments/code-runtime/pkg/database/query"
	"github.com/code-payments/code-runtime/pkg/ledger"
)

type store struct {
	mu      sync.Mutex
	records []*ledger.Record
	last    uint64
}

type ById []*ledger.Record

func (a ById) Len() int           { return len(a) }
func (a ById) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a ById) Less(i, j int) bool { return a[i].Id < a[j].Id }

// New returns a new in memory ledger.Store
func New() ledger.Store {
	return &store{
		records: make([]*ledger.Record, 0),
		last:    0,
	}
}

func (s *store) reset() {
	s.mu.Lock()
	s.records = make([]*ledger.Record, 0)
	s.last = 0
	s.mu.Unlock()
}

func (s *store) findAddress(address string) (int, *ledger.Record) {
	for i, item := range s.records {
		if item.Address == address {
			return i, item
		}
	}
	return -1, nil
}

func (s *store) findByOwner(owner string) []*ledger.Record {
	res := make([]*ledger.Record, 0)
	for _, item := range s.records {
		if item.Owner == owner {
			res = append(res, item)
		}
	}
	return res
}

func (s *store) filter(items []*ledger.Record, cursor query.Cursor, limit uint64, direction query.Ordering) []*ledger.Record {
	var start uint64

	start = 0
	if direction == query.Descending {
		start = s.last + 1
	}
	if len(cursor) > 0 {
		start = cursor.ToUint64()
	}

	var res []*ledger.Record
	for _, item := range items {
		if item.Id > start && direction == query.Ascending {
			res = append(res, item)
		}
		if item.Id < start && direction == query.Descending {
			res = append(res, item)
		}
	}

	if direction == query.Descending {
		sort.Sort(sort.Reverse(ById(res)))
	} else {
		sort.Sort(ById(res))
	}

	if limit == 0 || limit > query.MaxPagingLimit {
		limit = query.MaxPagingLimit
	}
	if len(res) >= int(limit) {
		return res[:limit]
	}

	return res
}

func (s *store) Get(_ context.Context, address string) (*ledger.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, item := s.findAddress(address); item != nil {
		cloned := item.Clone()
		return &cloned, nil
	}

	return nil, ledger.ErrNotFound
}

func (s *store) GetMultiple(_ context.Context, addresses ...string) ([]*ledger.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := make([]*ledger.Record, 0, len(addresses))
	for _, address := range addresses {
		if _, item := s.findAddress(address); item != nil {
			cloned := item.Clone()
			res = append(res, &cloned)
		}
	}
	return res, nil
}

func (s *store) GetAllByOwner(_ context.Context, owner string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*ledger.Record, error) {
	if err := cursor.Validate(); err != nil {
		return nil, err
	}
	if err := direction.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if items := s.findByOwner(owner); len(items) > 0 {
		res := s.filter(items, cursor, limit, direction)

		if len(res) == 0 {
			return nil, ledger.ErrNotFound
		}

		return clonedRecords(res), nil
	}

	return nil, ledger.ErrNotFound
}

func (s *store) CountByOwner(_ context.Context, owner string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return uint64(len(s.findByOwner(owner))), nil
}

func (s *store) Commit(_ context.Context, updates ...*ledger.Update) error {
	if err := ledger.ValidateUpdates(updates); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Check every version before mutating anything so the batch is all or nothing
	for _, update := range updates {
		_, item := s.findAddress(update.Record.Address)
		if item == nil && update.ExpectedVersion != 0 {
			return ledger.ErrStaleVersion
		}
		if item != nil && item.Version != update.ExpectedVersion {
			return ledger.ErrStaleVersion
		}
	}

	now := time.Now()
	for _, update := range updates {
		data := update.Record
		i, item := s.findAddress(data.Address)

		if data.IsReclaimed() {
			if item != nil {
				s.records = append(s.records[:i], s.records[i+1:]...)
			}
			data.Id = 0
			data.Version = 0
			data.LastUpdatedAt = now
			continue
		}

		data.Version = update.ExpectedVersion + 1
		data.LastUpdatedAt = now

		if item != nil {
			data.Id = item.Id
			data.CopyTo(item)
			continue
		}

		s.last++
		data.Id = s.last

		c := data.Clone()
		s.records = append(s.records, &c)
	}

	return nil
}

func clonedRecords(items []*ledger.Record) []*ledger.Record {
	res := make([]*ledger.Record, len(items))
	for i, item := range items {
		cloned := item.Clone()
		res[i] = &cloned
	}
	return res
}
