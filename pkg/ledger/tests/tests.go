package tests

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-runtime/pkg/database/query"
	"github.com/code-payments/code-runtime/pkg/ledger"
	"github.com/code-payments/code-runtime/pkg/pointer"
)

func RunTests(t *testing.T, s ledger.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s ledger.Store){
		testRoundTrip,
		testUpdate,
		testStaleVersion,
		testAtomicCommit,
		testReclaim,
		testGetMultiple,
		testGetAllByOwner,
		testInvalidCommit,
	} {
		tf(t, s)
		teardown()
	}
}

func testRoundTrip(t *testing.T, s ledger.Store) {
	ctx := context.Background()

	expected := newRecord(t, newAddress(t))
	expected.Bump = pointer.Uint8(254)

	_, err := s.Get(ctx, expected.Address)
	assert.Equal(t, ledger.ErrNotFound, err)

	require.NoError(t, s.Commit(ctx, &ledger.Update{Record: expected}))
	assert.True(t, expected.Id > 0)
	assert.EqualValues(t, 1, expected.Version)
	assert.False(t, expected.LastUpdatedAt.IsZero())

	actual, err := s.Get(ctx, expected.Address)
	require.NoError(t, err)
	assert.True(t, expected.Equal(actual))
	assert.Equal(t, expected.Id, actual.Id)
	assert.EqualValues(t, 1, actual.Version)
	require.NotNil(t, actual.Bump)
	assert.EqualValues(t, 254, *actual.Bump)

	// Funded accounts without data are persisted
	wallet := newRecord(t, newAddress(t))
	wallet.Data = nil
	require.NoError(t, s.Commit(ctx, &ledger.Update{Record: wallet}))

	actual, err = s.Get(ctx, wallet.Address)
	require.NoError(t, err)
	assert.Nil(t, actual.Data)
	assert.Nil(t, actual.Bump)
	assert.Equal(t, wallet.Lamports, actual.Lamports)
}

func testUpdate(t *testing.T, s ledger.Store) {
	ctx := context.Background()

	record := newRecord(t, newAddress(t))
	require.NoError(t, s.Commit(ctx, &ledger.Update{Record: record}))
	id := record.Id

	newOwner := newAddress(t)
	record.Owner = newOwner
	record.Lamports = 42
	record.Data = []byte{9, 8, 7}
	require.NoError(t, s.Commit(ctx, &ledger.Update{Record: record, ExpectedVersion: 1}))
	assert.EqualValues(t, 2, record.Version)
	assert.Equal(t, id, record.Id)

	actual, err := s.Get(ctx, record.Address)
	require.NoError(t, err)
	assert.Equal(t, newOwner, actual.Owner)
	assert.EqualValues(t, 42, actual.Lamports)
	assert.Equal(t, []byte{9, 8, 7}, actual.Data)
	assert.EqualValues(t, 2, actual.Version)
	assert.Equal(t, id, actual.Id)
}

func testStaleVersion(t *testing.T, s ledger.Store) {
	ctx := context.Background()

	record := newRecord(t, newAddress(t))

	// Updating an account that doesn't exist
	assert.Equal(t, ledger.ErrStaleVersion, s.Commit(ctx, &ledger.Update{Record: record, ExpectedVersion: 1}))

	require.NoError(t, s.Commit(ctx, &ledger.Update{Record: record}))

	// Creating an account that already exists
	duplicate := newRecord(t, record.Address)
	assert.Equal(t, ledger.ErrStaleVersion, s.Commit(ctx, &ledger.Update{Record: duplicate}))

	// Writing from an outdated read
	stale := record.Clone()
	stale.Lamports = 1
	require.NoError(t, s.Commit(ctx, &ledger.Update{Record: record, ExpectedVersion: 1}))
	assert.Equal(t, ledger.ErrStaleVersion, s.Commit(ctx, &ledger.Update{Record: &stale, ExpectedVersion: 1}))

	actual, err := s.Get(ctx, record.Address)
	require.NoError(t, err)
	assert.EqualValues(t, 2, actual.Version)
	assert.Equal(t, record.Lamports, actual.Lamports)
}

func testAtomicCommit(t *testing.T, s ledger.Store) {
	ctx := context.Background()

	existing := newRecord(t, newAddress(t))
	require.NoError(t, s.Commit(ctx, &ledger.Update{Record: existing}))

	created := newRecord(t, newAddress(t))
	modified := existing.Clone()
	modified.Lamports = 7

	// The second update is stale, so the first must not be applied either
	err := s.Commit(
		ctx,
		&ledger.Update{Record: created},
		&ledger.Update{Record: &modified, ExpectedVersion: 5},
	)
	assert.Equal(t, ledger.ErrStaleVersion, err)

	_, err = s.Get(ctx, created.Address)
	assert.Equal(t, ledger.ErrNotFound, err)

	actual, err := s.Get(ctx, existing.Address)
	require.NoError(t, err)
	assert.Equal(t, existing.Lamports, actual.Lamports)
	assert.EqualValues(t, 1, actual.Version)
}

func testReclaim(t *testing.T, s ledger.Store) {
	ctx := context.Background()

	record := newRecord(t, newAddress(t))
	require.NoError(t, s.Commit(ctx, &ledger.Update{Record: record}))

	record.Lamports = 0
	record.Data = nil
	require.NoError(t, s.Commit(ctx, &ledger.Update{Record: record, ExpectedVersion: 1}))
	assert.EqualValues(t, 0, record.Version)

	_, err := s.Get(ctx, record.Address)
	assert.Equal(t, ledger.ErrNotFound, err)

	count, err := s.CountByOwner(ctx, record.Owner)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)

	// Recreating at the same address starts a new version history
	recreated := newRecord(t, record.Address)
	require.NoError(t, s.Commit(ctx, &ledger.Update{Record: recreated}))
	assert.EqualValues(t, 1, recreated.Version)

	// An account created and reclaimed before ever being persisted is a no-op
	ephemeral := newRecord(t, newAddress(t))
	ephemeral.Lamports = 0
	ephemeral.Data = nil
	require.NoError(t, s.Commit(ctx, &ledger.Update{Record: ephemeral}))

	_, err = s.Get(ctx, ephemeral.Address)
	assert.Equal(t, ledger.ErrNotFound, err)

	// But it can't silently delete an account it never observed
	existing := recreated.Clone()
	existing.Lamports = 0
	existing.Data = nil
	assert.Equal(t, ledger.ErrStaleVersion, s.Commit(ctx, &ledger.Update{Record: &existing}))
}

func testGetMultiple(t *testing.T, s ledger.Store) {
	ctx := context.Background()

	var addresses []string
	for i := 0; i < 3; i++ {
		record := newRecord(t, newAddress(t))
		require.NoError(t, s.Commit(ctx, &ledger.Update{Record: record}))
		addresses = append(addresses, record.Address)
	}

	missing := newAddress(t)

	actual, err := s.GetMultiple(ctx, append(addresses, missing)...)
	require.NoError(t, err)
	require.Len(t, actual, 3)

	found := make(map[string]struct{})
	for _, record := range actual {
		found[record.Address] = struct{}{}
	}
	for _, address := range addresses {
		assert.Contains(t, found, address)
	}

	actual, err = s.GetMultiple(ctx)
	require.NoError(t, err)
	assert.Empty(t, actual)
}

func testGetAllByOwner(t *testing.T, s ledger.Store) {
	ctx := context.Background()

	owner := newAddress(t)
	other := newAddress(t)

	var expected []*ledger.Record
	for i := 0; i < 5; i++ {
		record := newRecord(t, newAddress(t))
		record.Owner = owner
		record.Lamports = uint64(i + 1)
		require.NoError(t, s.Commit(ctx, &ledger.Update{Record: record}))
		expected = append(expected, record)

		unrelated := newRecord(t, newAddress(t))
		unrelated.Owner = other
		require.NoError(t, s.Commit(ctx, &ledger.Update{Record: unrelated}))
	}

	count, err := s.CountByOwner(ctx, owner)
	require.NoError(t, err)
	assert.EqualValues(t, 5, count)

	_, err = s.GetAllByOwner(ctx, newAddress(t), nil, 10, query.Ascending)
	assert.Equal(t, ledger.ErrNotFound, err)

	actual, err := s.GetAllByOwner(ctx, owner, nil, 10, query.Ascending)
	require.NoError(t, err)
	require.Len(t, actual, 5)
	for i, record := range actual {
		assert.Equal(t, expected[i].Address, record.Address)
	}

	actual, err = s.GetAllByOwner(ctx, owner, nil, 2, query.Descending)
	require.NoError(t, err)
	require.Len(t, actual, 2)
	assert.Equal(t, expected[4].Address, actual[0].Address)
	assert.Equal(t, expected[3].Address, actual[1].Address)

	actual, err = s.GetAllByOwner(ctx, owner, query.ToCursor(expected[1].Id), 10, query.Ascending)
	require.NoError(t, err)
	require.Len(t, actual, 3)
	assert.Equal(t, expected[2].Address, actual[0].Address)

	_, err = s.GetAllByOwner(ctx, owner, query.ToCursor(expected[4].Id), 10, query.Ascending)
	assert.Equal(t, ledger.ErrNotFound, err)

	_, err = s.GetAllByOwner(ctx, owner, query.Cursor{1, 2, 3}, 10, query.Ascending)
	assert.ErrorIs(t, err, query.ErrInvalidCursor)

	_, err = s.GetAllByOwner(ctx, owner, nil, 10, query.Ordering(9))
	assert.Error(t, err)
}

func testInvalidCommit(t *testing.T, s ledger.Store) {
	ctx := context.Background()

	assert.Error(t, s.Commit(ctx))

	invalid := newRecord(t, newAddress(t))
	invalid.Owner = ""
	assert.Error(t, s.Commit(ctx, &ledger.Update{Record: invalid}))

	record := newRecord(t, newAddress(t))
	duplicate := record.Clone()
	assert.Error(t, s.Commit(ctx, &ledger.Update{Record: record}, &ledger.Update{Record: &duplicate}))

	_, err := s.Get(ctx, record.Address)
	assert.Equal(t, ledger.ErrNotFound, err)
}

func newRecord(t *testing.T, address string) *ledger.Record {
	return &ledger.Record{
		Address:  address,
		Owner:    newAddress(t),
		Lamports: 1_000_000,
		Data:     []byte{1, 2, 3, 4, 5, 6, 7, 8},
	}
}

func newAddress(t *testing.T) string {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return base58.Encode(pub)
}
