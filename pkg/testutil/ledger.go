package testutil

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-runtime/pkg/ledger"
	"github.com/code-payments/code-runtime/pkg/solana/system"
)

// FundAccount credits lamports to a system owned account directly in the
// ledger, creating it if needed
func FundAccount(t *testing.T, store ledger.Store, address ed25519.PublicKey, lamports uint64) *ledger.Record {
	ctx := context.Background()

	record, err := store.Get(ctx, base58.Encode(address))
	if err == ledger.ErrNotFound {
		record = &ledger.Record{
			Address: base58.Encode(address),
			Owner:   base58.Encode(system.SystemAccount),
		}
	} else {
		require.NoError(t, err)
	}

	record.Lamports += lamports
	require.NoError(t, store.Commit(ctx, &ledger.Update{Record: record, ExpectedVersion: record.Version}))
	return record
}

// InjectAccount writes an account with arbitrary state into the ledger,
// replacing whatever was stored at address
func InjectAccount(t *testing.T, store ledger.Store, address, owner ed25519.PublicKey, lamports uint64, data []byte) *ledger.Record {
	ctx := context.Background()

	var version uint64
	existing, err := store.Get(ctx, base58.Encode(address))
	if err == nil {
		version = existing.Version
	} else {
		require.Equal(t, ledger.ErrNotFound, err)
	}

	record := &ledger.Record{
		Address:  base58.Encode(address),
		Owner:    base58.Encode(owner),
		Lamports: lamports,
		Data:     data,
	}
	require.NoError(t, store.Commit(ctx, &ledger.Update{Record: record, ExpectedVersion: version}))
	return record
}
