package accounts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/ledgerd/internal/id"
	"github.com/cleared-dev/ledgerd/internal/ledger"
	"github.com/cleared-dev/ledgerd/internal/model"
	"github.com/cleared-dev/ledgerd/internal/money"
	"github.com/cleared-dev/ledgerd/internal/store/memstore"
)

func newService(t *testing.T, gen id.Generator) *Service {
	t.Helper()
	s, err := memstore.Open(memstore.Options{})
	require.NoError(t, err)
	return NewService(ledger.NewEngine(s, nil), gen, nil)
}

// sequence returns a generator yielding numbers in order, then repeating the
// last one.
func sequence(numbers ...string) id.Generator {
	i := 0
	return func() string {
		n := numbers[min(i, len(numbers)-1)]
		i++
		return n
	}
}

func TestCreate(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()

	acct, err := svc.Create(ctx, money.MustParse("100"))
	require.NoError(t, err)
	assert.True(t, id.ValidAccountNumber(acct.Number, id.DefaultAccountNumberLength))
	assert.Equal(t, "100.00", acct.Balance.String())

	got, err := svc.Get(ctx, acct.Number)
	require.NoError(t, err)
	assert.Equal(t, acct.ID, got.ID)
	assert.Equal(t, "100.00", got.Balance.String())
}

func TestCreate_ZeroBalance(t *testing.T) {
	svc := newService(t, nil)
	acct, err := svc.Create(context.Background(), money.Zero)
	require.NoError(t, err)
	assert.True(t, acct.Balance.IsZero())
}

func TestCreate_NegativeRejected(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, money.MustParse("-0.01"))
	assert.ErrorIs(t, err, model.ErrInvalidAmount)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreate_RetriesOnCollision(t *testing.T) {
	svc := newService(t, sequence("1000000000000001", "1000000000000001", "1000000000000002"))
	ctx := context.Background()

	_, err := svc.Create(ctx, money.Zero)
	require.NoError(t, err)

	acct, err := svc.Create(ctx, money.MustParse("5"))
	require.NoError(t, err)
	assert.Equal(t, "1000000000000002", acct.Number)
}

func TestCreate_GivesUpAfterRepeatedCollisions(t *testing.T) {
	svc := newService(t, sequence("1000000000000001"))
	ctx := context.Background()

	_, err := svc.Create(ctx, money.Zero)
	require.NoError(t, err)

	_, err = svc.Create(ctx, money.Zero)
	assert.ErrorIs(t, err, model.ErrDuplicateAccount)
	assert.ErrorContains(t, err, "after 3 attempts")
}

func TestGet_NotFound(t *testing.T) {
	svc := newService(t, nil)
	_, err := svc.Get(context.Background(), "0000000000000000")
	assert.ErrorIs(t, err, model.ErrAccountNotFound)
}

func TestList(t *testing.T) {
	svc := newService(t, sequence("3000000000000000", "1000000000000000", "2000000000000000"))
	ctx := context.Background()
	for range 3 {
		_, err := svc.Create(ctx, money.MustParse("1"))
		require.NoError(t, err)
	}

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "1000000000000000", all[0].Number)
	assert.Equal(t, "3000000000000000", all[2].Number)
}
