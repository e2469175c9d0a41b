package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/microfeed/internal/common"
	"github.com/atinyakov/microfeed/internal/models"
	"github.com/atinyakov/microfeed/internal/service"
)

func accountIDs(accounts []models.Account) []string {
	out := make([]string, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, a.ID)
	}
	return out
}

func TestGraph_FollowAndUnfollow(t *testing.T) {
	ctx := context.Background()
	accounts, store := newAccounts()
	graph := service.NewGraphService(store)

	a, err := accounts.CreateAccount(ctx, input("Alice", "alice@example.com", "foobar"))
	require.NoError(t, err)
	b, err := accounts.CreateAccount(ctx, input("Bob", "bob@example.com", "foobar"))
	require.NoError(t, err)

	require.NoError(t, graph.Follow(ctx, a.ID, b.ID))

	ok, err := graph.IsFollowing(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = graph.IsFollowing(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, ok, "edges are directed")

	following, err := graph.FollowingOf(ctx, a.ID, models.Page{})
	require.NoError(t, err)
	assert.Contains(t, accountIDs(following), b.ID)

	followers, err := graph.FollowersOf(ctx, b.ID, models.Page{})
	require.NoError(t, err)
	assert.Contains(t, accountIDs(followers), a.ID)

	require.NoError(t, graph.Unfollow(ctx, a.ID, b.ID))
	ok, err = graph.IsFollowing(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, graph.Unfollow(ctx, a.ID, b.ID), common.ErrEdgeNotFound)
}

func TestGraph_FollowIsIdempotent(t *testing.T) {
	ctx := context.Background()
	accounts, store := newAccounts()
	graph := service.NewGraphService(store)

	a, err := accounts.CreateAccount(ctx, input("Alice", "alice@example.com", "foobar"))
	require.NoError(t, err)
	b, err := accounts.CreateAccount(ctx, input("Bob", "bob@example.com", "foobar"))
	require.NoError(t, err)

	require.NoError(t, graph.Follow(ctx, a.ID, b.ID))
	require.NoError(t, graph.Follow(ctx, a.ID, b.ID))

	followers, err := graph.FollowersOf(ctx, b.ID, models.Page{})
	require.NoError(t, err)
	assert.Len(t, followers, 1)

	require.NoError(t, graph.Unfollow(ctx, a.ID, b.ID))
	assert.ErrorIs(t, graph.Unfollow(ctx, a.ID, b.ID), common.ErrEdgeNotFound)
}

func TestGraph_SelfFollowAllowed(t *testing.T) {
	ctx := context.Background()
	accounts, store := newAccounts()
	graph := service.NewGraphService(store)

	a, err := accounts.CreateAccount(ctx, input("Alice", "alice@example.com", "foobar"))
	require.NoError(t, err)

	require.NoError(t, graph.Follow(ctx, a.ID, a.ID))
	ok, err := graph.IsFollowing(ctx, a.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGraph_FollowUnknownAccount(t *testing.T) {
	ctx := context.Background()
	accounts, store := newAccounts()
	graph := service.NewGraphService(store)

	a, err := accounts.CreateAccount(ctx, input("Alice", "alice@example.com", "foobar"))
	require.NoError(t, err)

	assert.ErrorIs(t, graph.Follow(ctx, a.ID, "ghost"), common.ErrAccountNotFound)
	assert.ErrorIs(t, graph.Follow(ctx, "ghost", a.ID), common.ErrAccountNotFound)
}
