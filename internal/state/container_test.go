package state_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/state"
)

func newContainer(items ...model.Item) (*state.Container, *fakeGateway) {
	gw := &fakeGateway{items: items}
	for _, it := range items {
		if it.ID > gw.nextID {
			gw.nextID = it.ID
		}
	}
	return state.New(gw, nil), gw
}

func loaded(t *testing.T, items ...model.Item) (*state.Container, *fakeGateway) {
	t.Helper()
	c, gw := newContainer(items...)
	require.NoError(t, c.Dispatch(context.Background(), state.FetchAll()))
	return c, gw
}

func TestFetchAllReplacesItems(t *testing.T) {
	t.Parallel()

	c, _ := loaded(t, model.Item{ID: 1, UserID: 1, Title: "a"})
	require.Equal(t, []model.Item{{ID: 1, UserID: 1, Title: "a"}}, c.Snapshot().Items)
	require.Equal(t, state.KindNone, c.Snapshot().Pending)
}

func TestCreateAppendsAndClearsSelection(t *testing.T) {
	t.Parallel()

	c, _ := loaded(t, model.Item{ID: 1, UserID: 1, Title: "a"})
	ctx := context.Background()
	require.NoError(t, c.Dispatch(ctx, state.Select(&model.Item{ID: 1, UserID: 1, Title: "a"})))

	require.NoError(t, c.Dispatch(ctx, state.Create(model.Draft{UserID: 2, Title: "b"})))

	s := c.Snapshot()
	require.Equal(t, []model.Item{
		{ID: 1, UserID: 1, Title: "a"},
		{ID: 2, UserID: 2, Title: "b"},
	}, s.Items)
	require.Nil(t, s.Selected)
}

func TestUpdateReplacesWholesale(t *testing.T) {
	t.Parallel()

	c, _ := loaded(t,
		model.Item{ID: 1, UserID: 1, Title: "a"},
		model.Item{ID: 2, UserID: 2, Title: "b"},
	)
	require.NoError(t, c.Dispatch(context.Background(), state.Update(model.Draft{UserID: 1, Title: "c"}, 1)))

	require.Equal(t, []model.Item{
		{ID: 1, UserID: 1, Title: "c"},
		{ID: 2, UserID: 2, Title: "b"},
	}, c.Snapshot().Items)
}

func TestUpdateMissingIDIsRejectedLocally(t *testing.T) {
	t.Parallel()

	c, gw := loaded(t, model.Item{ID: 1, UserID: 1, Title: "a"})
	before := gw.callCount()

	err := c.Dispatch(context.Background(), state.Update(model.Draft{UserID: 1, Title: "x"}, 99))
	require.ErrorIs(t, err, state.ErrNotFound)
	require.Equal(t, before, gw.callCount())

	s := c.Snapshot()
	require.Equal(t, []model.Item{{ID: 1, UserID: 1, Title: "a"}}, s.Items)
	require.NotNil(t, s.Failure)
	require.Equal(t, state.KindUpdate, s.Failure.Kind)
}

func TestDelete(t *testing.T) {
	t.Parallel()

	c, _ := loaded(t,
		model.Item{ID: 1, UserID: 1, Title: "a"},
		model.Item{ID: 2, UserID: 2, Title: "b"},
	)
	require.NoError(t, c.Dispatch(context.Background(), state.Delete(1)))
	require.Equal(t, []model.Item{{ID: 2, UserID: 2, Title: "b"}}, c.Snapshot().Items)
}

func TestDeleteAbsentIDLeavesItemsUnchanged(t *testing.T) {
	t.Parallel()

	items := []model.Item{{ID: 1, UserID: 1, Title: "a"}, {ID: 2, UserID: 2, Title: "b"}}
	s := state.Reduce(state.State{Items: items}, state.Delete(7), state.Outcome{})
	require.Equal(t, items, s.Items)
}

func TestSelectThenClear(t *testing.T) {
	t.Parallel()

	c, _ := loaded(t, model.Item{ID: 1, UserID: 1, Title: "a"})
	ctx := context.Background()

	it := &model.Item{ID: 1, UserID: 1, Title: "a"}
	require.NoError(t, c.Dispatch(ctx, state.Select(it)))
	require.Equal(t, it, c.Snapshot().Selected)

	require.NoError(t, c.Dispatch(ctx, state.Select(nil)))
	require.Nil(t, c.Snapshot().Selected)

	require.NoError(t, c.Dispatch(ctx, state.Select(nil)))
	require.Nil(t, c.Snapshot().Selected)
}

func TestInvalidDraftNeverReachesGateway(t *testing.T) {
	t.Parallel()

	c, gw := loaded(t)
	before := gw.callCount()

	err := c.Dispatch(context.Background(), state.Create(model.Draft{Title: "no owner"}))
	require.ErrorIs(t, err, model.ErrMissingOwner)
	require.Equal(t, before, gw.callCount())
	require.Nil(t, c.Snapshot().Failure)
}

func TestGatewayFailureSetsAndClearsFailure(t *testing.T) {
	t.Parallel()

	c, gw := loaded(t, model.Item{ID: 1, UserID: 1, Title: "a"})
	ctx := context.Background()
	boom := errors.New("boom")
	gw.setErr(boom)

	err := c.Dispatch(ctx, state.Delete(1))
	require.ErrorIs(t, err, boom)
	s := c.Snapshot()
	require.Equal(t, []model.Item{{ID: 1, UserID: 1, Title: "a"}}, s.Items)
	require.NotNil(t, s.Failure)
	require.Equal(t, state.KindDelete, s.Failure.Kind)
	require.ErrorIs(t, s.Failure, boom)
	require.Equal(t, state.KindNone, s.Pending)

	gw.setErr(nil)
	require.NoError(t, c.Dispatch(ctx, state.FetchAll()))
	require.Nil(t, c.Snapshot().Failure)
}

func TestSecondRequestWhilePendingIsBusy(t *testing.T) {
	t.Parallel()

	c, gw := loaded(t)
	gw.block = make(chan struct{})
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- c.Dispatch(ctx, state.Create(model.Draft{UserID: 1, Title: "first"})) }()

	require.Eventually(t, func() bool { return c.Snapshot().Pending == state.KindCreate }, time.Second, time.Millisecond)

	err := c.Dispatch(ctx, state.Create(model.Draft{UserID: 1, Title: "second"}))
	require.ErrorIs(t, err, state.ErrBusy)

	require.NoError(t, c.Dispatch(ctx, state.Select(nil)), "select is local and never busy")

	close(gw.block)
	require.NoError(t, <-done)
	s := c.Snapshot()
	require.Len(t, s.Items, 1)
	require.Equal(t, "first", s.Items[0].Title)
}

func TestSnapshotIsACopy(t *testing.T) {
	t.Parallel()

	c, _ := loaded(t, model.Item{ID: 1, UserID: 1, Title: "a"})
	s := c.Snapshot()
	s.Items[0].Title = "mutated"
	require.Equal(t, "a", c.Snapshot().Items[0].Title)
}

func TestWatchFiresOnlyOnChange(t *testing.T) {
	t.Parallel()

	c, _ := loaded(t, model.Item{ID: 1, UserID: 1, Title: "a"})
	ctx := context.Background()

	var itemsSeen [][]model.Item
	cancelItems := state.Watch(c, state.Items, func(items []model.Item) { itemsSeen = append(itemsSeen, items) })
	defer cancelItems()

	var selSeen []*model.Item
	cancelSel := state.Watch(c, state.Selected, func(it *model.Item) { selSeen = append(selSeen, it) })

	require.Len(t, itemsSeen, 1, "initial value is delivered on subscribe")
	require.Len(t, selSeen, 1)
	require.Nil(t, selSeen[0])

	require.NoError(t, c.Dispatch(ctx, state.Select(&model.Item{ID: 1, UserID: 1, Title: "a"})))
	require.Len(t, itemsSeen, 1, "selection change does not touch items")
	require.Len(t, selSeen, 2)

	cancelSel()
	require.NoError(t, c.Dispatch(ctx, state.Select(nil)))
	require.Len(t, selSeen, 2, "cancelled watcher is not notified")

	require.NoError(t, c.Dispatch(ctx, state.Delete(1)))
	require.Len(t, itemsSeen, 2)
	require.Empty(t, itemsSeen[1])
}

func TestWatchDeliversInPublishOrder(t *testing.T) {
	t.Parallel()

	it := model.Item{ID: 1, UserID: 1, Title: "a"}
	c, _ := loaded(t, it)
	ctx := context.Background()

	var (
		mu   sync.Mutex
		seen []*model.Item
	)
	entered := make(chan struct{})
	release := make(chan struct{})
	cancel := state.Watch(c, state.Selected, func(sel *model.Item) {
		mu.Lock()
		seen = append(seen, sel)
		first := len(seen) == 2
		mu.Unlock()
		if first {
			close(entered)
			<-release
		}
	})
	defer cancel()

	selectDone := make(chan error, 1)
	go func() { selectDone <- c.Dispatch(ctx, state.Select(&it)) }()
	<-entered

	clearDone := make(chan error, 1)
	go func() { clearDone <- c.Dispatch(ctx, state.Select(nil)) }()
	require.Eventually(t, func() bool { return c.Snapshot().Selected == nil }, time.Second, time.Millisecond)

	close(release)
	require.NoError(t, <-selectDone)
	require.NoError(t, <-clearDone)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 3)
	require.Nil(t, seen[0])
	require.Equal(t, &it, seen[1])
	require.Nil(t, seen[2], "the latest selection is delivered last")
}

func TestWatchFailure(t *testing.T) {
	t.Parallel()

	c, gw := loaded(t)
	var seen []*state.Failure
	cancel := state.Watch(c, state.LastFailure, func(f *state.Failure) { seen = append(seen, f) })
	defer cancel()

	gw.setErr(errors.New("down"))
	require.Error(t, c.Dispatch(context.Background(), state.FetchAll()))
	require.Len(t, seen, 2)
	require.NotNil(t, seen[1])
	require.Equal(t, state.KindFetchAll, seen[1].Kind)
}

func TestSelectorsMap(t *testing.T) {
	t.Parallel()

	sel := &model.Item{ID: 3}
	s := state.State{Items: []model.Item{{ID: 3}}, Selected: sel, Pending: state.KindDelete}
	require.Equal(t, []model.Item{{ID: 3}}, state.Selectors["items"](s))
	require.Equal(t, sel, state.Selectors["selected"](s))
	require.Equal(t, state.KindDelete, state.Selectors["pending"](s))
	require.Nil(t, state.Selectors["failure"](s).(*state.Failure))
}

// Any sequence of create/update/delete leaves exactly one entry per
// surviving id, equal to the last gateway response for it.
func TestSequencesKeepOneEntryPerID(t *testing.T) {
	t.Parallel()

	c, gw := loaded(t)
	ctx := context.Background()

	for i := 1; i <= 6; i++ {
		require.NoError(t, c.Dispatch(ctx, state.Create(model.Draft{UserID: i, Title: fmt.Sprintf("t%d", i)})))
	}
	require.NoError(t, c.Dispatch(ctx, state.Update(model.Draft{UserID: 9, Title: "u2"}, 2)))
	require.NoError(t, c.Dispatch(ctx, state.Delete(3)))
	require.NoError(t, c.Dispatch(ctx, state.Update(model.Draft{UserID: 8, Title: "u2b"}, 2)))
	require.NoError(t, c.Dispatch(ctx, state.Delete(6)))
	require.NoError(t, c.Dispatch(ctx, state.Delete(6)))

	got := c.Snapshot().Items
	seen := map[int]bool{}
	for _, it := range got {
		require.False(t, seen[it.ID], "duplicate id %d", it.ID)
		seen[it.ID] = true
	}
	want := []model.Item{
		{ID: 1, UserID: 1, Title: "t1"},
		{ID: 2, UserID: 8, Title: "u2b"},
		{ID: 4, UserID: 4, Title: "t4"},
		{ID: 5, UserID: 5, Title: "t5"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("items mismatch (-want +got):\n%s", diff)
	}

	gwItems, err := gw.FetchAll(ctx)
	require.NoError(t, err)
	require.Equal(t, want, gwItems)
}

func TestUnknownActionKind(t *testing.T) {
	t.Parallel()

	c, _ := newContainer()
	require.Error(t, c.Dispatch(context.Background(), state.Action{Kind: state.Kind(42)}))
	require.Equal(t, "kind(42)", state.Kind(42).String())
}
