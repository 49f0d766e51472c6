package history

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func record(i int) Record {
	return Record{
		Text:   fmt.Sprintf("user: message %d", i),
		Origin: "10.0.0.1",
		Time:   fmt.Sprintf("10:00:%02d", i%60),
	}
}

func TestNew_DefaultsCapacity(t *testing.T) {
	require.Equal(t, DefaultCapacity, New(0).Capacity())
	require.Equal(t, DefaultCapacity, New(-3).Capacity())
	require.Equal(t, 5, New(5).Capacity())
}

func TestStore_LenIsBoundedByCapacity(t *testing.T) {
	for _, n := range []int{0, 1, 19, 20, 21, 40, 100} {
		t.Run(fmt.Sprintf("%d appends", n), func(t *testing.T) {
			s := New(DefaultCapacity)
			for i := 0; i < n; i++ {
				s.Append(record(i))
			}
			require.Equal(t, min(n, DefaultCapacity), s.Len())
			require.Len(t, s.Snapshot(), min(n, DefaultCapacity))
		})
	}
}

func TestStore_EvictsOldestFirst(t *testing.T) {
	s := New(DefaultCapacity)
	all := make([]Record, 0, 21)
	for i := 1; i <= 21; i++ {
		r := record(i)
		all = append(all, r)
		s.Append(r)
	}

	require.Equal(t, all[1:], s.Snapshot())
}

func TestStore_TwentyFiveAppendsKeepsSixThroughTwentyFive(t *testing.T) {
	s := New(DefaultCapacity)
	all := make([]Record, 0, 25)
	for i := 1; i <= 25; i++ {
		r := record(i)
		all = append(all, r)
		s.Append(r)
	}

	got := s.Snapshot()
	require.Len(t, got, 20)
	require.Equal(t, all[5:], got)
	require.Equal(t, record(6), got[0])
	require.Equal(t, record(25), got[19])
}

func TestStore_SnapshotPreservesOrder(t *testing.T) {
	s := New(DefaultCapacity)
	alice := Record{Text: "Alice: hi", Origin: "1.2.3.4", Time: "10:00:00"}
	bob := Record{Text: "Bob: hey", Origin: "5.6.7.8", Time: "10:00:01"}

	s.Append(alice)
	s.Append(bob)

	require.Equal(t, []Record{alice, bob}, s.Snapshot())
	require.Equal(t, 2, s.Len())
}

func TestStore_ClearEmptiesStore(t *testing.T) {
	s := New(DefaultCapacity)
	for i := 0; i < 30; i++ {
		s.Append(record(i))
	}

	s.Clear()

	snapshot := s.Snapshot()
	require.NotNil(t, snapshot)
	require.Empty(t, snapshot)
	require.Zero(t, s.Len())

	// Clearing again is a no-op.
	s.Clear()
	require.Empty(t, s.Snapshot())
}

func TestStore_SnapshotDoesNotAlias(t *testing.T) {
	s := New(3)
	s.Append(record(1))
	snapshot := s.Snapshot()
	snapshot[0].Text = "mutated"

	require.Equal(t, record(1), s.Snapshot()[0])

	// Appends after a snapshot leave the earlier snapshot untouched.
	s.Append(record(2))
	s.Append(record(3))
	s.Append(record(4))
	require.Equal(t, "mutated", snapshot[0].Text)
	require.Len(t, snapshot, 1)
}

func TestStore_ConcurrentUse(t *testing.T) {
	s := New(DefaultCapacity)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				s.Append(record(w*100 + i))
				_ = s.Snapshot()
				if i%25 == 0 {
					s.Clear()
				}
			}
		}(w)
	}
	wg.Wait()

	require.LessOrEqual(t, s.Len(), DefaultCapacity)
}
