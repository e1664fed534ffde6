package pagelog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("sesrec_%d", n)
	}
}

func openMem(t *testing.T, pageSize int) (*Log, *memStore) {
	t.Helper()
	s := newMemStore()
	l, err := Open(context.Background(), s, Options{Session: "s1", PageSize: pageSize, SegmentStartMarker: DefaultSegmentStartMarker, NewID: seqIDs()})
	require.NoError(t, err)
	return l, s
}

func fill(n int, b byte) []byte { return bytes.Repeat([]byte{b}, n) }

func TestAppendWithinAndAcrossPage(t *testing.T) {
	ctx := context.Background()
	l, s := openMem(t, 10)

	res, err := l.Append(ctx, fill(7, 'a'))
	require.NoError(t, err)
	require.True(t, res.Created)
	require.Equal(t, Boundary{Page: 0, Offset: 7}, res.Boundary)

	res, err = l.Append(ctx, fill(5, 'b'))
	require.NoError(t, err)
	require.False(t, res.Created)
	require.Equal(t, Boundary{Page: 1, Offset: 2}, res.Boundary)
	require.Equal(t, 1, res.Sealed)

	c, ok, err := l.Cursor(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(1), c.OpenPage)
	require.Equal(t, 2, c.Fill)
	require.Equal(t, []Boundary{{0, 7}, {1, 2}}, c.Boundaries)
	require.Equal(t, []byte("aaaaaaabbb"), s.pages[0])
	require.Equal(t, []byte("bb"), s.pages[1])

	batches, err := l.Batches(ctx)
	require.NoError(t, err)
	require.Equal(t, [][]byte{fill(7, 'a'), fill(5, 'b')}, batches)
}

func TestAppendExactFillSealsPage(t *testing.T) {
	ctx := context.Background()
	l, s := openMem(t, 10)

	res, err := l.Append(ctx, fill(10, 'a'))
	require.NoError(t, err)
	require.Equal(t, Boundary{Page: 0, Offset: 10}, res.Boundary)
	require.Equal(t, 1, res.Sealed)

	c, _, err := l.Cursor(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(1), c.OpenPage)
	require.Equal(t, 0, c.Fill)
	_, ok := s.pages[1]
	require.False(t, ok, "open page with no fill is never written")

	batches, err := l.Batches(ctx)
	require.NoError(t, err)
	require.Equal(t, [][]byte{fill(10, 'a')}, batches)

	_, err = l.Append(ctx, fill(3, 'b'))
	require.NoError(t, err)
	batches, err = l.Batches(ctx)
	require.NoError(t, err)
	require.Equal(t, [][]byte{fill(10, 'a'), fill(3, 'b')}, batches)
}

func TestAppendSpansManyPages(t *testing.T) {
	ctx := context.Background()
	l, s := openMem(t, 10)

	_, err := l.Append(ctx, fill(4, 'a'))
	require.NoError(t, err)
	big := make([]byte, 37)
	for i := range big {
		big[i] = byte('A' + i%26)
	}
	res, err := l.Append(ctx, big)
	require.NoError(t, err)
	require.Equal(t, Boundary{Page: 4, Offset: 1}, res.Boundary)
	require.Equal(t, 4, res.Sealed)
	for i := uint64(0); i < 4; i++ {
		require.Len(t, s.pages[i], 10)
	}

	batches, err := l.Batches(ctx)
	require.NoError(t, err)
	require.Equal(t, [][]byte{fill(4, 'a'), big}, batches)
}

func TestAppendPackingRandomSizes(t *testing.T) {
	ctx := context.Background()
	for _, pageSize := range []int{1, 7, 64, 1024} {
		t.Run(fmt.Sprint(pageSize), func(t *testing.T) {
			l, s := openMem(t, pageSize)
			rng := rand.New(rand.NewSource(int64(pageSize)))
			var want [][]byte
			total := 0
			for i := 0; i < 60; i++ {
				b := make([]byte, 1+rng.Intn(3*pageSize+5))
				rng.Read(b)
				_, err := l.Append(ctx, b)
				require.NoError(t, err)
				want = append(want, b)
				total += len(b)
			}
			got, err := l.Batches(ctx)
			require.NoError(t, err)
			require.Equal(t, want, got)

			c, _, err := l.Cursor(ctx)
			require.NoError(t, err)
			require.Equal(t, uint64(total), c.Size())
			require.Equal(t, uint64(total), c.Committed())
			for i := uint64(0); i < c.OpenPage; i++ {
				require.Len(t, s.pages[i], pageSize, "page %d", i)
			}
		})
	}
}

func TestReadIsIdempotent(t *testing.T) {
	ctx := context.Background()
	l, s := openMem(t, 10)
	for i := 0; i < 5; i++ {
		_, err := l.Append(ctx, fill(6, byte('a'+i)))
		require.NoError(t, err)
	}
	puts := s.puts
	first, err := l.Batches(ctx)
	require.NoError(t, err)
	second, err := l.Batches(ctx)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, puts, s.puts)
}

func TestEmptyLog(t *testing.T) {
	ctx := context.Background()
	l, s := openMem(t, 10)

	batches, err := l.Batches(ctx)
	require.NoError(t, err)
	require.Empty(t, batches)
	segs, err := l.ReadAll(ctx)
	require.NoError(t, err)
	require.Empty(t, segs)

	res, err := l.Append(ctx, nil)
	require.NoError(t, err)
	require.True(t, res.Created)
	require.False(t, res.Recorded)
	c, ok, err := l.Cursor(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Empty(t, c.Boundaries)
	require.Zero(t, s.puts)

	res, err = l.Append(ctx, []byte{})
	require.NoError(t, err)
	require.False(t, res.Created)
	require.Equal(t, c.LogID, res.LogID)

	batches, err = l.Batches(ctx)
	require.NoError(t, err)
	require.Empty(t, batches)
}

func TestMissingSealedPageIsCorrupt(t *testing.T) {
	ctx := context.Background()
	l, s := openMem(t, 10)
	_, err := l.Append(ctx, fill(25, 'x'))
	require.NoError(t, err)

	delete(s.pages, 1)
	_, err = l.Batches(ctx)
	require.ErrorIs(t, err, ErrCorrupt)
	require.ErrorIs(t, err, ErrPageNotFound)

	_, err = l.ReadAll(ctx)
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestShortSealedPageIsCorrupt(t *testing.T) {
	ctx := context.Background()
	l, s := openMem(t, 10)
	_, err := l.Append(ctx, fill(15, 'x'))
	require.NoError(t, err)
	s.pages[0] = s.pages[0][:9]
	_, err = l.Batches(ctx)
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestMissingOpenPageIsCorrupt(t *testing.T) {
	ctx := context.Background()
	l, s := openMem(t, 10)
	_, err := l.Append(ctx, fill(3, 'x'))
	require.NoError(t, err)
	delete(s.pages, 0)

	_, err = l.Batches(ctx)
	require.ErrorIs(t, err, ErrCorrupt)
	_, err = l.Append(ctx, fill(3, 'y'))
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestRegistrationFailureAbortsCreation(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	var registered []string
	fail := true
	reg := RegistrarFunc(func(_ context.Context, logID, session string) error {
		require.Equal(t, "s1", session)
		if fail {
			return errors.New("catalog down")
		}
		registered = append(registered, logID)
		return nil
	})
	l, err := Open(ctx, s, Options{Session: "s1", PageSize: 10, NewID: seqIDs(), Registrar: reg})
	require.NoError(t, err)

	_, err = l.Append(ctx, fill(14, 'a'))
	require.ErrorIs(t, err, ErrRegister)
	_, ok, err := l.Cursor(ctx)
	require.NoError(t, err)
	require.False(t, ok)
	batches, err := l.Batches(ctx)
	require.NoError(t, err)
	require.Empty(t, batches)

	fail = false
	res, err := l.Append(ctx, fill(3, 'b'))
	require.NoError(t, err)
	require.True(t, res.Created)
	require.Equal(t, "sesrec_2", res.LogID)
	require.Equal(t, []string{"sesrec_2"}, registered)

	_, err = l.Append(ctx, fill(3, 'c'))
	require.NoError(t, err)
	require.Len(t, registered, 1)

	batches, err = l.Batches(ctx)
	require.NoError(t, err)
	require.Equal(t, [][]byte{fill(3, 'b'), fill(3, 'c')}, batches)
}

func TestFailedCursorSaveLeavesIgnoredTail(t *testing.T) {
	ctx := context.Background()
	l, s := openMem(t, 10)
	_, err := l.Append(ctx, fill(4, 'a'))
	require.NoError(t, err)

	s.saveErr = errors.New("disk full")
	_, err = l.Append(ctx, fill(3, 'z'))
	require.Error(t, err)
	require.Equal(t, []byte("aaaazzz"), s.pages[0])

	s.saveErr = nil
	batches, err := l.Batches(ctx)
	require.NoError(t, err)
	require.Equal(t, [][]byte{fill(4, 'a')}, batches)

	_, err = l.Append(ctx, fill(2, 'b'))
	require.NoError(t, err)
	require.Equal(t, []byte("aaaabb"), s.pages[0])
	batches, err = l.Batches(ctx)
	require.NoError(t, err)
	require.Equal(t, [][]byte{fill(4, 'a'), fill(2, 'b')}, batches)
}

func TestFailedPageWriteCommitsNothing(t *testing.T) {
	ctx := context.Background()
	l, s := openMem(t, 10)
	_, err := l.Append(ctx, fill(8, 'a'))
	require.NoError(t, err)

	s.putErr = func(index uint64) error {
		if index == 1 {
			return errors.New("io error")
		}
		return nil
	}
	_, err = l.Append(ctx, fill(5, 'z'))
	require.Error(t, err)

	s.putErr = nil
	c, _, err := l.Cursor(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(0), c.OpenPage)
	require.Equal(t, 8, c.Fill)

	_, err = l.Append(ctx, fill(5, 'b'))
	require.NoError(t, err)
	batches, err := l.Batches(ctx)
	require.NoError(t, err)
	require.Equal(t, [][]byte{fill(8, 'a'), fill(5, 'b')}, batches)
}

func TestExistingLogKeepsPageSize(t *testing.T) {
	ctx := context.Background()
	l, s := openMem(t, 10)
	_, err := l.Append(ctx, fill(12, 'a'))
	require.NoError(t, err)

	l2, err := Open(ctx, s, Options{Session: "s1", PageSize: 4, NewID: seqIDs()})
	require.NoError(t, err)
	_, err = l2.Append(ctx, fill(3, 'b'))
	require.NoError(t, err)
	c, _, err := l2.Cursor(ctx)
	require.NoError(t, err)
	require.Equal(t, 10, c.PageSize)
	require.Equal(t, 5, c.Fill)

	batches, err := l2.Batches(ctx)
	require.NoError(t, err)
	require.Equal(t, [][]byte{fill(12, 'a'), fill(3, 'b')}, batches)
}

func TestOpenRequiresIDGenerator(t *testing.T) {
	_, err := Open(context.Background(), newMemStore(), Options{})
	require.Error(t, err)
	_, err = Open(context.Background(), nil, Options{NewID: seqIDs()})
	require.Error(t, err)
	_, err = Open(context.Background(), newMemStore(), Options{NewID: seqIDs(), PageSize: -1})
	require.Error(t, err)
}

func TestRetryAfterCursorSaveFailureReusesRegisteredID(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	var registered []string
	reg := RegistrarFunc(func(_ context.Context, logID, _ string) error {
		registered = append(registered, logID)
		return nil
	})
	l, err := Open(ctx, s, Options{Session: "s1", PageSize: 10, NewID: seqIDs(), Registrar: reg})
	require.NoError(t, err)

	s.saveErr = errors.New("disk full")
	_, err = l.Append(ctx, fill(4, 'a'))
	require.Error(t, err)
	require.Equal(t, []string{"sesrec_1"}, registered)

	s.saveErr = nil
	res, err := l.Append(ctx, fill(2, 'b'))
	require.NoError(t, err)
	require.True(t, res.Created)
	require.Equal(t, "sesrec_1", res.LogID)
	require.Equal(t, []string{"sesrec_1"}, registered)

	c, ok, err := l.Cursor(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "sesrec_1", c.LogID)
	batches, err := l.Batches(ctx)
	require.NoError(t, err)
	require.Equal(t, [][]byte{fill(2, 'b')}, batches)
}

func TestEmptyAppendReportsCommittedPosition(t *testing.T) {
	ctx := context.Background()
	l, _ := openMem(t, 4)
	_, err := l.Append(ctx, fill(6, 'a'))
	require.NoError(t, err)

	res, err := l.Append(ctx, nil)
	require.NoError(t, err)
	require.False(t, res.Recorded)
	require.Equal(t, Boundary{Page: 1, Offset: 2}, res.Boundary)
	require.Equal(t, uint64(6), res.Size)
}

func TestCursorBeyondStoredPagesIsCorrupt(t *testing.T) {
	ctx := context.Background()
	l, s := openMem(t, 4)
	_, err := l.Append(ctx, fill(3, 'a'))
	require.NoError(t, err)

	c, _, err := l.Cursor(ctx)
	require.NoError(t, err)
	c.OpenPage = 1 << 40
	require.NoError(t, c.Validate())
	s.cursor = &c

	_, err = l.Batches(ctx)
	require.ErrorIs(t, err, ErrCorrupt)
}
