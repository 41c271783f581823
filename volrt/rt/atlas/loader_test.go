package atlas

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedSource blocks until its gate is closed.
type gatedSource struct {
	name string
	gate chan struct{}
	img  image.Image
	err  error
}

func (s gatedSource) Name() string { return s.name }

func (s gatedSource) Load(ctx context.Context) (image.Image, error) {
	select {
	case <-s.gate:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return s.img, s.err
}

func solid(w, h int, y uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = y
	}
	return img
}

func waitResults(t *testing.T, l *Loader, n int) []Result {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var out []Result
	for len(out) < n {
		require.NoError(t, l.Wait(ctx))
		out = append(out, l.Poll()...)
	}
	return out
}

func TestLoaderKeepsSourceOrder(t *testing.T) {
	l := NewLoader()
	a, b := solid(4, 4, 10), solid(8, 8, 20)
	gen := l.Start(context.Background(), []Source{
		ImageSource{Label: "a", Image: a},
		ImageSource{Label: "b", Image: b},
	})
	assert.Equal(t, uint64(1), gen)

	res := waitResults(t, l, 1)
	require.Len(t, res, 1)
	require.NoError(t, res[0].Err)
	assert.Equal(t, []string{"a", "b"}, res[0].Names)
	assert.Same(t, a, res[0].Images[0])
	assert.Same(t, b, res[0].Images[1])
	assert.Equal(t, 0, l.Pending())
}

func TestLoaderFailureIsAggregate(t *testing.T) {
	l := NewLoader()
	boom := errors.New("boom")
	open := make(chan struct{})
	close(open)
	l.Start(context.Background(), []Source{
		ImageSource{Label: "ok", Image: solid(2, 2, 1)},
		gatedSource{name: "bad", gate: open, err: boom},
	})

	res := waitResults(t, l, 1)
	require.Error(t, res[0].Err)
	assert.ErrorIs(t, res[0].Err, ErrLoadFailed)
	assert.ErrorIs(t, res[0].Err, boom)
	assert.Contains(t, res[0].Err.Error(), "bad")
	assert.Nil(t, res[0].Images)
}

func TestLoaderGenerationsInCompletionOrder(t *testing.T) {
	for _, tc := range []struct {
		name      string
		firstDone int
		wantOrder []uint64
	}{
		{name: "older finishes first", firstDone: 0, wantOrder: []uint64{1, 2}},
		{name: "newer finishes first", firstDone: 1, wantOrder: []uint64{2, 1}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			l := NewLoader()
			gates := []chan struct{}{make(chan struct{}), make(chan struct{})}
			genA := l.Start(context.Background(), []Source{gatedSource{name: "A", gate: gates[0], img: solid(1, 1, 1)}})
			genB := l.Start(context.Background(), []Source{gatedSource{name: "B", gate: gates[1], img: solid(1, 1, 2)}})
			assert.False(t, l.IsCurrent(genA))
			assert.True(t, l.IsCurrent(genB))
			assert.Equal(t, 2, l.Pending())

			close(gates[tc.firstDone])
			first := waitResults(t, l, 1)
			close(gates[1-tc.firstDone])
			second := waitResults(t, l, 1)

			got := []uint64{first[0].Generation, second[0].Generation}
			assert.Equal(t, tc.wantOrder, got)
			assert.Equal(t, genB, l.Latest())
		})
	}
}

func TestLoaderUnsettledUntilPolled(t *testing.T) {
	l := NewLoader()
	gate := make(chan struct{})
	gen := l.Start(context.Background(), []Source{gatedSource{name: "A", gate: gate, img: solid(1, 1, 1)}})
	assert.True(t, l.Unsettled(gen))

	close(gate)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, l.Wait(ctx))
	assert.True(t, l.Unsettled(gen), "finished but not polled")

	require.Len(t, l.Poll(), 1)
	assert.False(t, l.Unsettled(gen))
	assert.False(t, l.Unsettled(gen+1))
}

func TestLoaderCloseCancelsPending(t *testing.T) {
	l := NewLoader()
	l.Start(context.Background(), []Source{gatedSource{name: "hung", gate: make(chan struct{})}})
	l.Close()

	res := waitResults(t, l, 1)
	assert.ErrorIs(t, res[0].Err, context.Canceled)
}

func TestWaitHonorsContext(t *testing.T) {
	l := NewLoader()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, l.Wait(ctx), context.Canceled)
}

func TestFileSourceDecodesPNG(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "slice.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	src := image.NewRGBA(image.Rect(0, 0, 3, 2))
	src.SetRGBA(1, 1, color.RGBA{R: 255, A: 255})
	require.NoError(t, png.Encode(f, src))
	require.NoError(t, f.Close())

	img, err := FileSource{Path: path}.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())

	_, err = FileSource{Path: filepath.Join(dir, "missing.png")}.Load(context.Background())
	assert.Error(t, err)
}

func TestFilesBuildsSources(t *testing.T) {
	srcs := Files("a.png", "b.png")
	require.Len(t, srcs, 2)
	assert.Equal(t, "b.png", srcs[1].Name())
}
