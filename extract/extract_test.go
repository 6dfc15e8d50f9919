package extract

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ristryder/pgsplay/bluraysup"
	"github.com/ristryder/pgsplay/internal/pgstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o755))

	return path
}

// testMovie has a text track and two PGS tracks, subtitle stream indexes 0, 1 and 2.
func testMovie(t *testing.T) string {
	t.Helper()

	movie := pgstest.Mkv{
		TimecodeScale: 1000000,
		Tracks: []pgstest.MkvTrack{
			{Number: 1, Type: 1, CodecId: "V_MPEG4/ISO/AVC", Width: 1920, Height: 1080},
			{Number: 2, Type: 17, CodecId: "S_TEXT/UTF8"},
			{Number: 3, Type: 17, CodecId: "S_HDMV/PGS", Language: "eng"},
			{Number: 4, Type: 17, CodecId: "S_HDMV/PGS", Language: "ger", Zlib: true},
		},
		Clusters: []pgstest.MkvCluster{
			{Timecode: 1000, Blocks: []pgstest.MkvBlock{
				{Track: 3, Data: pgstest.BlockData(pgstest.DisplaySet(0, 10, 10, 50, 20))},
				{Track: 4, Data: pgstest.BlockData(pgstest.DisplaySet(0, 100, 900, 8, 8))},
			}},
			{Timecode: 4000, Blocks: []pgstest.MkvBlock{
				{Track: 3, Data: pgstest.BlockData(pgstest.ClearSet())},
			}},
		},
	}

	return writeTemp(t, "movie.mkv", movie.Bytes())
}

func TestMatroskaExtractor_Extract(t *testing.T) {
	path := testMovie(t)
	extractor := NewMatroskaExtractor(quietLogger())

	tracks, tracksErr := extractor.SubtitleTracks(path)
	require.NoError(t, tracksErr)
	require.Len(t, tracks, 3)

	data, extractErr := extractor.Extract(t.Context(), path, 1)
	require.NoError(t, extractErr)

	frames := bluraysup.Parse(data)
	require.Len(t, frames, 2)
	assert.Equal(t, time.Second, frames[0].StartTime)
	assert.Equal(t, 4*time.Second, frames[1].StartTime)

	zlibData, zlibErr := extractor.Extract(t.Context(), path, 2)
	require.NoError(t, zlibErr)
	zlibFrames := bluraysup.Parse(zlibData)
	require.Len(t, zlibFrames, 1)
	assert.Equal(t, 900, zlibFrames[0].Images[0].Y)
}

func TestMatroskaExtractor_Errors(t *testing.T) {
	path := testMovie(t)
	extractor := NewMatroskaExtractor(quietLogger())

	_, textErr := extractor.Extract(t.Context(), path, 0)
	assert.True(t, errors.Is(textErr, ErrNotPgs))

	_, missingErr := extractor.Extract(t.Context(), path, 3)
	assert.True(t, errors.Is(missingErr, ErrStreamNotFound))

	_, negativeErr := extractor.Extract(t.Context(), path, -1)
	assert.True(t, errors.Is(negativeErr, ErrStreamNotFound))

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, cancelErr := extractor.Extract(ctx, path, 1)
	assert.ErrorIs(t, cancelErr, context.Canceled)

	_, notMatroskaErr := extractor.Extract(t.Context(), writeTemp(t, "notes.txt", []byte("hello")), 0)
	assert.Error(t, notMatroskaErr)
}

func TestLoad_SupFile(t *testing.T) {
	var stream pgstest.Stream
	stream.Add(90000, pgstest.DisplaySet(0, 0, 0, 4, 2))

	data, loadErr := Load(t.Context(), nil, writeTemp(t, "track.SUP", stream.Bytes()), 0)
	require.NoError(t, loadErr)
	assert.Equal(t, stream.Bytes(), data)

	_, badErr := Load(t.Context(), nil, writeTemp(t, "bad.sup", []byte("text")), 0)
	assert.Error(t, badErr)

	empty, emptyErr := Load(t.Context(), nil, writeTemp(t, "empty.sup", nil), 0)
	require.NoError(t, emptyErr)
	assert.Empty(t, empty)
}

func TestFFmpegArgs(t *testing.T) {
	assert.Equal(t,
		[]string{"-v", "error", "-i", "/media/movie.mkv", "-map", "0:s:2", "-c:s", "copy", "-f", "sup", "pipe:1"},
		ffmpegArgs("/media/movie.mkv", 2))
}

func fakeFFmpeg(t *testing.T, script string) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in for ffmpeg needs a POSIX shell")
	}

	return writeTemp(t, "ffmpeg", []byte("#!/bin/sh\n"+script+"\n"))
}

func TestFFmpegExtractor_Extract(t *testing.T) {
	binary := fakeFFmpeg(t, `[ "$6" = "0:s:1" ] || exit 3
printf 'PG-stream'`)
	extractor := NewFFmpegExtractor(binary, quietLogger())

	data, extractErr := extractor.Extract(t.Context(), "/media/movie.mkv", 1)
	require.NoError(t, extractErr)
	assert.Equal(t, []byte("PG-stream"), data)

	_, wrongErr := extractor.Extract(t.Context(), "/media/movie.mkv", 0)
	assert.Error(t, wrongErr)
}

func TestFFmpegExtractor_Failures(t *testing.T) {
	missing := NewFFmpegExtractor(fakeFFmpeg(t, `echo "Stream map '0:s:4' matches no streams." >&2
exit 1`), quietLogger())
	_, missingErr := missing.Extract(t.Context(), "/media/movie.mkv", 4)
	assert.True(t, errors.Is(missingErr, ErrStreamNotFound))
	assert.Contains(t, missingErr.Error(), "matches no streams")

	broken := NewFFmpegExtractor(fakeFFmpeg(t, `echo "Invalid data found" >&2
exit 1`), quietLogger())
	_, brokenErr := broken.Extract(t.Context(), "/media/movie.mkv", 0)
	require.Error(t, brokenErr)
	assert.False(t, errors.Is(brokenErr, ErrStreamNotFound))
	assert.Contains(t, brokenErr.Error(), "Invalid data found")

	silent := NewFFmpegExtractor(fakeFFmpeg(t, "exit 0"), quietLogger())
	_, silentErr := silent.Extract(t.Context(), "/media/movie.mkv", 0)
	assert.True(t, errors.Is(silentErr, ErrStreamNotFound))

	_, notFoundErr := NewFFmpegExtractor(filepath.Join(t.TempDir(), "nope"), quietLogger()).Extract(t.Context(), "/media/movie.mkv", 0)
	assert.Error(t, notFoundErr)
}

func TestFindFFmpeg(t *testing.T) {
	binary := fakeFFmpeg(t, "exit 0")

	t.Setenv(FFmpegBinaryEnv, binary)
	found, findErr := FindFFmpeg("")
	require.NoError(t, findErr)
	assert.Equal(t, binary, found)

	t.Setenv(FFmpegBinaryEnv, "")
	t.Setenv("PATH", t.TempDir())
	found, findErr = FindFFmpeg(binary)
	require.NoError(t, findErr)
	assert.Equal(t, binary, found)

	_, missingErr := FindFFmpeg("")
	assert.Error(t, missingErr)
}

type countingExtractor struct {
	calls atomic.Int32
	delay time.Duration
	fail  bool
}

func (c *countingExtractor) Extract(_ context.Context, path string, streamIndex int) ([]byte, error) {
	c.calls.Add(1)
	time.Sleep(c.delay)
	if c.fail {
		return nil, errors.New("extraction failed")
	}

	return []byte(path + string(rune('0'+streamIndex))), nil
}

func TestCache(t *testing.T) {
	inner := &countingExtractor{}
	cache := NewCache(inner)

	first, err := cache.Extract(t.Context(), "a.mkv", 0)
	require.NoError(t, err)
	second, err := cache.Extract(t.Context(), "a.mkv", 0)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), inner.calls.Load())

	other, err := cache.Extract(t.Context(), "a.mkv", 1)
	require.NoError(t, err)
	assert.Equal(t, []byte("a.mkv1"), other)
	_, err = cache.Extract(t.Context(), "b.mkv", 0)
	require.NoError(t, err)
	assert.Equal(t, 3, cache.Len())

	cache.Invalidate("a.mkv")
	assert.Equal(t, 1, cache.Len())
	_, err = cache.Extract(t.Context(), "a.mkv", 0)
	require.NoError(t, err)
	assert.Equal(t, int32(4), inner.calls.Load())
}

func TestCache_SharesConcurrentExtractions(t *testing.T) {
	inner := &countingExtractor{delay: 50 * time.Millisecond}
	cache := NewCache(inner)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, err := cache.Extract(t.Context(), "a.mkv", 0)
			assert.NoError(t, err)
			assert.Equal(t, []byte("a.mkv0"), data)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, inner.calls.Load(), int32(2))
}

// gatedExtractor blocks until release is closed or its context ends.
type gatedExtractor struct {
	calls   atomic.Int32
	release chan struct{}
	started chan struct{}
}

func (g *gatedExtractor) Extract(ctx context.Context, path string, _ int) ([]byte, error) {
	if g.calls.Add(1) == 1 {
		close(g.started)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-g.release:
		return []byte(path), nil
	}
}

func TestCache_CancelledCallerDoesNotFailOthers(t *testing.T) {
	inner := &gatedExtractor{release: make(chan struct{}), started: make(chan struct{})}
	cache := NewCache(inner)

	firstCtx, cancelFirst := context.WithCancel(t.Context())
	defer cancelFirst()

	firstErr := make(chan error, 1)
	go func() {
		_, err := cache.Extract(firstCtx, "a.mkv", 0)
		firstErr <- err
	}()
	<-inner.started

	type outcome struct {
		data []byte
		err  error
	}
	second := make(chan outcome, 1)
	go func() {
		data, err := cache.Extract(context.Background(), "a.mkv", 0)
		second <- outcome{data: data, err: err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller kept waiting")
	}

	close(inner.release)
	select {
	case result := <-second:
		require.NoError(t, result.err)
		assert.Equal(t, []byte("a.mkv"), result.data)
	case <-time.After(time.Second):
		t.Fatal("second caller never returned")
	}

	assert.Equal(t, 1, cache.Len())
}

func TestCache_DoesNotCacheFailures(t *testing.T) {
	inner := &countingExtractor{fail: true}
	cache := NewCache(inner)

	_, err := cache.Extract(t.Context(), "a.mkv", 0)
	assert.Error(t, err)
	_, err = cache.Extract(t.Context(), "a.mkv", 0)
	assert.Error(t, err)

	assert.Equal(t, int32(2), inner.calls.Load())
	assert.Zero(t, cache.Len())
}

func TestDecodeTracks(t *testing.T) {
	path := testMovie(t)
	parser := bluraysup.NewParser(bluraysup.Options{Logger: quietLogger()})

	tracks, err := DecodeTracks(t.Context(), NewMatroskaExtractor(quietLogger()), parser, path, []int{2, 1}, 10*time.Second)
	require.NoError(t, err)
	require.Len(t, tracks, 2)

	assert.Equal(t, 2, tracks[0].StreamIndex)
	require.Len(t, tracks[0].Frames, 1)
	assert.Equal(t, 10*time.Second, tracks[0].Frames[0].EndTime)

	assert.Equal(t, 1, tracks[1].StreamIndex)
	require.Len(t, tracks[1].Frames, 2)
	assert.Equal(t, 4*time.Second, tracks[1].Frames[0].EndTime)
	assert.Empty(t, tracks[1].Issues)
}

func TestDecodeTracks_Failure(t *testing.T) {
	path := testMovie(t)
	parser := bluraysup.NewParser(bluraysup.Options{Logger: quietLogger()})

	_, err := DecodeTracks(t.Context(), NewMatroskaExtractor(quietLogger()), parser, path, []int{1, 0}, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotPgs))
}
