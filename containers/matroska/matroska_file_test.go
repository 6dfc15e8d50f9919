package matroska

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ristryder/pgsplay/bluraysup"
	"github.com/ristryder/pgsplay/internal/pgstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "movie.mkv")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	return path
}

func subtitleBlocks(track int) []pgstest.MkvCluster {
	return []pgstest.MkvCluster{
		{Timecode: 1000, Blocks: []pgstest.MkvBlock{
			{Track: 1, Data: []byte{0, 0, 0, 1}},
			{Track: track, Data: pgstest.BlockData(pgstest.DisplaySet(0, 10, 10, 50, 20))},
		}},
		{Timecode: 4000, Blocks: []pgstest.MkvBlock{
			{Track: track, Data: pgstest.BlockData(pgstest.ClearSet()), Duration: 500},
		}},
	}
}

func testMovie(subtitleTrack pgstest.MkvTrack) pgstest.Mkv {
	return pgstest.Mkv{
		Duration:      5000,
		TimecodeScale: 1000000,
		Tracks: []pgstest.MkvTrack{
			{Number: 1, Type: 1, CodecId: "V_MPEG4/ISO/AVC", Width: 1920, Height: 1080},
			subtitleTrack,
			{Number: 4, Type: 17, CodecId: "S_TEXT/UTF8", Language: "fre"},
		},
		Clusters: subtitleBlocks(subtitleTrack.Number),
	}
}

func openMovie(t *testing.T, movie pgstest.Mkv) *MatroskaFile {
	t.Helper()

	file, openErr := NewMatroskaFile(writeFile(t, movie.Bytes()))
	require.NoError(t, openErr)
	t.Cleanup(func() { file.Close() })

	return file
}

func TestMatroskaFile_Tracks(t *testing.T) {
	file := openMovie(t, testMovie(pgstest.MkvTrack{Number: 2, Type: 17, CodecId: CodecIdPgs, Language: "ger", Name: "Forced", Forced: true}))
	assert.True(t, file.IsValid)

	tracks, tracksErr := file.Tracks(false)
	require.NoError(t, tracksErr)
	require.Len(t, tracks, 3)

	assert.True(t, tracks[0].IsVideo)
	assert.Equal(t, 1920, file.PixelWidth)
	assert.Equal(t, 1080, file.PixelHeight)
	assert.Equal(t, "V_MPEG4/ISO/AVC", file.VideoCodecId)
	assert.Equal(t, 5*time.Second, file.Duration)

	pgs := tracks[1]
	assert.True(t, pgs.IsSubtitle)
	assert.True(t, pgs.IsPgs())
	assert.True(t, pgs.IsForced)
	assert.True(t, pgs.IsDefault)
	assert.Equal(t, "ger", pgs.Language)
	assert.Equal(t, "Forced", pgs.Name)
	assert.Equal(t, uint64(2000), pgs.Uid)
	assert.False(t, pgs.HasContentEncoding)

	subtitleTracks, subtitleErr := file.Tracks(true)
	require.NoError(t, subtitleErr)
	assert.Len(t, subtitleTracks, 2)

	pgsTracks, pgsErr := file.PgsTracks()
	require.NoError(t, pgsErr)
	require.Len(t, pgsTracks, 1)
	assert.Equal(t, 2, pgsTracks[0].TrackNumber)
}

func TestMatroskaFile_Subtitle(t *testing.T) {
	file := openMovie(t, testMovie(pgstest.MkvTrack{Number: 2, Type: 17, CodecId: CodecIdPgs}))

	var progress []int64
	subtitles, subtitleErr := file.Subtitle(2, func(position, size int64) {
		progress = append(progress, position)
	})
	require.NoError(t, subtitleErr)
	require.Len(t, subtitles, 2)

	assert.Equal(t, time.Second, subtitles[0].Start)
	assert.Zero(t, subtitles[0].Duration)
	assert.Equal(t, 4*time.Second, subtitles[1].Start)
	assert.Equal(t, 4500*time.Millisecond, subtitles[1].End())
	assert.Equal(t, pgstest.BlockData(pgstest.ClearSet()), subtitles[1].Data)
	assert.NotEmpty(t, progress)
	assert.IsNonDecreasing(t, progress)
}

func TestMatroskaFile_ReadSupTrack(t *testing.T) {
	tests := map[string]pgstest.MkvTrack{
		"plain":            {Number: 2, Type: 17, CodecId: CodecIdPgs},
		"zlib":             {Number: 3, Type: 17, CodecId: CodecIdPgs, Zlib: true},
		"header stripping": {Number: 5, Type: 17, CodecId: CodecIdPgs, HeaderStripping: []byte{byte(bluraysup.SegmentPcs)}},
	}

	for name, track := range tests {
		t.Run(name, func(t *testing.T) {
			file := openMovie(t, testMovie(track))

			sup, supErr := file.ReadSupTrack(track.Number, nil)
			require.NoError(t, supErr)
			assert.Equal(t, 7, sup.Segments)
			assert.Zero(t, sup.TruncatedBlocks)

			frames := bluraysup.Parse(sup.Data)
			require.Len(t, frames, 2)
			assert.Equal(t, time.Second, frames[0].StartTime)
			require.Len(t, frames[0].Images, 1)
			assert.Equal(t, 50, frames[0].Images[0].Width())
			assert.Equal(t, 4*time.Second, frames[1].StartTime)
			assert.True(t, frames[1].IsClear())
		})
	}
}

func TestMatroskaFile_ReadSupTrackErrors(t *testing.T) {
	file := openMovie(t, testMovie(pgstest.MkvTrack{Number: 2, Type: 17, CodecId: CodecIdPgs}))

	_, missingErr := file.ReadSupTrack(9, nil)
	assert.Error(t, missingErr)

	_, textErr := file.ReadSupTrack(4, nil)
	assert.Error(t, textErr, "text tracks are not PGS")
}

func TestNewMatroskaFile_Invalid(t *testing.T) {
	_, notEbmlErr := NewMatroskaFile(writeFile(t, []byte("not a matroska file")))
	assert.Error(t, notEbmlErr)

	_, emptyErr := NewMatroskaFile(writeFile(t, nil))
	assert.Error(t, emptyErr)

	_, missingErr := NewMatroskaFile(filepath.Join(t.TempDir(), "missing.mkv"))
	assert.Error(t, missingErr)
}

func TestNewMatroskaFile_TruncatedSegment(t *testing.T) {
	data := testMovie(pgstest.MkvTrack{Number: 2, Type: 17, CodecId: CodecIdPgs}).Bytes()

	file, openErr := NewMatroskaFile(writeFile(t, data[:len(data)-40]))
	require.NoError(t, openErr)
	defer file.Close()

	tracks, tracksErr := file.Tracks(true)
	require.NoError(t, tracksErr)
	assert.Len(t, tracks, 2)
}

func TestToSup_TruncatedBlock(t *testing.T) {
	track := &MatroskaTrackInfo{CodecId: CodecIdPgs, IsSubtitle: true, TrackNumber: 2}
	data := pgstest.BlockData(pgstest.DisplaySet(0, 0, 0, 4, 2))

	sup, supErr := ToSup([]MatroskaSubtitle{{Data: data[:len(data)-10], Start: time.Second}}, track)
	require.NoError(t, supErr)
	assert.Equal(t, 1, sup.TruncatedBlocks)
	assert.Equal(t, 3, sup.Segments)

	_, textErr := ToSup(nil, &MatroskaTrackInfo{CodecId: "S_TEXT/UTF8", IsSubtitle: true})
	assert.Error(t, textErr)
}
