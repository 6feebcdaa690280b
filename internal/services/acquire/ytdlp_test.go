package acquire

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePrinted(t *testing.T) {
	out := "/tmp/taitanx_dl_1/dQw4w9WgXcQ.mp3\tNever Gonna Give You Up\t212.0\taudio only\n"
	art := parsePrinted(out)

	assert.Equal(t, "/tmp/taitanx_dl_1/dQw4w9WgXcQ.mp3", art.FilePath)
	assert.Equal(t, "Never Gonna Give You Up", art.Title)
	assert.Equal(t, 212, art.DurationSeconds)
	assert.Equal(t, "audio only", art.Quality)
}

func TestParsePrintedLastLineWins(t *testing.T) {
	// Progress noise can precede the structured line.
	out := "[download] 100% of 3.2MiB\n/tmp/x/v.mp4\tClip\t60\t1280x720\n"
	art := parsePrinted(out)

	assert.Equal(t, "/tmp/x/v.mp4", art.FilePath)
	assert.Equal(t, "1280x720", art.Quality)
}

func TestParsePrintedMissingFields(t *testing.T) {
	art := parsePrinted("/tmp/x/v.mp3\tNA\tNA\tNA\n")
	assert.Equal(t, "/tmp/x/v.mp3", art.FilePath)
	assert.Equal(t, "Unknown", art.Title)
	assert.Zero(t, art.DurationSeconds)
	assert.Empty(t, art.Quality)
}

func TestParsePrintedEmpty(t *testing.T) {
	art := parsePrinted("")
	assert.Empty(t, art.FilePath)
	assert.Equal(t, "Unknown", art.Title)
}

func TestParsePrintedFractionalDuration(t *testing.T) {
	art := parsePrinted("/tmp/x/v.mp3\tSong\t194.73\taudio only\n")
	assert.Equal(t, 194, art.DurationSeconds)
}

func TestLineHelpers(t *testing.T) {
	assert.Equal(t, "first", firstLine("first\nsecond\nthird"))
	assert.Equal(t, "third", lastLine("first\nsecond\nthird"))
	assert.Equal(t, "only", firstLine("only"))
	assert.Equal(t, "only", lastLine("only"))
	assert.Equal(t, "", firstLine("  \n  "))
}
