package classifier

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"
)

func writeFixture(t *testing.T, dir string, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func encodedImage(t *testing.T, encode func(*bytes.Buffer, image.Image) error) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})

	var buf bytes.Buffer
	require.NoError(t, encode(&buf, img))
	return buf.Bytes()
}

func TestClassifyByExtensionWithSubcategory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	engine := New(DefaultRules())

	cases := []struct {
		name    string
		content string
		want    string
	}{
		{"notes.txt", "def main():\n    import os\n", "text/source_code"},
		{"app.ini", "database settings for staging", "text/configuration"},
		{"empty.md", "", "text/general"},
		{"plain.txt", "nothing interesting here at all", "text/general"},
		{"model.py", "import pandas as pd\n", "code/data_science"},
		{"index.html", "<html><body></body></html>", "code/web"},
		{"PHOTO.JPG", "not really a jpeg", "image"},
		{"song.mp3", "", "audio"},
		{"movie.mkv", "", "video"},
		{"bundle.7z", "", "compressed"},
	}

	for _, tc := range cases {
		path := writeFixture(t, dir, tc.name, []byte(tc.content))
		assert.Equal(t, tc.want, engine.Classify(path).String(), tc.name)
	}
}

func TestClassifyFallsBackToContentSniffing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	engine := New(DefaultRules())

	pngPath := writeFixture(t, dir, "snapshot", encodedImage(t, func(buf *bytes.Buffer, img image.Image) error {
		return png.Encode(buf, img)
	}))
	assert.Equal(t, Classification{Category: Image}, engine.Classify(pngPath))

	tiffPath := writeFixture(t, dir, "scan", encodedImage(t, func(buf *bytes.Buffer, img image.Image) error {
		return tiff.Encode(buf, img, nil)
	}))
	assert.Equal(t, "image/tiff", engine.DetectMIME(tiffPath))
	assert.Equal(t, Image, engine.Classify(tiffPath).Category)

	textPath := writeFixture(t, dir, "README", []byte("This is the user guide for the tool."))
	assert.Equal(t, "text/documentation", engine.Classify(textPath).String())

	binPath := writeFixture(t, dir, "blob", []byte{0x00, 0x01, 0x02, 0x03, 0xfe})
	assert.Equal(t, Classification{Category: Other}, engine.Classify(binPath))
}

func TestClassifyUnreadableFileKeepsCategoryWithoutSubcategory(t *testing.T) {
	t.Parallel()

	engine := New(DefaultRules())
	got := engine.Classify(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Equal(t, Classification{Category: Text}, got)
	assert.Equal(t, "text", got.String())
}

type fixedResolver string

func (f fixedResolver) DetectMIME(string) string { return string(f) }

func TestClassifyUsesInjectedResolver(t *testing.T) {
	t.Parallel()

	engine := New(DefaultRules(), WithResolver(fixedResolver("Application/GZIP")))
	assert.Equal(t, Compressed, engine.Classify("/nowhere/archive.bin").Category)

	engine = New(DefaultRules(), WithResolver(fixedResolver("application/x-unknown")))
	assert.Equal(t, Other, engine.Classify("/nowhere/archive.bin").Category)
}

func TestClassifyIsDeterministic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFixture(t, dir, "report.pdf", []byte("%PDF-1.4 quarterly report and findings"))
	engine := New(DefaultRules())

	first := engine.Classify(path)
	for range 5 {
		assert.Equal(t, first, engine.Classify(path))
	}
	assert.Equal(t, "document/report", first.String())
}

func TestExcerptLimitBoundsKeywordSearch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	content := append(bytes.Repeat([]byte("a"), 128), []byte(" error: late")...)
	path := writeFixture(t, dir, "late.log", content)

	assert.Equal(t, "text/general", New(DefaultRules(), WithExcerptBytes(64)).Classify(path).String())
	assert.Equal(t, "text/logs", New(DefaultRules()).Classify(path).String())
}

func TestPrintableTextDropsShortBinaryRuns(t *testing.T) {
	t.Parallel()

	data := []byte{0x00, 'o', 's', 0x01, 'R', 'E', 'P', 'O', 'R', 'T', 0x02, 'a', 'b', 'c', 'd'}
	assert.Equal(t, "report abcd", printableText(data))
	assert.Equal(t, "", printableText(nil))
}

func TestParseCategory(t *testing.T) {
	t.Parallel()

	category, ok := ParseCategory(" Image ")
	require.True(t, ok)
	assert.Equal(t, Image, category)

	_, ok = ParseCategory("spreadsheets")
	assert.False(t, ok)
}

func TestCategoriesReturnsCopy(t *testing.T) {
	t.Parallel()

	list := Categories()
	require.Len(t, list, 8)
	assert.Equal(t, Text, list[0])
	assert.Equal(t, Other, list[len(list)-1])

	list[0] = "spreadsheets"
	assert.Equal(t, Text, Categories()[0])
	_, ok := ParseCategory("spreadsheets")
	assert.False(t, ok)
}
