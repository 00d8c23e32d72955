package document

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		img.Set(x, 10, color.RGBA{R: 200, A: 255})
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestListImages_SortedPNGOnly(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "03_energy.png"))
	writePNG(t, filepath.Join(dir, "01_traffic.png"))
	writePNG(t, filepath.Join(dir, "02_occupancy.png"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.png"), 0o755))

	images, err := ListImages(dir)
	require.NoError(t, err)
	require.Len(t, images, 3)
	assert.Equal(t, "01_traffic.png", filepath.Base(images[0]))
	assert.Equal(t, "02_occupancy.png", filepath.Base(images[1]))
	assert.Equal(t, "03_energy.png", filepath.Base(images[2]))
}

func TestAssemble_WritesPDF(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "01_a.png"))
	writePNG(t, filepath.Join(dir, "02_b.png"))
	out := filepath.Join(t.TempDir(), "summary.pdf")

	images, err := ListImages(dir)
	require.NoError(t, err)
	got, err := NewPDFAssembler().Assemble(context.Background(), images, out)
	require.NoError(t, err)
	assert.Equal(t, out, got)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestAssemble_NoImages(t *testing.T) {
	_, err := NewPDFAssembler().Assemble(context.Background(), nil, filepath.Join(t.TempDir(), "x.pdf"))
	assert.ErrorIs(t, err, ErrNoImages)
}

func TestListImages_MissingDirectory(t *testing.T) {
	_, err := ListImages("/nonexistent/images")
	assert.Error(t, err)
}

func TestAssemble_OnlyListedImages(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "01_a.png")
	broken := filepath.Join(dir, "02_broken.png")
	writePNG(t, good)
	require.NoError(t, os.WriteFile(broken, []byte("not a png"), 0o644))

	got, err := NewPDFAssembler().Assemble(context.Background(), []string{good}, filepath.Join(t.TempDir(), "one.pdf"))
	require.NoError(t, err)
	assert.FileExists(t, got)

	_, err = NewPDFAssembler().Assemble(context.Background(), []string{good, broken}, filepath.Join(t.TempDir(), "two.pdf"))
	assert.Error(t, err)
}
