// Package document assembles chart images into a single PDF.
package document

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-pdf/fpdf"
)

// ErrNoImages is returned when the image directory holds no charts.
var ErrNoImages = errors.New("no images to assemble")

// Assembler combines a list of images, in order, into one document.
type Assembler interface {
	Assemble(ctx context.Context, images []string, outPath string) (string, error)
}

// PDFAssembler writes one A4 page per PNG, ordered by file name.
type PDFAssembler struct {
	// Title is printed on each page above the image; empty uses the file name.
	Title string
}

// NewPDFAssembler creates a PDF assembler.
func NewPDFAssembler() *PDFAssembler {
	return &PDFAssembler{}
}

// ListImages returns the PNG files in dir sorted by name.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading image directory: %w", err)
	}

	var images []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".png") {
			continue
		}
		images = append(images, filepath.Join(dir, e.Name()))
	}
	sort.Strings(images)
	return images, nil
}

// Assemble writes one page per image to outPath and returns its path.
func (a *PDFAssembler) Assemble(ctx context.Context, images []string, outPath string) (string, error) {
	if len(images) == 0 {
		return "", ErrNoImages
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Simulation report summary", true)
	pageW, _ := pdf.GetPageSize()
	left, top, right, _ := pdf.GetMargins()
	width := pageW - left - right

	for _, img := range images {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		pdf.AddPage()
		pdf.SetFont("Helvetica", "B", 12)
		title := a.Title
		if title == "" {
			title = strings.TrimSuffix(filepath.Base(img), filepath.Ext(img))
		}
		pdf.CellFormat(width, 10, title, "", 1, "C", false, 0, "")

		pdf.ImageOptions(img, left, top+12, width, 0, false,
			fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		if pdf.Err() {
			return "", fmt.Errorf("adding %s: %w", img, pdf.Error())
		}
	}

	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return "", fmt.Errorf("writing %s: %w", outPath, err)
	}
	return outPath, nil
}
