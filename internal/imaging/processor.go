// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imaging decodes featured images and writes the original and
// resized sizes to the uploads directory.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // WebP decoder

	"github.com/olegiv/post-connector/internal/util"
)

// Supported MIME types.
const (
	MimeTypeJPEG = "image/jpeg"
	MimeTypePNG  = "image/png"
	MimeTypeGIF  = "image/gif"
	MimeTypeWebP = "image/webp"
)

// ErrUnsupportedFormat is returned for data that is not a supported image.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Size describes a resized copy of the original.
type Size struct {
	Width   int
	Height  int
	Crop    bool
	Quality int
}

// Sizes generated for each featured image, keyed by directory name.
var Sizes = map[string]Size{
	"thumbnail": {Width: 150, Height: 150, Crop: true, Quality: 85},
	"large":     {Width: 1024, Height: 1024, Quality: 85},
}

// originalsDir holds the re-encoded originals.
const originalsDir = "originals"

// Result describes a stored image.
type Result struct {
	Width    int
	Height   int
	MimeType string
	Size     int64
	// Path is relative to the uploads directory, slash separated.
	Path     string
	Variants map[string]string
}

// Processor writes images below uploadDir.
type Processor struct {
	uploadDir string
}

// NewProcessor creates an image processor.
func NewProcessor(uploadDir string) *Processor {
	return &Processor{uploadDir: uploadDir}
}

// Process decodes data, applies the EXIF orientation, stores the original
// under originals/{uuid}/ and each of Sizes under {size}/{uuid}/.
// A size that fails is skipped; the original must succeed.
func (p *Processor) Process(data []byte, uuid, filename string) (*Result, error) {
	format := detectFormat(data)
	if format == "" {
		return nil, ErrUnsupportedFormat
	}

	name, err := util.SanitizeFilename(filename)
	if err != nil {
		return nil, err
	}
	name = withExtension(name, format)

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	img = applyOrientation(img, readExifOrientation(bytes.NewReader(data)))

	encoded, err := encodeImage(img, format, 95)
	if err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}
	rel, err := p.save(originalsDir, uuid, name, encoded)
	if err != nil {
		return nil, fmt.Errorf("saving original: %w", err)
	}

	bounds := img.Bounds()
	result := &Result{
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		MimeType: formatToMimeType(format),
		Size:     int64(len(encoded)),
		Path:     rel,
		Variants: make(map[string]string, len(Sizes)),
	}

	for sizeName, size := range Sizes {
		if !size.Crop && result.Width <= size.Width && result.Height <= size.Height {
			continue
		}
		var resized image.Image
		if size.Crop {
			resized = imaging.Fill(img, size.Width, size.Height, imaging.Center, imaging.Lanczos)
		} else {
			resized = imaging.Fit(img, size.Width, size.Height, imaging.Lanczos)
		}
		out, err := encodeImage(resized, format, size.Quality)
		if err != nil {
			continue
		}
		if variantPath, err := p.save(sizeName, uuid, name, out); err == nil {
			result.Variants[sizeName] = variantPath
		}
	}

	return result, nil
}

// Remove deletes every stored file of uuid.
func (p *Processor) Remove(uuid string) error {
	dirs := []string{originalsDir}
	for sizeName := range Sizes {
		dirs = append(dirs, sizeName)
	}
	for _, dir := range dirs {
		path, err := util.SafeJoinPath(p.uploadDir, dir, uuid)
		if err != nil {
			return err
		}
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("removing %s: %w", path, err)
		}
	}
	return nil
}

func (p *Processor) save(dir, uuid, name string, data []byte) (string, error) {
	target, err := util.SafeJoinPath(p.uploadDir, dir, uuid)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", fmt.Errorf("creating directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(target, name), data, 0o644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	return dir + "/" + uuid + "/" + name, nil
}

// readExifOrientation returns the EXIF orientation, 1 when absent.
func readExifOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	orientation, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return orientation
}

func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.FlipH(imaging.Rotate270(img))
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.FlipH(imaging.Rotate90(img))
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// encodeImage encodes img. WebP has no pure Go encoder and is written as JPEG.
func encodeImage(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "gif":
		err = gif.Encode(&buf, img, nil)
	default:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DetectMimeType sniffs the MIME type of data.
func DetectMimeType(data []byte) string {
	contentType := http.DetectContentType(data)
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = contentType[:idx]
	}
	return contentType
}

func detectFormat(data []byte) string {
	switch DetectMimeType(data) {
	case MimeTypeJPEG:
		return "jpeg"
	case MimeTypePNG:
		return "png"
	case MimeTypeGIF:
		return "gif"
	case MimeTypeWebP:
		return "webp"
	default:
		// TIFF is rejected along with everything else (CVE-2023-36308).
		return ""
	}
}

// withExtension makes the extension of name match the stored format.
func withExtension(name, format string) string {
	ext := ".jpg"
	switch format {
	case "png":
		ext = ".png"
	case "gif":
		ext = ".gif"
	}
	current := strings.ToLower(filepath.Ext(name))
	if current == ext || (ext == ".jpg" && current == ".jpeg") {
		return name
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + ext
}

func formatToMimeType(format string) string {
	switch format {
	case "png":
		return MimeTypePNG
	case "gif":
		return MimeTypeGIF
	default:
		return MimeTypeJPEG
	}
}
