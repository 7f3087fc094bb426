package imageurl

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"
)

const (
	maxImportWidth = 1600
	maxDerivedSide = 2400
	jpegQuality    = 80
)

// Local builds URLs for images served by a Resizer mounted under Prefix.
type Local struct {
	Prefix string // default "/images"
}

// URL returns Prefix/<asset>?w=..&h=.. for a file in the image directory.
func (l Local) URL(ref Ref, width, height int) (string, error) {
	name := ref.Asset
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidRef, ref.Asset)
	}
	prefix := l.Prefix
	if prefix == "" {
		prefix = "/images"
	}
	q := url.Values{}
	if width > 0 {
		q.Set("w", strconv.Itoa(width))
	}
	if height > 0 {
		q.Set("h", strconv.Itoa(height))
	}
	u := strings.TrimSuffix(prefix, "/") + "/" + url.PathEscape(name)
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u, nil
}

// Resizer serves cover-cropped JPEG derivatives of files in Dir.
type Resizer struct {
	Dir string
}

// Handle serves GET <prefix>/:name?w=&h=.
func (r Resizer) Handle(c echo.Context) error {
	name := c.Param("name")
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return echo.NewHTTPError(http.StatusNotFound)
	}
	w, err := dimension(c.QueryParam("w"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid width")
	}
	h, err := dimension(c.QueryParam("h"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid height")
	}

	f, err := os.Open(filepath.Join(r.Dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return echo.NewHTTPError(http.StatusNotFound)
		}
		return err
	}
	defer f.Close()

	data, err := Derive(f, w, h)
	if err != nil {
		return fmt.Errorf("derive %s: %w", name, err)
	}
	c.Response().Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	return c.Blob(http.StatusOK, "image/jpeg", data)
}

func dimension(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 || n > maxDerivedSide {
		return 0, fmt.Errorf("dimension %q out of range", v)
	}
	return n, nil
}

// Derive decodes src and encodes it as JPEG scaled to width x height.
// When both are set the image is cropped to fill the box around its centre;
// when only one is set the other follows the source aspect ratio.
func Derive(src io.Reader, width, height int) ([]byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	b := img.Bounds()
	sw, sh := b.Dx(), b.Dy()

	srcRect := b
	switch {
	case width > 0 && height > 0:
		srcRect = coverRect(b, width, height)
	case width > 0:
		height = max(1, sh*width/sw)
	case height > 0:
		width = max(1, sw*height/sh)
	default:
		width, height = sw, sh
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, srcRect, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// coverRect returns the centred region of b with the aspect ratio w:h.
func coverRect(b image.Rectangle, w, h int) image.Rectangle {
	sw, sh := b.Dx(), b.Dy()
	if sw*h > sh*w {
		cw := sh * w / h
		x0 := b.Min.X + (sw-cw)/2
		return image.Rect(x0, b.Min.Y, x0+cw, b.Max.Y)
	}
	ch := sw * h / w
	y0 := b.Min.Y + (sh-ch)/2
	return image.Rect(b.Min.X, y0, b.Max.X, y0+ch)
}

// ImportImage copies the image at srcPath into dir as a JPEG no wider than
// maxImportWidth and returns the stored filename. Existing files are never
// overwritten; a numeric suffix is appended instead.
func ImportImage(dir, srcPath string) (string, error) {
	f, err := os.Open(srcPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", srcPath, err)
	}
	b := img.Bounds()
	if b.Dx() > maxImportWidth {
		newH := b.Dy() * maxImportWidth / b.Dx()
		dst := image.NewRGBA(image.Rect(0, 0, maxImportWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", fmt.Errorf("encode jpeg: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create image dir: %w", err)
	}
	name := uniqueFilename(dir, fileSlug(filepath.Base(srcPath)))
	if err := os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return name, nil
}

func uniqueFilename(dir, base string) string {
	candidate := base + ".jpg"
	for n := 2; ; n++ {
		if _, err := os.Stat(filepath.Join(dir, candidate)); os.IsNotExist(err) {
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d.jpg", base, n)
	}
}

// fileSlug lowercases a filename without extension and collapses anything
// outside [a-z0-9] to single dashes.
func fileSlug(name string) string {
	name = strings.TrimSuffix(name, filepath.Ext(name))
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	s := strings.TrimRight(b.String(), "-")
	if s == "" {
		return "image"
	}
	return s
}
