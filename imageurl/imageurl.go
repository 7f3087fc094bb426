// Package imageurl derives resolvable image URLs from opaque CMS image
// references at fixed target dimensions.
package imageurl

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// ErrInvalidRef is returned when an image reference cannot be parsed.
var ErrInvalidRef = errors.New("imageurl: invalid image reference")

// Crop is the fraction of the source trimmed from each edge.
type Crop struct {
	Top    float64 `json:"top" yaml:"top"`
	Bottom float64 `json:"bottom" yaml:"bottom"`
	Left   float64 `json:"left" yaml:"left"`
	Right  float64 `json:"right" yaml:"right"`
}

// Hotspot is the focal area of the source, as fractions of its size.
type Hotspot struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Height float64 `json:"height" yaml:"height"`
	Width  float64 `json:"width" yaml:"width"`
}

// Ref is an opaque image reference as stored by the content source.
// Asset is either a CMS asset id (image-<id>-<w>x<h>-<ext>) or, for the
// local source, a filename inside the image directory.
type Ref struct {
	Asset   string   `json:"asset" yaml:"asset"`
	Crop    *Crop    `json:"crop,omitempty" yaml:"crop,omitempty"`
	Hotspot *Hotspot `json:"hotspot,omitempty" yaml:"hotspot,omitempty"`
}

// Builder resolves a reference to a URL scaled to width x height.
type Builder interface {
	URL(ref Ref, width, height int) (string, error)
}

// SanityCDN builds image URLs served by the Sanity image pipeline.
type SanityCDN struct {
	ProjectID string
	Dataset   string
	BaseURL   string // default "https://cdn.sanity.io"
}

// asset is a parsed CMS asset id.
type asset struct {
	id     string
	width  int
	height int
	format string
}

func parseAsset(ref string) (asset, error) {
	parts := strings.Split(ref, "-")
	if len(parts) != 4 || parts[0] != "image" {
		return asset{}, fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	dims := strings.SplitN(parts[2], "x", 2)
	if len(dims) != 2 {
		return asset{}, fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	w, errW := strconv.Atoi(dims[0])
	h, errH := strconv.Atoi(dims[1])
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return asset{}, fmt.Errorf("%w: bad dimensions in %q", ErrInvalidRef, ref)
	}
	return asset{id: parts[1], width: w, height: h, format: parts[3]}, nil
}

type rect struct {
	left, top, width, height int
}

// jsRound matches Math.round, which rounds halves towards +Inf.
func jsRound(f float64) int {
	return int(math.Floor(f + 0.5))
}

// URL returns the CDN URL for ref at width x height. The source is cropped
// to the target aspect ratio around the hotspot, the same way the hosted
// image-url builder does it.
func (s SanityCDN) URL(ref Ref, width, height int) (string, error) {
	a, err := parseAsset(ref.Asset)
	if err != nil {
		return "", err
	}
	base := s.BaseURL
	if base == "" {
		base = "https://cdn.sanity.io"
	}
	u := fmt.Sprintf("%s/images/%s/%s/%s-%dx%d.%s",
		strings.TrimSuffix(base, "/"), url.PathEscape(s.ProjectID), url.PathEscape(s.Dataset),
		a.id, a.width, a.height, a.format)

	var params []string
	if width > 0 && height > 0 {
		r := fit(a, ref.Crop, ref.Hotspot, width, height)
		if r.left != 0 || r.top != 0 || r.width != a.width || r.height != a.height {
			params = append(params, fmt.Sprintf("rect=%d,%d,%d,%d", r.left, r.top, r.width, r.height))
		}
	}
	if width > 0 {
		params = append(params, "w="+strconv.Itoa(width))
	}
	if height > 0 {
		params = append(params, "h="+strconv.Itoa(height))
	}
	if len(params) == 0 {
		return u, nil
	}
	return u + "?" + strings.Join(params, "&"), nil
}

// fit computes the source rectangle to cut so the result has the target
// aspect ratio, staying inside the crop and centred on the hotspot.
func fit(a asset, c *Crop, hs *Hotspot, width, height int) rect {
	crop := Crop{}
	if c != nil {
		crop = *c
	}
	spot := Hotspot{X: 0.5, Y: 0.5, Height: 1, Width: 1}
	if hs != nil {
		spot = *hs
	}
	w, h := float64(a.width), float64(a.height)

	cropLeft := jsRound(crop.Left * w)
	cropTop := jsRound(crop.Top * h)
	cr := rect{
		left:   cropLeft,
		top:    cropTop,
		width:  jsRound(w - crop.Right*w - float64(cropLeft)),
		height: jsRound(h - crop.Bottom*h - float64(cropTop)),
	}

	hsLeft := spot.X*w - spot.Width*w/2
	hsRight := spot.X*w + spot.Width*w/2
	hsTop := spot.Y*h - spot.Height*h/2
	hsBottom := spot.Y*h + spot.Height*h/2

	desired := float64(width) / float64(height)
	cropRatio := float64(cr.width) / float64(cr.height)

	if cropRatio > desired {
		// cut from the sides
		outH := cr.height
		outW := jsRound(float64(outH) * desired)
		top := max(0, cr.top)
		centerX := jsRound((hsRight-hsLeft)/2 + hsLeft)
		left := max(0, jsRound(float64(centerX)-float64(outW)/2))
		if left < cr.left {
			left = cr.left
		} else if left+outW > cr.left+cr.width {
			left = cr.left + cr.width - outW
		}
		return rect{left: left, top: top, width: outW, height: outH}
	}

	// cut from top and bottom
	outW := cr.width
	outH := jsRound(float64(outW) / desired)
	left := max(0, cr.left)
	centerY := jsRound((hsBottom-hsTop)/2 + hsTop)
	top := max(0, jsRound(float64(centerY)-float64(outH)/2))
	if top < cr.top {
		top = cr.top
	} else if top+outH > cr.top+cr.height {
		top = cr.top + cr.height - outH
	}
	return rect{left: left, top: top, width: outW, height: outH}
}
