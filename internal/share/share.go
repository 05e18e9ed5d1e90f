// Package share encodes the persistent-element layout as a compact
// URL-safe string, the payload behind shareable simulation links.
package share

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/san-kum/liquidlab/internal/elements"
	"github.com/san-kum/liquidlab/internal/field"
)

// Version is the current share-state schema version.
const Version = 1

const (
	tagDye       = "d"
	tagForce     = "f"
	tagAttractor = "a"
)

// payload is the wire form: positions and radii normalized to [0,1] so a
// link re-opens sensibly at any resolution.
type payload struct {
	V int        `json:"v"`
	W int        `json:"w"`
	H int        `json:"h"`
	E []wireElem `json:"e"`
}

type wireElem struct {
	T string    `json:"t"`
	X float64   `json:"x"`
	Y float64   `json:"y"`
	R float64   `json:"r"`
	C []float64 `json:"c,omitempty"` // dye color
	I float64   `json:"i,omitempty"` // dye intensity
	D []float64 `json:"d,omitempty"` // force direction, cell units
	S float64   `json:"s,omitempty"` // force/attractor strength
}

// Encode serializes the element list against the given grid as UTF-8 JSON
// in URL-safe base64 without padding.
func Encode(g field.Grid, items []elements.Element) (string, error) {
	w := float64(g.Width)
	h := float64(g.Height)
	p := payload{V: Version, W: g.Width, H: g.Height, E: make([]wireElem, 0, len(items))}
	for _, el := range items {
		we := wireElem{
			X: clamp01(el.Pos.X / w),
			Y: clamp01(el.Pos.Y / h),
			R: el.Radius / w,
		}
		switch el.Kind {
		case elements.KindDyeSource:
			we.T = tagDye
			we.C = []float64{el.Color.R, el.Color.G, el.Color.B}
			we.I = el.Intensity
		case elements.KindForce:
			we.T = tagForce
			we.D = []float64{el.Direction.X, el.Direction.Y}
			we.S = el.Strength
		case elements.KindAttractor:
			we.T = tagAttractor
			we.S = el.Strength
		default:
			return "", fmt.Errorf("unknown element kind %v", el.Kind)
		}
		p.E = append(p.E, we)
	}
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// Decode parses an encoded share string back into elements, denormalized
// against the given grid. Padding is optional; '+' and '/' from a plain
// base64 encoder are accepted too.
func Decode(encoded string, g field.Grid) ([]elements.Element, error) {
	cleaned := strings.TrimSpace(encoded)
	cleaned = strings.TrimRight(cleaned, "=")
	cleaned = strings.NewReplacer("+", "-", "/", "_").Replace(cleaned)

	data, err := base64.RawURLEncoding.DecodeString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 payload: %w", err)
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("invalid share JSON: %w", err)
	}
	if p.V != Version {
		return nil, fmt.Errorf("unsupported share version %d", p.V)
	}

	w := float64(g.Width)
	h := float64(g.Height)
	items := make([]elements.Element, 0, len(p.E))
	for i, we := range p.E {
		pos := elements.Vec2{
			X: clamp01(we.X) * w,
			Y: clamp01(we.Y) * h,
		}
		radius := we.R * w
		if radius < 1e-3 {
			radius = 1e-3
		}
		switch we.T {
		case tagDye:
			if len(we.C) != 3 {
				return nil, fmt.Errorf("element %d: dye source needs a 3-channel color", i)
			}
			color := elements.Color{R: we.C[0], G: we.C[1], B: we.C[2]}
			items = append(items, elements.NewDyeSource(pos, radius, color, we.I))
		case tagForce:
			if len(we.D) != 2 {
				return nil, fmt.Errorf("element %d: force needs a 2D direction", i)
			}
			dir := elements.Vec2{X: we.D[0], Y: we.D[1]}
			items = append(items, elements.NewForce(pos, radius, dir, we.S))
		case tagAttractor:
			items = append(items, elements.NewAttractor(pos, radius, we.S))
		default:
			return nil, fmt.Errorf("element %d: unknown tag %q", i, we.T)
		}
	}
	return items, nil
}

// DecodeOrEmpty is the fail-soft entry point used at startup: malformed
// payloads log a warning and yield an empty element list instead of
// aborting initialization.
func DecodeOrEmpty(encoded string, g field.Grid) []elements.Element {
	if strings.TrimSpace(encoded) == "" {
		return nil
	}
	items, err := Decode(encoded, g)
	if err != nil {
		slog.Warn("discarding malformed share state", "error", err)
		return nil
	}
	return items
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
