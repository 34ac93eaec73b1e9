package preview

import (
	"image"
	"image/color"

	"github.com/chewxy/math32"

	"github.com/Faultbox/tangible/internal/mesh"
	"github.com/Faultbox/tangible/pkg/math"
)

// viewport maps world space onto pixels through an orthographic camera
// looking down -Z, +Y up. Larger world Z is closer to the viewer.
type viewport struct {
	clip math.Mat4
	half float32
}

func newViewport(b mesh.Bounds, size int, margin float32) viewport {
	span := max(b.Max.X-b.Min.X, b.Max.Y-b.Min.Y, 1e-3)
	usable := 1 - 2*min(max(margin, 0), 0.45)
	r := span / 2 / usable

	c := b.Center()
	view := math.LookAt(math.V3(c.X, c.Y, b.Max.Z+1), math.V3(c.X, c.Y, b.Max.Z), math.V3(0, 1, 0))
	proj := math.Ortho(-r, r, -r, r, 0.5, b.Max.Z-b.Min.Z+1.5)
	return viewport{
		clip: proj.Mul(view),
		half: float32(size) / 2,
	}
}

type screenVertex struct {
	x, y, z float32
	c       math.Vec3
}

func (v viewport) project(p, c math.Vec3) screenVertex {
	q := v.clip.TransformVec3(p)
	return screenVertex{
		x: (q.X + 1) * v.half,
		y: (1 - q.Y) * v.half,
		z: -q.Z,
		c: c,
	}
}

// frameBuffer is a premultiplied color target with a depth buffer.
type frameBuffer struct {
	img   *image.RGBA
	depth []float32
	w, h  int
}

func newFrameBuffer(w, h int, bg color.RGBA) *frameBuffer {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = bg.R, bg.G, bg.B, bg.A
	}
	depth := make([]float32, w*h)
	for i := range depth {
		depth[i] = math32.Inf(-1)
	}
	return &frameBuffer{img: img, depth: depth, w: w, h: h}
}

// triangle fills a triangle sampled at pixel centers, interpolating color
// and depth barycentrically.
func (fb *frameBuffer) triangle(v [3]screenVertex) {
	x0, y0 := v[0].x, v[0].y
	x1, y1 := v[1].x, v[1].y
	x2, y2 := v[2].x, v[2].y

	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if math32.Abs(det) < 1e-8 {
		return
	}
	invDet := 1 / det

	minX := max(int(math32.Floor(min(x0, x1, x2))), 0)
	maxX := min(int(math32.Ceil(max(x0, x1, x2))), fb.w-1)
	minY := max(int(math32.Floor(min(y0, y1, y2))), 0)
	maxY := min(int(math32.Ceil(max(y0, y1, y2))), fb.h-1)

	dy12, dx21 := y1-y2, x2-x1
	dy20, dx02 := y2-y0, x0-x2

	for sy := minY; sy <= maxY; sy++ {
		py := float32(sy) + 0.5 - y2
		for sx := minX; sx <= maxX; sx++ {
			px := float32(sx) + 0.5 - x2
			w0 := (dy12*px + dx21*py) * invDet
			w1 := (dy20*px + dx02*py) * invDet
			w2 := 1 - w0 - w1
			if w0 < -1e-4 || w1 < -1e-4 || w2 < -1e-4 {
				continue
			}

			idx := sy*fb.w + sx
			z := w0*v[0].z + w1*v[1].z + w2*v[2].z
			if z <= fb.depth[idx] {
				continue
			}
			fb.depth[idx] = z

			c := v[0].c.Scale(w0).Add(v[1].c.Scale(w1)).Add(v[2].c.Scale(w2))
			o := idx * 4
			fb.img.Pix[o] = to8(c.X)
			fb.img.Pix[o+1] = to8(c.Y)
			fb.img.Pix[o+2] = to8(c.Z)
			fb.img.Pix[o+3] = 255
		}
	}
}

// marker draws a filled square over everything.
func (fb *frameBuffer) marker(x, y float32, radius int, c color.RGBA) {
	cx, cy := int(x), int(y)
	for sy := max(cy-radius, 0); sy <= min(cy+radius, fb.h-1); sy++ {
		for sx := max(cx-radius, 0); sx <= min(cx+radius, fb.w-1); sx++ {
			fb.img.SetRGBA(sx, sy, c)
		}
	}
}

func to8(v float32) uint8 {
	return uint8(min(max(v, 0), 1)*255 + 0.5)
}
