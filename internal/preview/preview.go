// Package preview draws display snapshots into images: an orthographic view
// looking down -Z with per-vertex colors and a single directional light.
package preview

import (
	"image"
	"image/color"

	"github.com/chewxy/math32"
	"golang.org/x/image/draw"

	"github.com/Faultbox/tangible/internal/mesh"
	"github.com/Faultbox/tangible/internal/session"
	"github.com/Faultbox/tangible/pkg/math"
)

// Item is one mesh to draw. Positions are local to Transform.
type Item struct {
	Positions []math.Vec3
	Normals   []math.Vec3
	Colors    []math.Vec3
	Triangles [][3]int
	Transform math.Mat4
}

// Options controls rendering.
type Options struct {
	// Size is the output width and height in pixels.
	Size int
	// Supersample renders at Size*Supersample and scales down.
	Supersample int
	// Margin is the empty border as a fraction of Size.
	Margin float32
	// Light points from the surface toward the light.
	Light   math.Vec3
	Ambient float32
	// Background fills pixels no triangle covers.
	Background color.RGBA
	// Cursor, when set, marks the proxy.
	Cursor *math.Vec3
}

// DefaultOptions returns a 512px, 2x supersampled view.
func DefaultOptions() Options {
	return Options{
		Size:        512,
		Supersample: 2,
		Margin:      0.06,
		Light:       math.V3(0, -0.4, 1),
		Ambient:     0.2,
		Background:  color.RGBA{R: 24, G: 24, B: 30, A: 255},
	}
}

// ItemsFromSnapshot turns the meshes of a snapshot into drawable items.
func ItemsFromSnapshot(s *session.Snapshot) []Item {
	if s == nil {
		return nil
	}
	items := make([]Item, len(s.Meshes))
	for i, mv := range s.Meshes {
		items[i] = Item{
			Positions: mv.Positions,
			Normals:   mv.Normals,
			Colors:    mv.Colors,
			Triangles: mv.Triangles,
			Transform: mv.Transform,
		}
	}
	return items
}

// Render draws items and returns a Size x Size image.
func Render(items []Item, opts Options) *image.NRGBA {
	if opts.Size <= 0 {
		opts.Size = DefaultOptions().Size
	}
	if opts.Supersample <= 0 {
		opts.Supersample = 1
	}
	light := opts.Light.Normalize()

	renderSize := opts.Size * opts.Supersample
	fb := newFrameBuffer(renderSize, renderSize, opts.Background)

	world := make([][]math.Vec3, len(items))
	var box mesh.Bounds
	seen := false
	grow := func(p math.Vec3) {
		if !seen {
			box, seen = mesh.Bounds{Min: p, Max: p}, true
			return
		}
		box = box.Extend(p)
	}
	for i, it := range items {
		world[i] = make([]math.Vec3, len(it.Positions))
		for j, p := range it.Positions {
			w := it.Transform.TransformVec3(p)
			world[i][j] = w
			grow(w)
		}
	}
	if opts.Cursor != nil {
		grow(*opts.Cursor)
	}

	view := newViewport(box, renderSize, opts.Margin)

	for i, it := range items {
		shaded := shadeVertices(it, light, opts.Ambient)
		for _, tri := range it.Triangles {
			var sv [3]screenVertex
			ok := true
			for k, vi := range tri {
				if vi < 0 || vi >= len(world[i]) {
					ok = false
					break
				}
				sv[k] = view.project(world[i][vi], shaded[vi])
			}
			if ok {
				fb.triangle(sv)
			}
		}
	}

	if opts.Cursor != nil {
		c := view.project(*opts.Cursor, math.V3(1, 1, 1))
		fb.marker(c.x, c.y, max(2, opts.Supersample*3), color.RGBA{R: 255, G: 220, B: 40, A: 255})
	}

	return downsample(fb.img, opts.Size)
}

// shadeVertices returns the lit color of every vertex. Lighting is two
// sided so inverted windings still read.
func shadeVertices(it Item, light math.Vec3, ambient float32) []math.Vec3 {
	out := make([]math.Vec3, len(it.Positions))
	for i := range out {
		c := math.V3(0.8, 0.8, 0.8)
		if i < len(it.Colors) {
			c = it.Colors[i]
		}
		lambert := float32(1)
		if i < len(it.Normals) {
			n := it.Transform.TransformDirection(it.Normals[i]).Normalize()
			if n != (math.Vec3{}) {
				lambert = math32.Abs(n.Dot(light))
			}
		}
		out[i] = c.Scale(ambient + (1-ambient)*lambert)
	}
	return out
}

// downsample scales img to size x size with CatmullRom filtering. The
// frame buffer is premultiplied already, so no alpha fix-up is needed
// before the final conversion.
func downsample(img *image.RGBA, size int) *image.NRGBA {
	src := image.Image(img)
	if img.Bounds().Dx() != size {
		dst := image.NewRGBA(image.Rect(0, 0, size, size))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
		src = dst
	}
	out := image.NewNRGBA(image.Rect(0, 0, size, size))
	draw.Draw(out, out.Bounds(), src, image.Point{}, draw.Src)
	return out
}
