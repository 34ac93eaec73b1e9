// meshtool is a CLI utility for inspecting and editing OBJ meshes.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/Faultbox/tangible/internal/deform"
	"github.com/Faultbox/tangible/internal/mesh"
	"github.com/Faultbox/tangible/internal/preview"
	"github.com/Faultbox/tangible/internal/scene"
	"github.com/Faultbox/tangible/pkg/formats"
	"github.com/Faultbox/tangible/pkg/math"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "neighbors", "nb":
		cmdNeighbors(args)
	case "nearest":
		cmdNearest(args)
	case "deform":
		cmdDeform(args)
	case "render":
		cmdRender(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`meshtool - OBJ mesh utility

Usage:
  meshtool <command> [options]

Commands:
  info <file.obj>                        Show counts, bounds and friction histogram
  neighbors <file.obj> <vertex>...       List one-hop neighbors
  nearest [-raw] <file.obj> <x> <y> <z>  Find the vertex closest to a point
  deform [-o out.obj] <file.obj> <vertex> <x> <y> <z>
                                         Pull a vertex to a point, write the result
  render [-o out.webp] [-size N] <file.obj>
                                         Render a preview image

Coordinates are in unitized mesh space unless -raw is given.

Examples:
  meshtool info bunny.obj
  meshtool neighbors bunny.obj 0 17
  meshtool nearest bunny.obj 0 1 0
  meshtool deform -o pulled.obj bunny.obj 42 0 1.2 0
  meshtool render -o bunny.webp bunny.obj`)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func loadMesh(path string) *mesh.Mesh {
	m, err := scene.LoadMesh(path)
	if err != nil {
		fail(err)
	}
	return m
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshtool info <file.obj>")
		os.Exit(1)
	}

	obj, err := formats.LoadOBJ(args[0])
	if err != nil {
		fail(err)
	}
	m := loadMesh(args[0])
	g := m.Graph()

	fmt.Printf("File: %s\n", args[0])
	fmt.Printf("Vertices: %d\n", m.VertexCount())
	fmt.Printf("Triangles: %d\n", m.TriangleCount())
	fmt.Printf("Edges: %d\n", g.EdgeCount())

	raw := mesh.BoundsOf(obj.Raw)
	fmt.Printf("Raw bounds: (%g, %g, %g) - (%g, %g, %g)\n",
		raw.Min.X, raw.Min.Y, raw.Min.Z, raw.Max.X, raw.Max.Y, raw.Max.Z)
	b := m.Bounds()
	fmt.Printf("Unitized bounds: (%g, %g, %g) - (%g, %g, %g)\n",
		b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)

	// Degree distribution
	minDeg, maxDeg, isolated := -1, 0, 0
	total := 0
	for v := 0; v < g.Len(); v++ {
		d := g.Degree(v)
		total += d
		if d == 0 {
			isolated++
		}
		if minDeg < 0 || d < minDeg {
			minDeg = d
		}
		maxDeg = max(maxDeg, d)
	}
	avg := 0.0
	if g.Len() > 0 {
		avg = float64(total) / float64(g.Len())
	}
	fmt.Printf("Degree: min %d, max %d, avg %.2f, isolated %d\n", minDeg, maxDeg, avg, isolated)

	hist := make(map[float32]int)
	for _, f := range m.Frictions() {
		hist[f]++
	}
	levels := make([]float32, 0, len(hist))
	for f := range hist {
		levels = append(levels, f)
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] > levels[j] })

	fmt.Println("\nFriction:")
	for _, f := range levels {
		pct := float64(hist[f]) * 100 / float64(m.VertexCount())
		fmt.Printf("  %.1f  %8d  (%5.1f%%)\n", f, hist[f], pct)
	}
}

func cmdNeighbors(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: meshtool neighbors <file.obj> <vertex>...")
		os.Exit(1)
	}

	m := loadMesh(args[0])
	for _, a := range args[1:] {
		v, err := strconv.Atoi(a)
		if err != nil {
			fail(fmt.Errorf("vertex %q: %w", a, err))
		}
		if v < 0 || v >= m.VertexCount() {
			fail(fmt.Errorf("%w: %d of %d", mesh.ErrVertexOutOfRange, v, m.VertexCount()))
		}
		nb := m.Neighbors(v)
		fmt.Printf("%d (%d): %v\n", v, len(nb), nb)
	}
}

func parsePoint(args []string) (math.Vec3, error) {
	var c [3]float32
	for i := range c {
		f, err := strconv.ParseFloat(args[i], 32)
		if err != nil {
			return math.Vec3{}, fmt.Errorf("coordinate %q: %w", args[i], err)
		}
		c[i] = float32(f)
	}
	return math.FromArray(c), nil
}

func cmdNearest(args []string) {
	fs := flag.NewFlagSet("nearest", flag.ExitOnError)
	raw := fs.Bool("raw", false, "query in file coordinates")
	fs.Parse(args)

	if fs.NArg() < 4 {
		fmt.Fprintln(os.Stderr, "Usage: meshtool nearest [-raw] <file.obj> <x> <y> <z>")
		os.Exit(1)
	}

	q, err := parsePoint(fs.Args()[1:4])
	if err != nil {
		fail(err)
	}

	path := fs.Arg(0)
	m := loadMesh(path)
	if *raw {
		obj, err := formats.LoadOBJ(path)
		if err != nil {
			fail(err)
		}
		rm, err := mesh.Load(mesh.Source{Positions: obj.Raw, Triangles: obj.Triangles})
		if err != nil {
			fail(err)
		}
		m = rm
	}

	v, err := m.Nearest(q)
	if err != nil {
		fail(err)
	}
	p := m.VertexPosition(v)
	fmt.Printf("Vertex %d at (%g, %g, %g), distance %g, friction %.1f\n",
		v, p.X, p.Y, p.Z, p.Distance(q), m.Friction(v))
}

func cmdDeform(args []string) {
	fs := flag.NewFlagSet("deform", flag.ExitOnError)
	output := fs.String("o", "", "output OBJ (default <name>.deformed.obj)")
	fs.Parse(args)

	if fs.NArg() < 5 {
		fmt.Fprintln(os.Stderr, "Usage: meshtool deform [-o out.obj] <file.obj> <vertex> <x> <y> <z>")
		os.Exit(1)
	}

	path := fs.Arg(0)
	v, err := strconv.Atoi(fs.Arg(1))
	if err != nil {
		fail(fmt.Errorf("vertex %q: %w", fs.Arg(1), err))
	}
	target, err := parsePoint(fs.Args()[2:5])
	if err != nil {
		fail(err)
	}

	m := loadMesh(path)
	if v < 0 || v >= m.VertexCount() {
		fail(fmt.Errorf("%w: %d of %d", mesh.ErrVertexOutOfRange, v, m.VertexCount()))
	}
	d, err := deform.Deform(m, v, target, m.Neighbors(v))
	if err != nil {
		fail(err)
	}
	m.RecomputeNormals()

	out := *output
	if out == "" {
		base := filepath.Base(path)
		out = base[:len(base)-len(filepath.Ext(base))] + ".deformed.obj"
	}
	f, err := os.Create(out)
	if err != nil {
		fail(err)
	}
	if err := formats.WriteOBJ(f, m.Positions(), m.Normals(), m.Triangles()); err != nil {
		f.Close()
		fail(err)
	}
	if err := f.Close(); err != nil {
		fail(err)
	}

	fmt.Printf("Moved vertex %d by (%g, %g, %g) and %d neighbors by half\n",
		v, d.X, d.Y, d.Z, len(m.Neighbors(v)))
	fmt.Printf("Wrote %s\n", out)
}

func cmdRender(args []string) {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	output := fs.String("o", "", "output image, .webp or .png (default <name>.webp)")
	size := fs.Int("size", preview.DefaultOptions().Size, "image size in pixels")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshtool render [-o out.webp] [-size N] <file.obj>")
		os.Exit(1)
	}

	path := fs.Arg(0)
	m := loadMesh(path)

	opts := preview.DefaultOptions()
	opts.Size = *size
	img := preview.Render([]preview.Item{{
		Positions: m.Positions(),
		Normals:   m.Normals(),
		Colors:    m.Colors(),
		Triangles: m.Triangles(),
		Transform: math.Identity(),
	}}, opts)

	out := *output
	if out == "" {
		base := filepath.Base(path)
		out = base[:len(base)-len(filepath.Ext(base))] + ".webp"
	}
	if err := preview.WriteFile(out, img); err != nil {
		fail(err)
	}
	fmt.Printf("Wrote %s (%dx%d)\n", out, opts.Size, opts.Size)
}
