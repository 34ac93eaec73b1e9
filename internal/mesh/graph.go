package mesh

import "slices"

// Graph is the undirected vertex adjacency of a triangle mesh.
// It is built once and never changes afterwards.
type Graph struct {
	adj   [][]int // sorted, duplicate-free neighbor lists
	edges int
}

// BuildGraph links the three edges of every triangle in both directions.
// Repeated edges collapse into one and degenerate edges (a, a) are skipped,
// so the graph never has self-loops.
func BuildGraph(vertexCount int, triangles [][3]int) (*Graph, error) {
	sets := make([]map[int]struct{}, vertexCount)

	link := func(a, b int) {
		if a == b {
			return
		}
		if sets[a] == nil {
			sets[a] = make(map[int]struct{}, 6)
		}
		sets[a][b] = struct{}{}
	}

	for ti, tri := range triangles {
		for _, v := range tri {
			if v < 0 || v >= vertexCount {
				return nil, &TopologyError{Triangle: ti, Vertex: v, VertexCount: vertexCount}
			}
		}
		for k := 0; k < 3; k++ {
			a, b := tri[k], tri[(k+1)%3]
			link(a, b)
			link(b, a)
		}
	}

	g := &Graph{adj: make([][]int, vertexCount)}
	for v, set := range sets {
		if len(set) == 0 {
			continue
		}
		list := make([]int, 0, len(set))
		for n := range set {
			list = append(list, n)
		}
		slices.Sort(list)
		g.adj[v] = list
		g.edges += len(list)
	}
	g.edges /= 2

	return g, nil
}

// Len returns the number of vertices in the graph.
func (g *Graph) Len() int {
	return len(g.adj)
}

// EdgeCount returns the number of undirected edges.
func (g *Graph) EdgeCount() int {
	return g.edges
}

// Neighbors returns a copy of the neighbors of v in ascending order.
// Isolated and out-of-range vertices have no neighbors.
func (g *Graph) Neighbors(v int) []int {
	if v < 0 || v >= len(g.adj) {
		return nil
	}
	return slices.Clone(g.adj[v])
}

// Degree returns the number of neighbors of v.
func (g *Graph) Degree(v int) int {
	if v < 0 || v >= len(g.adj) {
		return 0
	}
	return len(g.adj[v])
}

// Contains reports whether a and b share an edge.
func (g *Graph) Contains(a, b int) bool {
	if a < 0 || a >= len(g.adj) {
		return false
	}
	_, found := slices.BinarySearch(g.adj[a], b)
	return found
}
