// Copyright © 2024 Wei Shen <shenwei356@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package gwfa

import (
	"fmt"
	"io"

	"github.com/emirpasic/gods/stacks/arraystack"
	"github.com/pkg/errors"
)

// Edge connects the end of vertex From to the position Overlap of vertex To.
type Edge struct {
	From, To int
	Overlap  int
}

// Vertex is a vertex of a sequence graph.
// Vertices of synthetic sources and sinks may have empty sequences.
type Vertex struct {
	Name string
	Seq  []byte
	In   []Edge
	Out  []Edge
}

// Graph is a directed acyclic sequence graph.
// The aligner only reads it, so a Graph can be shared by many aligners.
type Graph struct {
	Vertices []Vertex

	name2id   map[string]int
	validated bool
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{name2id: make(map[string]int)}
}

// NewChainGraph creates a linear graph, with one vertex for each sequence.
func NewChainGraph(seqs ...string) *Graph {
	g := NewGraph()
	for i, s := range seqs {
		g.AddVertex(fmt.Sprintf("%d", i), []byte(s))
		if i > 0 {
			g.AddEdge(i-1, i, 0)
		}
	}
	return g
}

// AddVertex adds a vertex and returns its ID.
// If the name exists, the sequence of the existing vertex is replaced.
func (g *Graph) AddVertex(name string, seq []byte) int {
	g.validated = false
	if g.name2id == nil {
		g.name2id = make(map[string]int)
	}
	if id, ok := g.name2id[name]; ok && name != "" {
		g.Vertices[id].Seq = seq
		return id
	}
	g.Vertices = append(g.Vertices, Vertex{Name: name, Seq: seq})
	id := len(g.Vertices) - 1
	if name != "" {
		g.name2id[name] = id
	}
	return id
}

// VertexID returns the ID of a vertex name.
func (g *Graph) VertexID(name string) (int, bool) {
	id, ok := g.name2id[name]
	return id, ok
}

// AddEdge adds an edge.
func (g *Graph) AddEdge(from, to, overlap int) error {
	if from < 0 || from >= len(g.Vertices) || to < 0 || to >= len(g.Vertices) {
		return errors.Wrapf(ErrBadVertex, "edge %d -> %d", from, to)
	}
	if overlap < 0 {
		return errors.Wrapf(ErrBadEdge, "negative overlap %d of edge %d -> %d", overlap, from, to)
	}
	g.validated = false
	e := Edge{From: from, To: to, Overlap: overlap}
	g.Vertices[from].Out = append(g.Vertices[from].Out, e)
	g.Vertices[to].In = append(g.Vertices[to].In, e)
	return nil
}

// NumVertices returns the number of vertices.
func (g *Graph) NumVertices() int { return len(g.Vertices) }

// TotalLength returns the sum of the lengths of all vertex sequences.
func (g *Graph) TotalLength() (n int) {
	for i := range g.Vertices {
		n += len(g.Vertices[i].Seq)
	}
	return n
}

// Validate checks the vertex IDs and overlaps of edges, and that the graph is acyclic.
func (g *Graph) Validate() error {
	if g.validated {
		return nil
	}
	n := len(g.Vertices)
	for v := range g.Vertices {
		for _, e := range g.Vertices[v].Out {
			if e.From != v || e.To < 0 || e.To >= n {
				return errors.Wrapf(ErrBadEdge, "edge %d -> %d in vertex %d", e.From, e.To, v)
			}
			if e.Overlap > len(g.Vertices[e.From].Seq) || e.Overlap > len(g.Vertices[e.To].Seq) {
				return errors.Wrapf(ErrBadEdge, "overlap %d of edge %d -> %d longer than the sequences",
					e.Overlap, e.From, e.To)
			}
		}
	}

	// iterative DFS, a grey vertex seen again means a cycle.
	const (
		white uint8 = iota
		grey
		black
	)
	color := make([]uint8, n)
	next := make([]int, n) // index of the next out edge to visit
	stack := arraystack.New()
	for root := 0; root < n; root++ {
		if color[root] != white {
			continue
		}
		color[root] = grey
		stack.Push(root)
		for !stack.Empty() {
			top, _ := stack.Peek()
			v := top.(int)
			out := g.Vertices[v].Out
			if next[v] == len(out) {
				color[v] = black
				stack.Pop()
				continue
			}
			w := out[next[v]].To
			next[v]++
			switch color[w] {
			case grey:
				return errors.Wrapf(ErrCyclicGraph, "edge %d -> %d closes a cycle", v, w)
			case white:
				color[w] = grey
				stack.Push(w)
			}
		}
	}

	g.validated = true
	return nil
}

// reachers marks the vertices from which vertex end can be reached.
// A negative end stands for any sink, which every vertex of a DAG reaches.
func (g *Graph) reachers(end int, mark []bool) []bool {
	if cap(mark) < len(g.Vertices) {
		mark = make([]bool, len(g.Vertices))
	} else {
		mark = mark[:len(g.Vertices)]
		clear(mark)
	}
	if end < 0 {
		for i := range mark {
			mark[i] = true
		}
		return mark
	}
	stack := arraystack.New()
	mark[end] = true
	stack.Push(end)
	for !stack.Empty() {
		top, _ := stack.Pop()
		for _, e := range g.Vertices[top.(int)].In {
			if !mark[e.From] {
				mark[e.From] = true
				stack.Push(e.From)
			}
		}
	}
	return mark
}

// WriteDOT writes the graph in Graphviz DOT format.
func (g *Graph) WriteDOT(wtr io.Writer) {
	fmt.Fprintln(wtr, "digraph G {")
	for v := range g.Vertices {
		fmt.Fprintf(wtr, "  %d [label=\"%s\"]\n", v, g.Vertices[v].Seq)
	}
	for v := range g.Vertices {
		for _, e := range g.Vertices[v].Out {
			if e.Overlap > 0 {
				fmt.Fprintf(wtr, "  %d -> %d [label=\"%d\"]\n", e.From, e.To, e.Overlap)
			} else {
				fmt.Fprintf(wtr, "  %d -> %d\n", e.From, e.To)
			}
		}
	}
	fmt.Fprintln(wtr, "}")
}
