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

// Package poa builds multiple sequence alignments by partial order alignment.
//
// A Graph holds one node per aligned base. Sequences are aligned one by one
// to the compacted form of the graph, where unbranched runs of nodes are
// merged into vertices of a gwfa.Graph, and each alignment is folded back:
// matches reuse nodes, mismatches use or create a node aligned to the
// graph base, and insertions add new nodes.
package poa

import (
	"strconv"

	"github.com/emirpasic/gods/stacks/arraystack"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
	"github.com/shenwei356/gwfa"
)

// ErrEmptySequence means the first sequence of a Graph is empty.
var ErrEmptySequence = errors.New("poa: empty sequence")

// ErrBadAlignment means an alignment does not fit the sequence or the compacted graph.
var ErrBadAlignment = errors.New("poa: alignment not against the compacted graph")

type node struct {
	base    byte
	aligned []int // nodes of other bases in the same column
	in, out []int // edge IDs
}

type edge struct {
	from, to int
	weight   int
	seqs     []int // IDs of sequences through the edge
}

// Graph is a partial order graph of aligned sequences.
type Graph struct {
	nodes []node
	edges []edge
	paths [][]int // nodes of each sequence

	// the compacted graph and, for each of its vertices, the nodes of its bases.
	compact *gwfa.Graph
	members [][]int
}

// New creates a Graph from the first sequence.
func New(seq []byte) (*Graph, error) {
	if len(seq) == 0 {
		return nil, ErrEmptySequence
	}
	g := &Graph{
		nodes: make([]node, 0, len(seq)<<1),
		edges: make([]edge, 0, len(seq)<<1),
	}
	path := make([]int, len(seq))
	for i, b := range seq {
		path[i] = g.addNode(b)
		if i > 0 {
			g.addEdge(path[i-1], path[i], 0)
		}
	}
	g.paths = append(g.paths, path)
	return g, nil
}

// NumSequences returns the number of sequences in the graph.
func (g *Graph) NumSequences() int { return len(g.paths) }

// NumNodes returns the number of nodes, one per base.
func (g *Graph) NumNodes() int { return len(g.nodes) }

func (g *Graph) addNode(b byte) int {
	g.nodes = append(g.nodes, node{base: b})
	return len(g.nodes) - 1
}

// addEdge adds an edge or adds weight to an existing one.
func (g *Graph) addEdge(from, to, seqID int) {
	for _, e := range g.nodes[from].out {
		if g.edges[e].to == to {
			g.edges[e].weight++
			g.edges[e].seqs = append(g.edges[e].seqs, seqID)
			return
		}
	}
	id := len(g.edges)
	g.edges = append(g.edges, edge{from: from, to: to, weight: 1, seqs: []int{seqID}})
	g.nodes[from].out = append(g.nodes[from].out, id)
	g.nodes[to].in = append(g.nodes[to].in, id)
}

// alignedNode returns the node of base b in the column of node v,
// which is created if missing.
func (g *Graph) alignedNode(v int, b byte) int {
	if g.nodes[v].base == b {
		return v
	}
	for _, a := range g.nodes[v].aligned {
		if g.nodes[a].base == b {
			return a
		}
	}

	column := append([]int{v}, g.nodes[v].aligned...)
	w := g.addNode(b)
	for _, a := range column {
		g.nodes[a].aligned = append(g.nodes[a].aligned, w)
	}
	g.nodes[w].aligned = column
	return w
}

// order returns the nodes in topological order.
func (g *Graph) order() ([]int, error) {
	indeg := make([]int, len(g.nodes))
	stack := arraystack.New()
	for v := range g.nodes {
		indeg[v] = len(g.nodes[v].in)
		if indeg[v] == 0 {
			stack.Push(v)
		}
	}
	order := make([]int, 0, len(g.nodes))
	for !stack.Empty() {
		top, _ := stack.Pop()
		v := top.(int)
		order = append(order, v)
		out := g.nodes[v].out
		for i := len(out) - 1; i >= 0; i-- {
			w := g.edges[out[i]].to
			indeg[w]--
			if indeg[w] == 0 {
				stack.Push(w)
			}
		}
	}
	if len(order) != len(g.nodes) {
		return nil, errors.Wrapf(gwfa.ErrCyclicGraph, "%d of %d nodes in order", len(order), len(g.nodes))
	}
	return order, nil
}

// Compact returns the compacted graph, where each unbranched run of nodes
// becomes a vertex. Sequences passed to Add must be aligned to it.
// The graph is cached till the next Add.
func (g *Graph) Compact() (*gwfa.Graph, error) {
	if g.compact != nil {
		return g.compact, nil
	}
	order, err := g.order()
	if err != nil {
		return nil, err
	}

	vertexOf := make([]int, len(g.nodes))
	members := make([][]int, 0, 64)
	for _, v := range order {
		if in := g.nodes[v].in; len(in) == 1 {
			p := g.edges[in[0]].from
			if len(g.nodes[p].out) == 1 { // v is the only successor of p
				c := vertexOf[p]
				members[c] = append(members[c], v)
				vertexOf[v] = c
				continue
			}
		}
		vertexOf[v] = len(members)
		members = append(members, []int{v})
	}

	cg := gwfa.NewGraph()
	for c, nodes := range members {
		seq := make([]byte, len(nodes))
		for i, v := range nodes {
			seq[i] = g.nodes[v].base
		}
		cg.AddVertex(vertexName(c), seq)
	}
	for c, nodes := range members {
		last := nodes[len(nodes)-1]
		for _, e := range g.nodes[last].out {
			if err = cg.AddEdge(c, vertexOf[g.edges[e].to], 0); err != nil {
				return nil, err
			}
		}
	}
	if err = cg.Validate(); err != nil {
		return nil, err
	}

	g.compact, g.members = cg, members
	klog.V(2).Infof("%d nodes compacted into %d vertices", len(g.nodes), len(members))
	return cg, nil
}

func vertexName(c int) string {
	return "v" + strconv.Itoa(c+1)
}

// Add folds a sequence into the graph, with its alignment to the
// compacted graph returned by the last Compact.
func (g *Graph) Add(seq []byte, algn *gwfa.Alignment) error {
	if g.compact == nil {
		return errors.Wrap(ErrBadAlignment, "graph changed since the last compaction")
	}
	if len(algn.Path) == 0 {
		return errors.Wrap(ErrBadAlignment, "alignment without path")
	}

	// nodes of the graph bases in the alignment
	cols := make([]int, 0, len(seq)+8)
	last := len(algn.Path) - 1
	for k, v := range algn.Path {
		if v < 0 || v >= len(g.members) {
			return errors.Wrapf(ErrBadAlignment, "vertex %d of %d", v, len(g.members))
		}
		from, to := algn.PathOffsets[k], len(g.members[v])
		if k == last {
			to = algn.End.Offset
		}
		if from < 0 || from > to || to > len(g.members[v]) {
			return errors.Wrapf(ErrBadAlignment, "range %d-%d of vertex %d", from, to, v)
		}
		cols = append(cols, g.members[v][from:to]...)
	}

	if err := g.check(seq, cols, algn.Ops); err != nil {
		return err
	}

	id := len(g.paths)
	path := make([]int, 0, len(seq))
	var i, j int
	for _, op := range algn.Ops {
		for n := uint32(0); n < op.N; n++ {
			var u int
			switch op.Op {
			case 'M':
				u = cols[j]
				i++
				j++
			case 'X':
				u = g.alignedNode(cols[j], seq[i])
				i++
				j++
			case 'I':
				u = g.addNode(seq[i])
				i++
			case 'D':
				j++
				continue
			}
			if len(path) > 0 {
				g.addEdge(path[len(path)-1], u, id)
			}
			path = append(path, u)
		}
	}

	g.paths = append(g.paths, path)
	g.compact, g.members = nil, nil
	return nil
}

// check checks the operations against the sequence and the nodes of the
// graph bases, before any change to the graph.
func (g *Graph) check(seq []byte, cols []int, ops []*gwfa.CIGARRecord) error {
	var i, j int
	for _, op := range ops {
		for n := uint32(0); n < op.N; n++ {
			if (op.Op != 'D' && i >= len(seq)) || (op.Op != 'I' && j >= len(cols)) {
				return errors.Wrap(ErrBadAlignment, "operations longer than the sequence or path")
			}
			switch op.Op {
			case 'M':
				if b := g.nodes[cols[j]].base; b != seq[i] {
					return errors.Wrapf(ErrBadAlignment, "match of %c and %c", seq[i], b)
				}
				i++
				j++
			case 'X':
				i++
				j++
			case 'I':
				i++
			case 'D':
				j++
			default:
				return errors.Wrapf(ErrBadAlignment, "unknown operation %c", op.Op)
			}
		}
	}
	if i != len(seq) || j != len(cols) {
		return errors.Wrapf(ErrBadAlignment, "%d of %d bases and %d of %d graph bases aligned",
			i, len(seq), j, len(cols))
	}
	return nil
}

// Fold aligns a sequence to the graph and adds it.
func (g *Graph) Fold(p *gwfa.Penalties, seq []byte) (*gwfa.Alignment, error) {
	cg, err := g.Compact()
	if err != nil {
		return nil, err
	}
	aligner, err := gwfa.NewAligner(p, cg, nil)
	if err != nil {
		return nil, err
	}
	algn, err := aligner.Align(seq)
	if err != nil {
		return nil, err
	}
	if err = g.Add(seq, algn); err != nil {
		gwfa.RecycleAlignment(algn)
		return nil, err
	}
	return algn, nil
}

// Build builds a Graph from sequences, aligned and added in order.
func Build(p *gwfa.Penalties, seqs ...[]byte) (*Graph, error) {
	if len(seqs) == 0 {
		return nil, ErrEmptySequence
	}
	g, err := New(seqs[0])
	if err != nil {
		return nil, err
	}
	for k, seq := range seqs[1:] {
		algn, err := g.Fold(p, seq)
		if err != nil {
			return nil, errors.Wrapf(err, "sequence %d", k+2)
		}
		gwfa.RecycleAlignment(algn)
	}
	return g, nil
}
