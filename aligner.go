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
	"io"

	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
)

// Options contains the options of an Aligner.
type Options struct {
	// ScoreOnly only computes the score. Wavefronts leaving the Scope are
	// dropped, and the Alignment has no operations or path.
	ScoreOnly bool

	// MaxScore is the score ceiling, an alignment with a higher score
	// returns ErrUnreachable. 0 for the cost of deleting all vertex
	// sequences and inserting the whole query.
	MaxScore int

	// scopeSize overrides the number of scores kept in the Scope.
	scopeSize int
}

// DefaultOptions is the default option.
var DefaultOptions = Options{}

// cellKey is the key of the furthest cell of a diagonal.
type cellKey struct {
	kind   Kind
	vertex int32
	diag   int32
}

// Aligner is the object for aligning queries to a graph,
// which can be reused for multiple queries.
// An Aligner is not safe for concurrent use, but many aligners
// can share one graph.
type Aligner struct {
	p   *Penalties
	g   *Graph
	opt Options

	scope  *Scope
	beyond *BeyondScope // nil in score-only mode
	vd     *VerticesData

	reach []bool // vertices which can reach the end vertex

	// the current alignment
	q      []byte
	m      int32
	starts []Position // seed positions
	endV   int32      // end vertex, -1 for any sink
	endOff int32      // end offset in the end vertex
	score  int

	index map[cellKey]int32 // furthest cells of the current score
	queue []Ref             // cells to extend or jump

	found    bool
	terminal Ref

	ncells int // cells created in the current alignment
}

// NewAligner returns a new Aligner.
// nil penalties or options mean the default values.
func NewAligner(p *Penalties, g *Graph, opt *Options) (*Aligner, error) {
	if p == nil {
		p = &DefaultPenalties
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if g == nil {
		return nil, errors.Wrap(ErrBadGraph, "nil graph")
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if opt == nil {
		opt = &DefaultOptions
	}

	w := p.ScopeSize()
	if opt.scopeSize > 0 {
		w = opt.scopeSize
	}

	algn := &Aligner{
		p:     p,
		g:     g,
		opt:   *opt,
		scope: NewScope(w),
		vd:    NewVerticesData(g.NumVertices(), p),
		index:  make(map[cellKey]int32, 1024),
		queue:  make([]Ref, 0, 1024),
		starts: make([]Position, 0, 8),
	}
	if !opt.ScoreOnly {
		algn.beyond = NewBeyondScope()
	}
	return algn, nil
}

// Penalties returns the penalties.
func (algn *Aligner) Penalties() *Penalties { return algn.p }

// Graph returns the graph.
func (algn *Aligner) Graph() *Graph { return algn.g }

// NumCells returns the number of cells created in the last alignment.
func (algn *Aligner) NumCells() int { return algn.ncells }

// Align aligns a query to the whole graph: from the start of any source
// (a vertex without in edges) to the end of any sink (a vertex without out edges).
func (algn *Aligner) Align(q []byte) (*Alignment, error) {
	g := algn.g
	if g.NumVertices() == 0 {
		return nil, errors.Wrap(ErrBadGraph, "empty graph")
	}
	if err := algn.prepare(); err != nil {
		return nil, err
	}

	algn.starts = algn.starts[:0]
	for v := range g.Vertices {
		if len(g.Vertices[v].In) == 0 {
			algn.starts = append(algn.starts, Position{Vertex: v})
		}
	}
	algn.endV, algn.endOff = -1, 0
	algn.reach = g.reachers(-1, algn.reach)

	return algn.align(q)
}

// AlignFrom aligns a query from the start position to the end position.
// The returned Alignment can be recycled with RecycleAlignment.
func (algn *Aligner) AlignFrom(q []byte, start, end Position) (*Alignment, error) {
	if err := algn.prepare(start, end); err != nil {
		return nil, err
	}

	algn.reach = algn.g.reachers(end.Vertex, algn.reach)
	if !algn.reach[start.Vertex] || (start.Vertex == end.Vertex && start.Offset > end.Offset) {
		return nil, errors.Wrapf(ErrUnreachable, "%d:%d can not reach %d:%d",
			start.Vertex, start.Offset, end.Vertex, end.Offset)
	}

	algn.starts = append(algn.starts[:0], start)
	algn.endV, algn.endOff = int32(end.Vertex), int32(end.Offset)

	return algn.align(q)
}

// AlignFromStart aligns a query from the start position to the end of any sink.
func (algn *Aligner) AlignFromStart(q []byte, start Position) (*Alignment, error) {
	if err := algn.prepare(start); err != nil {
		return nil, err
	}

	algn.starts = append(algn.starts[:0], start)
	algn.endV, algn.endOff = -1, 0
	algn.reach = algn.g.reachers(-1, algn.reach)

	return algn.align(q)
}

// prepare checks the graph and positions, and resizes the vertex data
// if the graph has grown.
func (algn *Aligner) prepare(positions ...Position) error {
	g := algn.g
	if err := g.Validate(); err != nil {
		return err
	}
	for _, pos := range positions {
		if err := algn.checkPosition(pos); err != nil {
			return err
		}
	}
	if len(algn.vd.slots) != g.NumVertices() {
		algn.vd = NewVerticesData(g.NumVertices(), algn.p)
	}
	return nil
}

// align runs the alignment with the seeds and end set.
func (algn *Aligner) align(q []byte) (result *Alignment, err error) {
	// broken invariants in the hot loop panic with ErrOutOfBounds.
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(error)
			if !ok || !errors.Is(e, ErrOutOfBounds) {
				panic(r)
			}
			result, err = nil, e
		}
	}()

	algn.reset(q)
	if err = algn.run(); err != nil {
		return nil, err
	}

	result = NewAlignment()
	result.Score = algn.score
	t := algn.cell(algn.terminal)
	result.End = Position{Vertex: int(t.Vertex), Offset: int(algn.vlen(t.Vertex))}
	if len(algn.starts) == 1 {
		result.Start = algn.starts[0]
	} else {
		result.Start = Position{Vertex: -1}
	}
	if !algn.opt.ScoreOnly {
		algn.backtrace(result)
	}
	result.process()

	klog.V(2).Infof("query of %d bp aligned with score %d, %d cells, path of %d vertices",
		len(q), result.Score, algn.ncells, len(result.Path))
	return result, nil
}

func (algn *Aligner) checkPosition(pos Position) error {
	if pos.Vertex < 0 || pos.Vertex >= algn.g.NumVertices() {
		return errors.Wrapf(ErrBadPosition, "vertex %d of %d", pos.Vertex, algn.g.NumVertices())
	}
	if pos.Offset < 0 || pos.Offset > len(algn.g.Vertices[pos.Vertex].Seq) {
		return errors.Wrapf(ErrBadPosition, "offset %d in vertex %d of %d bp",
			pos.Offset, pos.Vertex, len(algn.g.Vertices[pos.Vertex].Seq))
	}
	return nil
}

// reset resets the internal data before alignment.
func (algn *Aligner) reset(q []byte) {
	algn.q = q
	algn.m = int32(len(q))
	algn.score = 0
	algn.found = false
	algn.terminal = noRef
	algn.ncells = 0
	algn.queue = algn.queue[:0]
	clear(algn.index)

	algn.scope.NewAlignment()
	if algn.beyond != nil {
		algn.beyond.NewAlignment()
	}
	algn.vd.NewAlignment()
}

// ceiling returns the maximum score to explore.
func (algn *Aligner) ceiling() int {
	if algn.opt.MaxScore > 0 {
		return algn.opt.MaxScore
	}
	return algn.p.gapCost(len(algn.q)) + algn.p.gapCost(algn.g.TotalLength())
}

// run computes wavefronts score by score until the end position is reached.
func (algn *Aligner) run() error {
	w := algn.scope.Size()
	ceiling := algn.ceiling()
	var lastSeen int // the last score with cells

	for s := 0; ; s++ {
		if s > ceiling {
			return errors.Wrapf(ErrUnreachable, "score ceiling %d exceeded", ceiling)
		}

		// the slot of score s-w is reused.
		if algn.beyond != nil && s >= w {
			for k := Kind(0); k < numKinds; k++ {
				algn.beyond.Store(k, s-w, algn.scope.Wave(k, s-w).Cells())
			}
		}
		algn.scope.NewScore()
		if algn.beyond != nil {
			algn.beyond.NewScore()
		}
		algn.vd.NewScore()

		algn.score = s
		clear(algn.index)
		n := algn.ncells

		if s == 0 {
			algn.seed()
		} else {
			algn.next(s)
		}
		if algn.found {
			return nil
		}

		if algn.ncells > n {
			lastSeen = s
		} else if s-lastSeen >= w {
			return errors.Wrapf(ErrUnreachable, "no cells in the last %d scores", w)
		}
	}
}

// cell returns the cell of a reference, from the Scope or the BeyondScope.
func (algn *Aligner) cell(ref Ref) *Cell {
	s := int(ref.Score)
	if algn.scope.Contains(s) {
		return algn.scope.Wave(ref.Kind, s).At(ref.Index)
	}
	if algn.beyond == nil {
		panic(errors.Wrapf(ErrOutOfBounds, "score %d dropped in score-only mode", s))
	}
	return &algn.beyond.Wave(ref.Kind, s)[ref.Index]
}

// PrintWavefronts lists the wavefronts in the Scope, for debugging.
func (algn *Aligner) PrintWavefronts(wtr io.Writer) {
	algn.scope.Print(wtr)
}
