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

// isExit tells if cells at the end of a vertex leave it through edges.
func (algn *Aligner) isExit(v int32) bool {
	return v != algn.endV && len(algn.g.Vertices[v].Out) > 0
}

// isEnd tells if an alignment can end at vertex v.
func (algn *Aligner) isEnd(v int32) bool {
	if algn.endV >= 0 {
		return v == algn.endV
	}
	return len(algn.g.Vertices[v].Out) == 0
}

// vlen returns the length of the vertex sequence in use,
// the end vertex is cut at the end offset.
func (algn *Aligner) vlen(v int32) int32 {
	if v == algn.endV {
		return algn.endOff
	}
	return int32(len(algn.g.Vertices[v].Seq))
}

// seed adds the M cells of score 0 at the start positions.
func (algn *Aligner) seed() {
	for _, pos := range algn.starts {
		algn.add(KindM, Cell{
			Vertex:   int32(pos.Vertex),
			Diagonal: -int32(pos.Offset),
			From:     fromSeed,
			Prev:     noRef,
		})
	}
	algn.process()
}

// next refers to the WF_NEXT method: computes the wavefronts of score s
// from the ones of previous scores.
func (algn *Aligner) next(s int) {
	p := algn.p
	algn.gaps(s, KindI, p.GapOpen, p.GapExt)
	algn.gaps(s, KindD, p.GapOpen, p.GapExt)
	if p.Type == DualAffine {
		algn.gaps(s, KindI2, p.GapOpen2, p.GapExt2)
		algn.gaps(s, KindD2, p.GapOpen2, p.GapExt2)
	}
	// gap closes go first.
	algn.process()
	if algn.found {
		return
	}

	x := p.Mismatch
	if s < x {
		return
	}
	cells := algn.scope.Wave(KindM, s-x).Cells()
	for i := range cells {
		c := &cells[i]
		if c.dead || c.Offset >= algn.m || c.Pos() >= algn.vlen(c.Vertex) {
			continue
		}
		algn.add(KindM, Cell{
			Vertex:    c.Vertex,
			Diagonal:  c.Diagonal,
			Offset:    c.Offset + 1,
			Start:     c.Offset + 1,
			ScoreDiff: c.ScoreDiff + int32(x),
			From:      fromMismatch,
			Prev:      Ref{Kind: KindM, Score: int32(s - x), Index: int32(i)},
		})
	}
	algn.process()
}

// gaps adds gap cells of a kind at score s, extensions before opens.
func (algn *Aligner) gaps(s int, kind Kind, o, e int) {
	if s >= e {
		cells := algn.scope.Wave(kind, s-e).Cells()
		for i := range cells {
			if !cells[i].dead {
				algn.gap(kind, &cells[i], Ref{Kind: kind, Score: int32(s - e), Index: int32(i)}, fromExtend, e)
			}
		}
	}
	if s >= o+e {
		cells := algn.scope.Wave(KindM, s-o-e).Cells()
		for i := range cells {
			if !cells[i].dead {
				algn.gap(kind, &cells[i], Ref{Kind: KindM, Score: int32(s - o - e), Index: int32(i)}, fromOpen, o+e)
			}
		}
	}
}

// gap adds a gap cell of a kind next to cell c.
//
//	I: (i, j) -> (i+1, j), diagonal + 1
//	D: (i, j) -> (i, j+1), diagonal - 1
func (algn *Aligner) gap(kind Kind, c *Cell, prev Ref, from uint8, cost int) {
	n := algn.vlen(c.Vertex)
	j := c.Pos()
	cell := Cell{
		Vertex:    c.Vertex,
		ScoreDiff: c.ScoreDiff + int32(cost),
		From:      from,
		Prev:      prev,
	}
	if kind.isIns() {
		// insertions at the end of a vertex are made in its successors.
		if c.Offset >= algn.m || (j == n && algn.isExit(c.Vertex)) {
			return
		}
		cell.Diagonal = c.Diagonal + 1
		cell.Offset = c.Offset + 1
	} else {
		if j >= n {
			return
		}
		cell.Diagonal = c.Diagonal - 1
		cell.Offset = c.Offset
	}
	cell.Start = cell.Offset
	algn.add(kind, cell)
}

// add adds a cell of the current score, unless the same diagonal of the
// vertex has a further one, or it leaves the vertex on an invalid diagonal.
// A superseded cell is kept for backtrace but marked as dead.
func (algn *Aligner) add(kind Kind, c Cell) {
	v := c.Vertex
	if algn.isExit(v) && c.Pos() == algn.vlen(v) &&
		algn.vd.IsInvalid(v, kind, c.Diagonal) {
		return
	}

	wf := algn.scope.Wave(kind, algn.score)
	key := cellKey{kind: kind, vertex: v, diag: c.Diagonal}
	if i, ok := algn.index[key]; ok {
		old := wf.At(i)
		if c.Offset <= old.Offset {
			return
		}
		old.dead = true
	}

	i := wf.Add(c)
	algn.index[key] = i
	algn.ncells++
	algn.vd.Touch(v)
	algn.queue = append(algn.queue, Ref{Kind: kind, Score: int32(algn.score), Index: i})
}

// process handles queued cells in order: M cells are extended,
// gap cells are closed, and cells at the end of a vertex jump to successors.
func (algn *Aligner) process() {
	s := algn.score
	for h := 0; h < len(algn.queue); h++ {
		ref := algn.queue[h]
		wf := algn.scope.Wave(ref.Kind, s)
		c := wf.At(ref.Index)
		if c.dead {
			continue
		}
		n := algn.vlen(c.Vertex)

		if ref.Kind == KindM {
			algn.extend(c, algn.g.Vertices[c.Vertex].Seq[:n])
			if c.Offset == algn.m && c.Pos() == n && algn.isEnd(c.Vertex) {
				algn.found = true
				algn.terminal = ref
				break
			}
		} else {
			algn.add(KindM, Cell{
				Vertex:    c.Vertex,
				Diagonal:  c.Diagonal,
				Offset:    c.Offset,
				Start:     c.Offset,
				ScoreDiff: c.ScoreDiff,
				From:      fromGapClose,
				Prev:      ref,
			})
		}

		if c.Pos() == n && algn.isExit(c.Vertex) &&
			!algn.vd.IsInvalid(c.Vertex, ref.Kind, c.Diagonal) {
			algn.jump(ref, *c)
		}
	}
	algn.queue = algn.queue[:0]
}

// extend refers to the WF_EXTEND method, matches are extended for free
// till the end of the query or the vertex.
func (algn *Aligner) extend(c *Cell, seq []byte) {
	q := algn.q
	i, j := c.Offset, c.Pos()
	n := int32(len(seq))
	for i < algn.m && j < n && q[i] == seq[j] {
		i++
		j++
	}
	c.Offset = i
}

// jump moves a cell at the end of a vertex to the entries of its successors
// which can reach the end vertex, with the same kind and score.
// The exit diagonal is then invalid for later scores.
func (algn *Aligner) jump(ref Ref, c Cell) {
	for _, e := range algn.g.Vertices[c.Vertex].Out {
		if !algn.reach[e.To] || (int32(e.To) == algn.endV && int32(e.Overlap) > algn.endOff) {
			continue
		}
		algn.add(ref.Kind, Cell{
			Vertex:   int32(e.To),
			Diagonal: c.Offset - int32(e.Overlap),
			Offset:   c.Offset,
			Start:    c.Offset,
			From:     fromJump,
			Prev:     ref,
		})
	}
	algn.vd.Invalidate(c.Vertex, ref.Kind, c.Diagonal)
}
