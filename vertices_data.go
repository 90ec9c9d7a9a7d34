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
	"cmp"
	"slices"
)

// Segment is a closed range of diagonals.
type Segment struct {
	Start, End int32
}

// frozen marks a segment boundary which never grows.
const frozen int32 = -1

// InvalidData is a segment of invalid diagonals and the remaining scores
// before it grows one diagonal up or down.
type InvalidData struct {
	Seg     Segment
	RemUp   int32
	RemDown int32
}

// VerticesData tracks, for active vertices, the diagonals whose exits at the
// end of the vertex can not be part of an optimal path any more.
//
// When a cell of some kind leaves a vertex on diagonal k at score s, a later
// exit on the same diagonal is the same state with a higher score.
// Exits on diagonal k+d are dominated once the score reaches
// s + delay + (d-1)*e, because the first exit can reach the same state with
// insertions in the successors. So the segment grows up by one diagonal per
// gap extension. Lower boundaries do not grow.
type VerticesData struct {
	// vertex ID -> index of active vertex, -1 for inactive ones.
	slots  []int32
	active []vertexData
	free   []int32

	score int32
	ttl   int32 // scores a vertex stays active without cells

	delay  [numKinds]int32 // initial RemUp of new segments
	period [numKinds]int32 // RemUp after growing
}

type vertexData struct {
	vertex   int32
	lastSeen int32
	invalid  [numKinds][]InvalidData
}

// NewVerticesData creates a VerticesData for a graph of nvertices vertices.
func NewVerticesData(nvertices int, p *Penalties) *VerticesData {
	vd := &VerticesData{
		slots:  make([]int32, nvertices),
		active: make([]vertexData, 0, 1024),
		ttl:    int32(p.ScopeSize()),
	}
	for i := range vd.slots {
		vd.slots[i] = -1
	}

	o, e := int32(p.GapOpen), int32(p.GapExt)
	vd.delay[KindM], vd.period[KindM] = o+e, e
	vd.delay[KindI], vd.period[KindI] = e, e
	vd.delay[KindD], vd.period[KindD] = 2*o+e, e
	if p.Type == DualAffine {
		o2, e2 := int32(p.GapOpen2), int32(p.GapExt2)
		vd.delay[KindI2], vd.period[KindI2] = e2, e2
		vd.delay[KindD2], vd.period[KindD2] = o+e+o2, e
	}
	return vd
}

// NewAlignment deactivates all vertices.
func (vd *VerticesData) NewAlignment() {
	for i := range vd.active {
		if v := vd.active[i].vertex; v >= 0 {
			vd.slots[v] = -1
		}
	}
	vd.active = vd.active[:0]
	vd.free = vd.free[:0]
	vd.score = -1
}

// NewScore expands and compacts the invalid segments,
// and deactivates vertices without cells for a while.
func (vd *VerticesData) NewScore() {
	vd.score++
	for i := range vd.active {
		d := &vd.active[i]
		if d.vertex < 0 {
			continue
		}
		if vd.score-d.lastSeen > vd.ttl {
			vd.deactivate(int32(i))
			continue
		}
		for k := range d.invalid {
			if len(d.invalid[k]) == 0 {
				continue
			}
			d.invalid[k] = expand(d.invalid[k], vd.period[k], frozen)
			d.invalid[k] = compact(d.invalid[k])
		}
	}
}

// Touch marks a vertex as having cells at the current score.
func (vd *VerticesData) Touch(v int32) {
	vd.data(v).lastSeen = vd.score
}

// NumActive returns the number of active vertices.
func (vd *VerticesData) NumActive() int {
	return len(vd.active) - len(vd.free)
}

// Invalidate marks the diagonal of a kind in a vertex as invalid.
func (vd *VerticesData) Invalidate(v int32, kind Kind, diag int32) {
	d := vd.data(v)
	d.invalid[kind] = append(d.invalid[kind], InvalidData{
		Seg:     Segment{Start: diag, End: diag},
		RemUp:   vd.delay[kind],
		RemDown: frozen,
	})
}

// IsInvalid tells if the diagonal of a kind in a vertex is invalid.
func (vd *VerticesData) IsInvalid(v int32, kind Kind, diag int32) bool {
	i := vd.slots[v]
	if i < 0 {
		return false
	}
	for _, inv := range vd.active[i].invalid[kind] {
		if diag >= inv.Seg.Start && diag <= inv.Seg.End {
			return true
		}
	}
	return false
}

// Invalid returns the invalid segments of a kind in a vertex.
func (vd *VerticesData) Invalid(v int32, kind Kind) []InvalidData {
	i := vd.slots[v]
	if i < 0 {
		return nil
	}
	return vd.active[i].invalid[kind]
}

func (vd *VerticesData) data(v int32) *vertexData {
	i := vd.slots[v]
	if i >= 0 {
		return &vd.active[i]
	}

	if n := len(vd.free); n > 0 {
		i = vd.free[n-1]
		vd.free = vd.free[:n-1]
	} else {
		vd.active = append(vd.active, vertexData{})
		i = int32(len(vd.active) - 1)
	}
	d := &vd.active[i]
	d.vertex = v
	d.lastSeen = vd.score
	for k := range d.invalid {
		d.invalid[k] = d.invalid[k][:0]
	}
	vd.slots[v] = i
	return d
}

func (vd *VerticesData) deactivate(i int32) {
	d := &vd.active[i]
	vd.slots[d.vertex] = -1
	d.vertex = -1
	vd.free = append(vd.free, i)
}

// expand decreases the remaining scores of all segments, a segment grows
// one diagonal when its counter reaches zero. Frozen boundaries never grow.
func expand(invalid []InvalidData, defaultUp, defaultDown int32) []InvalidData {
	for i := range invalid {
		inv := &invalid[i]
		if inv.RemUp > 0 {
			inv.RemUp--
			if inv.RemUp == 0 {
				inv.Seg.End++
				inv.RemUp = defaultUp
			}
		}
		if inv.RemDown > 0 {
			inv.RemDown--
			if inv.RemDown == 0 {
				inv.Seg.Start--
				inv.RemDown = defaultDown
			}
		}
	}
	return invalid
}

// weaker returns the remaining score which grows later.
func weaker(a, b int32) int32 {
	if a == frozen || b == frozen {
		return frozen
	}
	return max(a, b)
}

// compact sorts segments by start and merges overlapping or adjacent ones.
func compact(invalid []InvalidData) []InvalidData {
	if len(invalid) < 2 {
		return invalid
	}
	slices.SortFunc(invalid, func(a, b InvalidData) int {
		return cmp.Compare(a.Seg.Start, b.Seg.Start)
	})

	k := 0
	for l := 1; l < len(invalid); l++ {
		cur, next := &invalid[k], &invalid[l]
		if cur.Seg.End+1 < next.Seg.Start {
			k++
			invalid[k] = *next
			continue
		}

		if cur.Seg.Start == next.Seg.Start {
			cur.RemDown = weaker(cur.RemDown, next.RemDown)
		}
		switch {
		case next.Seg.End > cur.Seg.End:
			cur.Seg.End = next.Seg.End
			cur.RemUp = next.RemUp
		case next.Seg.End == cur.Seg.End:
			cur.RemUp = weaker(cur.RemUp, next.RemUp)
		}
	}
	return invalid[:k+1]
}
