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
	"github.com/pkg/errors"
)

// cellArena is a pooled store of cells of one matrix kind.
// Wavefronts stored in it are addressed by index ranges,
// and clearing it keeps the memory for the next alignment.
type cellArena struct {
	cells  []Cell
	policy GrowthPolicy
	grows  int
}

type span struct {
	start, end int32
}

func (a *cellArena) store(cells []Cell) span {
	n := len(a.cells)
	if required := n + len(cells); required > cap(a.cells) {
		newCap := max(a.policy.Grow(cap(a.cells), required), required)
		tmp := make([]Cell, n, newCap)
		copy(tmp, a.cells)
		a.cells = tmp
		a.grows++
	}
	a.cells = append(a.cells, cells...)
	return span{start: int32(n), end: int32(len(a.cells))}
}

func (a *cellArena) slice(sp span) []Cell {
	return a.cells[sp.start:sp.end]
}

func (a *cellArena) clear() {
	a.cells = a.cells[:0]
}

// BeyondScope keeps the wavefronts which have left the Scope,
// they are needed in backtrace.
type BeyondScope struct {
	arenas [numKinds]cellArena

	records []([numKinds]span) // one record per score
	policy  GrowthPolicy
	grows   int
}

// NewBeyondScope creates a BeyondScope.
func NewBeyondScope() *BeyondScope {
	const expectedScores = 1024
	const expectedCells = 4096

	bs := &BeyondScope{
		records: make([]([numKinds]span), 0, expectedScores),
		policy:  Doubling,
	}
	for k := range bs.arenas {
		bs.arenas[k].cells = make([]Cell, 0, expectedCells)
		bs.arenas[k].policy = OneAndHalf
	}
	return bs
}

// NewAlignment truncates all data, the memory is kept for reuse.
func (bs *BeyondScope) NewAlignment() {
	bs.records = bs.records[:0]
	for k := range bs.arenas {
		bs.arenas[k].clear()
	}
}

// NewScore appends an empty record for the next score.
func (bs *BeyondScope) NewScore() {
	n := len(bs.records)
	if n == cap(bs.records) {
		tmp := make([]([numKinds]span), n, max(bs.policy.Grow(n, n+1), n+1))
		copy(tmp, bs.records)
		bs.records = tmp
		bs.grows++
	}
	bs.records = append(bs.records, [numKinds]span{})
}

// Len returns the number of scores stored.
func (bs *BeyondScope) Len() int { return len(bs.records) }

// Store copies the cells of a kind at a score.
func (bs *BeyondScope) Store(kind Kind, score int, cells []Cell) {
	if score < 0 || score >= len(bs.records) {
		panic(errors.Wrapf(ErrOutOfBounds, "score %d beyond scope of %d scores", score, len(bs.records)))
	}
	if len(cells) == 0 {
		return
	}
	bs.records[score][kind] = bs.arenas[kind].store(cells)
}

// Wave returns the cells of a kind at a score.
func (bs *BeyondScope) Wave(kind Kind, score int) []Cell {
	if score < 0 || score >= len(bs.records) {
		panic(errors.Wrapf(ErrOutOfBounds, "score %d beyond scope of %d scores", score, len(bs.records)))
	}
	return bs.arenas[kind].slice(bs.records[score][kind])
}

func (bs *BeyondScope) reallocs() int {
	n := bs.grows
	for k := range bs.arenas {
		n += bs.arenas[k].grows
	}
	return n
}
