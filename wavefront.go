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
	"bytes"
	"cmp"
	"fmt"
	"slices"

	"github.com/pkg/errors"
)

// WAVEFRONT_BASE_SIZE is the initial capacity of a Wavefront.
const WAVEFRONT_BASE_SIZE = 64

// GrowthPolicy decides the new capacity of a growable store,
// given the current capacity and the required size.
type GrowthPolicy interface {
	Grow(capacity, required int) int
}

// GrowthFunc adapts a function to a GrowthPolicy.
type GrowthFunc func(capacity, required int) int

// Grow calls f.
func (f GrowthFunc) Grow(capacity, required int) int { return f(capacity, required) }

// Doubling allocates twice the required size.
var Doubling GrowthPolicy = GrowthFunc(func(_, required int) int {
	return required << 1
})

// OneAndHalf allocates 1.5 times the required size.
var OneAndHalf GrowthPolicy = GrowthFunc(func(_, required int) int {
	return required + required>>1 + 1
})

// Wavefront is a sparse list of cells of one matrix kind at one score.
//
// Cells are kept in insertion order, because their indexes are used as
// backtrace addresses. Sorted() provides the diagonal order.
// The same diagonal may appear once per vertex.
type Wavefront struct {
	cells  []Cell
	policy GrowthPolicy

	order       []int32
	orderLength int // number of cells when order was computed

	grows int // number of reallocations
}

// NewWavefront creates a Wavefront with the given capacity.
// With a nil policy, the wavefront has a fixed capacity, and adding
// more cells panics with ErrOutOfBounds.
func NewWavefront(capacity int, policy GrowthPolicy) *Wavefront {
	return &Wavefront{
		cells:       make([]Cell, 0, capacity),
		policy:      policy,
		orderLength: -1,
	}
}

// SetGrowthPolicy replaces the growth policy.
func (wf *Wavefront) SetGrowthPolicy(p GrowthPolicy) {
	wf.policy = p
}

// Add appends a cell and returns its index.
func (wf *Wavefront) Add(c Cell) int32 {
	n := len(wf.cells)
	if n == cap(wf.cells) {
		wf.grow(n + 1)
	}
	wf.cells = append(wf.cells, c)
	return int32(n)
}

func (wf *Wavefront) grow(required int) {
	if wf.policy == nil {
		panic(errors.Wrapf(ErrOutOfBounds, "wavefront capacity %d exceeded", cap(wf.cells)))
	}
	newCap := max(wf.policy.Grow(cap(wf.cells), required), required)
	cells := make([]Cell, len(wf.cells), newCap)
	copy(cells, wf.cells)
	wf.cells = cells
	wf.grows++
}

// Len returns the number of cells.
func (wf *Wavefront) Len() int { return len(wf.cells) }

// At returns the pointer of the i-th cell.
func (wf *Wavefront) At(i int32) *Cell { return &wf.cells[i] }

// Cells returns all cells in insertion order.
func (wf *Wavefront) Cells() []Cell { return wf.cells }

// Reset clears the cells and keeps the allocated memory.
func (wf *Wavefront) Reset() {
	wf.cells = wf.cells[:0]
	wf.order = wf.order[:0]
	wf.orderLength = -1
}

// Sorted returns cell indexes ordered by vertex and then diagonal.
func (wf *Wavefront) Sorted() []int32 {
	if wf.orderLength == len(wf.cells) {
		return wf.order
	}
	wf.order = wf.order[:0]
	for i := range wf.cells {
		wf.order = append(wf.order, int32(i))
	}
	cells := wf.cells
	slices.SortStableFunc(wf.order, func(a, b int32) int {
		ca, cb := &cells[a], &cells[b]
		if c := cmp.Compare(ca.Vertex, cb.Vertex); c != 0 {
			return c
		}
		return cmp.Compare(ca.Diagonal, cb.Diagonal)
	})
	wf.orderLength = len(wf.cells)
	return wf.order
}

// String lists all the cells in diagonal order.
func (wf *Wavefront) String() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d cells.", len(wf.cells))
	for _, i := range wf.Sorted() {
		c := &wf.cells[i]
		if c.dead {
			continue
		}
		fmt.Fprintf(&buf, " %s", c)
	}
	return buf.String()
}
