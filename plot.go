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
	"sync"
)

const (
	plotStart uint32 = iota
	plotInsert
	plotDelete
	plotMismatch
	plotMatch

	plotTypeBits = 3
	plotTypeMask = (1 << plotTypeBits) - 1
)

var plotArrows = []rune{'⊕', '⟼', '↧', '⬂', '⬊'}

// Plot plots an alignment as a tab-delimited text table of the query
// (rows) and the sequence spelled by the path (columns).
//
// A table cell contains the operation symbol and the score so far.
// Symbols:
//
//	⊕    Start
//	⟼    Insertion
//	↧    Deletion
//	⬂    Mismatch
//	⬊    Match
//
// Scores of dual gap-affine alignments are scored with the cheaper tier
// of a whole gap, so they are exact at the end of each gap.
func (algn *Alignment) Plot(wtr io.Writer, q []byte, g *Graph, p *Penalties) {
	t := algn.pathSeq(g)

	m := poolMatrix.Get().(*[]*[]int32)
	for i := 0; i <= len(q); i++ {
		r := poolRow.Get().(*[]int32)
		for j := 0; j <= len(t); j++ {
			*r = append(*r, -1)
		}
		*m = append(*m, r)
	}

	var i, j int
	var score, base, gapLen int
	var prev byte
	(*(*m)[0])[0] = int32(plotStart)
	for _, op := range algn.Ops {
		if op.Op != prev {
			base = score
			gapLen = 0
		}
		prev = op.Op
		for n := uint32(0); n < op.N; n++ {
			var typ uint32
			switch op.Op {
			case 'M':
				i++
				j++
				typ = plotMatch
			case 'X':
				i++
				j++
				score += p.Mismatch
				typ = plotMismatch
			case 'I':
				i++
				gapLen++
				score = base + p.gapCost(gapLen)
				typ = plotInsert
			case 'D':
				j++
				gapLen++
				score = base + p.gapCost(gapLen)
				typ = plotDelete
			}
			if i < len(*m) && j < len(*(*m)[i]) {
				(*(*m)[i])[j] = int32(score)<<plotTypeBits | int32(typ)
			}
		}
	}

	fmt.Fprintf(wtr, "   \t ")
	for j := 0; j <= len(t); j++ {
		fmt.Fprintf(wtr, "\t%3d", j)
	}
	fmt.Fprintln(wtr)
	fmt.Fprintf(wtr, "   \t \t  -")
	for _, b := range t {
		fmt.Fprintf(wtr, "\t%3c", b)
	}
	fmt.Fprintln(wtr)

	for i, r := range *m {
		b := byte('-')
		if i > 0 {
			b = q[i-1]
		}
		fmt.Fprintf(wtr, "%3d\t%c", i, b)
		for _, s := range *r {
			if s < 0 {
				fmt.Fprintf(wtr, "\t  .")
			} else {
				fmt.Fprintf(wtr, "\t%c%2d", plotArrows[s&plotTypeMask], s>>plotTypeBits)
			}
		}
		fmt.Fprintln(wtr)
	}

	recycleMatrix(m)
}

// pathSeq returns the sequence spelled by the path, from the start
// position to the end position.
func (algn *Alignment) pathSeq(g *Graph) []byte {
	t := make([]byte, 0, algn.AlignLen)
	for k, v := range algn.Path {
		seq := g.Vertices[v].Seq
		from, to := algn.PathOffsets[k], len(seq)
		if k == len(algn.Path)-1 {
			to = algn.End.Offset
		}
		if from < to {
			t = append(t, seq[from:to]...)
		}
	}
	return t
}

var poolMatrix = &sync.Pool{New: func() interface{} {
	tmp := make([]*[]int32, 0, 128)
	return &tmp
}}

var poolRow = &sync.Pool{New: func() interface{} {
	tmp := make([]int32, 0, 128)
	return &tmp
}}

func recycleMatrix(m *[]*[]int32) {
	for _, r := range *m {
		if r != nil {
			*r = (*r)[:0]
			poolRow.Put(r)
		}
	}
	*m = (*m)[:0]
	poolMatrix.Put(m)
}
