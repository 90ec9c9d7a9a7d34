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

import "fmt"

// Kind is the matrix kind of a wavefront.
type Kind uint8

const (
	KindM  Kind = iota // match/mismatch
	KindI              // insertion, first gap tier
	KindD              // deletion, first gap tier
	KindI2             // insertion, second gap tier
	KindD2             // deletion, second gap tier

	numKinds = 5
)

var kindNames = [numKinds]string{"M", "I", "D", "I2", "D2"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "?"
}

// isIns tells if the kind consumes query symbols only.
func (k Kind) isIns() bool { return k == KindI || k == KindI2 }

// origins of a cell, used in backtrace.
const (
	fromSeed     uint8 = iota // the start position
	fromMismatch              // M[s-x]
	fromGapClose              // I/D/I2/D2 of the same score
	fromOpen                  // M[s-o-e]
	fromExtend                // same gap kind at s-e
	fromJump                  // same kind, same score, predecessor vertex
)

var fromNames = []string{"Seed", "Mis", "Close", "Open", "Ext", "Jump"}

func from2str(f uint8) string {
	if int(f) < len(fromNames) {
		return fromNames[f]
	}
	return "N/A"
}

// Ref addresses a cell: the kind and score of its wavefront, and its index there.
type Ref struct {
	Kind  Kind
	Score int32
	Index int32
}

var noRef = Ref{Index: -1}

// Cell is one DP state of a graph wavefront.
//
// The diagonal is local to the vertex:
//
//	Diagonal = i - j
//	Offset   = i
//
// where i is the query position and j is the position in the vertex sequence.
type Cell struct {
	Vertex   int32
	Diagonal int32
	Offset   int32

	// score accumulated since the vertex was entered
	ScoreDiff int32

	// offset before greedy extension, only differs from Offset in M cells.
	Start int32

	From uint8
	dead bool // superseded by a further cell of the same key and score

	Prev Ref
}

// Pos returns the position in the vertex sequence.
func (c *Cell) Pos() int32 {
	return c.Offset - c.Diagonal
}

func (c Cell) String() string {
	return fmt.Sprintf("v%d k(%d):%d(%s)+%d", c.Vertex, c.Diagonal, c.Offset, from2str(c.From), c.ScoreDiff)
}
