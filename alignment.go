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
	"strconv"
	"sync"

	"github.com/biogo/hts/sam"
)

// Position is a position in a vertex sequence.
type Position struct {
	Vertex int
	Offset int
}

// Alignment is the result of aligning a query against a graph.
type Alignment struct {
	Score int // alignment score (cost)

	// Edit operations:
	//
	//	M: match
	//	X: mismatch
	//	I: insertion, a query symbol not in the graph
	//	D: deletion, a graph symbol not in the query
	Ops []*CIGARRecord

	Path        []int // IDs of visited vertices
	PathOffsets []int // position where the alignment enters each vertex in Path
	PathScores  []int // score spent in each vertex in Path, they sum up to Score

	// Start and End positions. In score-only mode of a whole-graph
	// alignment, Start.Vertex is -1 if the graph has more than one source.
	Start, End Position

	// Stats of the alignment
	AlignLen   uint32
	Matches    uint32
	Gaps       uint32
	GapRegions uint32

	processed bool
}

// CIGARRecord records the operation and the number.
type CIGARRecord struct {
	N  uint32
	Op byte
}

// NewAlignment returns a new Alignment from the object pool.
func NewAlignment() *Alignment {
	algn := poolAlignment.Get().(*Alignment)
	algn.reset()
	return algn
}

// RecycleAlignment recycles an Alignment object.
func RecycleAlignment(algn *Alignment) {
	if algn != nil {
		poolAlignment.Put(algn)
	}
}

var poolAlignment = &sync.Pool{New: func() interface{} {
	algn := Alignment{
		Ops:         make([]*CIGARRecord, 0, 128),
		Path:        make([]int, 0, 16),
		PathOffsets: make([]int, 0, 16),
		PathScores:  make([]int, 0, 16),
	}
	return &algn
}}

var poolCIGARRecord = &sync.Pool{New: func() interface{} {
	return &CIGARRecord{}
}}

func (algn *Alignment) reset() {
	for _, r := range algn.Ops {
		poolCIGARRecord.Put(r)
	}
	algn.Ops = algn.Ops[:0]
	algn.Path = algn.Path[:0]
	algn.PathOffsets = algn.PathOffsets[:0]
	algn.PathScores = algn.PathScores[:0]
	algn.Score = 0
	algn.Start = Position{}
	algn.End = Position{}
	algn.processed = false

	algn.AlignLen = 0
	algn.Matches = 0
	algn.Gaps = 0
	algn.GapRegions = 0
}

// AddN adds n operations. Records are added in the reverse order in backtrace.
func (algn *Alignment) AddN(op byte, n uint32) {
	if n == 0 {
		return
	}
	if l := len(algn.Ops); l > 0 && algn.Ops[l-1].Op == op {
		algn.Ops[l-1].N += n
		return
	}
	r := poolCIGARRecord.Get().(*CIGARRecord)
	r.Op = op
	r.N = n
	algn.Ops = append(algn.Ops, r)
}

// Add adds one operation.
func (algn *Alignment) Add(op byte) {
	algn.AddN(op, 1)
}

// addVertex adds a vertex to the path in backtrace.
func (algn *Alignment) addVertex(v, entry, score int) {
	algn.Path = append(algn.Path, v)
	algn.PathOffsets = append(algn.PathOffsets, entry)
	algn.PathScores = append(algn.PathScores, score)
}

// process reverses the operations and path, and computes the stats.
func (algn *Alignment) process() {
	if algn.processed {
		return
	}
	algn.processed = true

	s := algn.Ops
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
	p, po, ps := algn.Path, algn.PathOffsets, algn.PathScores
	for i, j := 0, len(p)-1; i < j; i, j = i+1, j-1 {
		p[i], p[j] = p[j], p[i]
		po[i], po[j] = po[j], po[i]
		ps[i], ps[j] = ps[j], ps[i]
	}

	var prev byte
	for _, op := range s {
		algn.AlignLen += op.N
		switch op.Op {
		case 'M':
			algn.Matches += op.N
		case 'I', 'D':
			algn.Gaps += op.N
			if op.Op != prev {
				algn.GapRegions++
			}
		}
		prev = op.Op
	}
}

// CIGAR returns the CIGAR string, with M for matches and X for mismatches.
func (algn *Alignment) CIGAR() string {
	buf := poolBytesBuffer.Get().(*bytes.Buffer)
	buf.Reset()

	for _, op := range algn.Ops {
		buf.WriteString(strconv.Itoa(int(op.N)))
		buf.WriteByte(op.Op)
	}

	text := buf.String()
	poolBytesBuffer.Put(buf)
	return text
}

// OpString returns the expanded operations, one byte per operation.
func (algn *Alignment) OpString() []byte {
	ops := make([]byte, 0, algn.AlignLen)
	for _, op := range algn.Ops {
		for i := uint32(0); i < op.N; i++ {
			ops = append(ops, op.Op)
		}
	}
	return ops
}

var op2sam = map[byte]sam.CigarOpType{
	'M': sam.CigarEqual,
	'X': sam.CigarMismatch,
	'I': sam.CigarInsertion,
	'D': sam.CigarDeletion,
}

// SAMCigar returns the CIGAR in SAM format, using = and X for matches and mismatches.
func (algn *Alignment) SAMCigar() sam.Cigar {
	cigar := make(sam.Cigar, 0, len(algn.Ops))
	for _, op := range algn.Ops {
		cigar = append(cigar, sam.NewCigarOp(op2sam[op.Op], int(op.N)))
	}
	return cigar
}

// AlignmentText returns the formated alignment text for Query, Alignment, and Target (the path).
// Do not forget to recycle them with RecycleAlignmentText().
func (algn *Alignment) AlignmentText(q []byte, g *Graph) (*[]byte, *[]byte, *[]byte) {
	Q := poolBytes.Get().(*[]byte)
	A := poolBytes.Get().(*[]byte)
	T := poolBytes.Get().(*[]byte)

	t := algn.pathSeq(g)
	var h int
	nextRef := func() byte {
		if h >= len(t) {
			return '?'
		}
		h++
		return t[h-1]
	}

	var v int
	var i uint32
	for _, op := range algn.Ops {
		switch op.Op {
		case 'M':
			for i = 0; i < op.N; i++ {
				*Q = append(*Q, q[v])
				*A = append(*A, '|')
				*T = append(*T, nextRef())
				v++
			}
		case 'X':
			for i = 0; i < op.N; i++ {
				*Q = append(*Q, q[v])
				*A = append(*A, ' ')
				*T = append(*T, nextRef())
				v++
			}
		case 'I':
			for i = 0; i < op.N; i++ {
				*Q = append(*Q, q[v])
				*A = append(*A, ' ')
				*T = append(*T, '-')
				v++
			}
		case 'D':
			for i = 0; i < op.N; i++ {
				*Q = append(*Q, '-')
				*A = append(*A, ' ')
				*T = append(*T, nextRef())
			}
		}
	}

	return Q, A, T
}

var poolBytesBuffer = &sync.Pool{New: func() interface{} {
	buf := make([]byte, 1024)
	return bytes.NewBuffer(buf)
}}

var poolBytes = &sync.Pool{New: func() interface{} {
	buf := make([]byte, 0, 1024)
	return &buf
}}

// RecycleAlignmentText recycles alignment text.
func RecycleAlignmentText(Q, A, T *[]byte) {
	if Q != nil {
		*Q = (*Q)[:0]
		poolBytes.Put(Q)
	}
	if A != nil {
		*A = (*A)[:0]
		poolBytes.Put(A)
	}
	if T != nil {
		*T = (*T)[:0]
		poolBytes.Put(T)
	}
}
