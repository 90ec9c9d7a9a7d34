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

package gfa

import (
	"bufio"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/shenwei356/gwfa"
)

// WriteGAF writes an alignment as a GAF record. Vertices named with an
// orientation suffix, as created by Read, are written as >name or <name.
//
// Columns: query name, query length, query start, query end, strand,
// path, path length, path start, path end, matches, block length,
// mapping quality, and tags of the score (AS:i), edit distance (NM:i)
// and CIGAR (cg:Z).
func WriteGAF(wtr io.Writer, name string, q []byte, g *gwfa.Graph, algn *gwfa.Alignment) error {
	if len(algn.Path) == 0 {
		return errors.New("gfa: alignment without path, was it computed in score-only mode?")
	}

	bw, ok := wtr.(*bufio.Writer)
	if !ok {
		bw = bufio.NewWriter(wtr)
	}

	fmt.Fprintf(bw, "%s\t%d\t0\t%d\t+\t", name, len(q), len(q))

	var pathLen int
	for k, v := range algn.Path {
		seg, reverse := SegmentName(g.Vertices[v].Name)
		if seg == "" {
			seg = fmt.Sprintf("%d", v)
		}
		if reverse {
			bw.WriteByte('<')
		} else {
			bw.WriteByte('>')
		}
		bw.WriteString(seg)

		pathLen += len(g.Vertices[v].Seq)
		if k > 0 {
			pathLen -= algn.PathOffsets[k]
		}
	}
	last := algn.Path[len(algn.Path)-1]
	pathEnd := pathLen - (len(g.Vertices[last].Seq) - algn.End.Offset)

	fmt.Fprintf(bw, "\t%d\t%d\t%d\t%d\t%d\t255\tAS:i:%d\tNM:i:%d\tcg:Z:%s\n",
		pathLen, algn.Start.Offset, pathEnd, algn.Matches, algn.AlignLen,
		algn.Score, algn.AlignLen-algn.Matches, algn.SAMCigar())

	if !ok {
		return bw.Flush()
	}
	return nil
}
