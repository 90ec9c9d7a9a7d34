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

// backtrace follows the origins of cells from the terminal cell
// to the seed, the operations and path are added in reverse order.
//
// Cells of kind M emit the matches of their extension, and
//
//	fromMismatch: X
//	fromGapClose: nothing, the gap cell of the same score is next
//	fromJump:     nothing, the predecessor vertex is added to the path
//	fromSeed:     the end
//
// Gap cells emit one I or D, unless they came from a jump.
// The score spent in each vertex is the ScoreDiff of the cell leaving it.
func (algn *Aligner) backtrace(result *Alignment) {
	ref := algn.terminal
	c := algn.cell(ref)
	result.addVertex(int(c.Vertex), -1, int(c.ScoreDiff))

	for {
		if ref.Kind == KindM {
			result.AddN('M', uint32(c.Offset-c.Start))
		}

		switch c.From {
		case fromSeed:
			offset := int(c.Start - c.Diagonal)
			result.PathOffsets[len(result.PathOffsets)-1] = offset
			result.Start = Position{Vertex: int(c.Vertex), Offset: offset}
			return
		case fromMismatch:
			result.Add('X')
		case fromOpen, fromExtend:
			if ref.Kind.isIns() {
				result.Add('I')
			} else {
				result.Add('D')
			}
		case fromJump:
			result.PathOffsets[len(result.PathOffsets)-1] = int(c.Start - c.Diagonal)
			exit := algn.cell(c.Prev)
			result.addVertex(int(exit.Vertex), -1, int(exit.ScoreDiff))
		}

		ref = c.Prev
		c = algn.cell(ref)
	}
}
