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
	"strings"
	"testing"

	"github.com/biogo/hts/sam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlignmentRecords(t *testing.T) {
	algn := NewAlignment()
	// added in reverse order
	algn.AddN('M', 2)
	algn.Add('M')
	algn.Add('D')
	algn.AddN('X', 0)
	algn.Add('I')
	algn.Add('I')
	algn.AddN('M', 4)
	algn.process()
	algn.process() // only once

	assert.Equal(t, "4M2I1D3M", algn.CIGAR())
	assert.Equal(t, uint32(10), algn.AlignLen)
	assert.Equal(t, uint32(7), algn.Matches)
	assert.Equal(t, uint32(3), algn.Gaps)
	assert.Equal(t, uint32(2), algn.GapRegions)

	RecycleAlignment(algn)
	algn = NewAlignment()
	assert.Empty(t, algn.Ops)
	assert.Equal(t, "", algn.CIGAR())
}

func TestSAMCigar(t *testing.T) {
	result := align(t, &DefaultPenalties, NewChainGraph("ACGTACGT"), "ACGAACGTT")

	cigar := result.SAMCigar()
	require.Len(t, cigar, 4)
	assert.Equal(t, sam.CigarEqual, cigar[0].Type())
	assert.Equal(t, 3, cigar[0].Len())
	assert.Equal(t, sam.CigarMismatch, cigar[1].Type())
	assert.Equal(t, sam.CigarInsertion, cigar[3].Type())
	assert.Equal(t, "3=1X4=1I", cigar.String())

	rlen, qlen := cigar.Lengths()
	assert.Equal(t, 8, rlen)
	assert.Equal(t, 9, qlen)
}

func TestPlot(t *testing.T) {
	g := NewChainGraph("AC", "GT")
	q := []byte("AGT")
	result := align(t, &DefaultPenalties, g, string(q))
	require.Equal(t, "1M1D2M", result.CIGAR())

	var buf bytes.Buffer
	result.Plot(&buf, q, g, &DefaultPenalties)
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2+len(q)+1)
	assert.Equal(t, "   \t \t  -\t  A\t  C\t  G\t  T", lines[1])
	assert.Equal(t, "  0\t-\t⊕ 0\t  .\t  .\t  .\t  .", lines[2])
	assert.Equal(t, "  1\tA\t  .\t⬊ 0\t↧ 4\t  .\t  .", lines[3])
	assert.Equal(t, "  3\tT\t  .\t  .\t  .\t  .\t⬊ 4", lines[5])
}
