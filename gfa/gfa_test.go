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
	"bytes"
	"strings"
	"testing"

	"github.com/shenwei356/gwfa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGFA = `H	VN:Z:1.0
S	1	ACGT
S	2	GGA	LN:i:3
S	3	tTC
L	1	+	2	+	0M
L	1	+	3	-	2M
P	p1	1+,2+	*
`

func TestRead(t *testing.T) {
	g, err := Read(strings.NewReader(testGFA))
	require.NoError(t, err)
	require.Equal(t, 6, g.NumVertices())

	id := func(name string) int {
		v, ok := g.VertexID(name)
		require.True(t, ok, name)
		return v
	}
	assert.Equal(t, "ACGT", string(g.Vertices[id("1+")].Seq))
	assert.Equal(t, "ACGT", string(g.Vertices[id("1-")].Seq))
	assert.Equal(t, "TCC", string(g.Vertices[id("2-")].Seq))
	assert.Equal(t, "GAa", string(g.Vertices[id("3-")].Seq))

	assert.Equal(t, []gwfa.Edge{
		{From: id("1+"), To: id("2+"), Overlap: 0},
		{From: id("1+"), To: id("3-"), Overlap: 2},
	}, g.Vertices[id("1+")].Out)
	assert.Equal(t, []gwfa.Edge{{From: id("2-"), To: id("1-"), Overlap: 0}}, g.Vertices[id("2-")].Out)
	assert.Equal(t, []gwfa.Edge{{From: id("3+"), To: id("1-"), Overlap: 2}}, g.Vertices[id("3+")].Out)
	assert.NoError(t, g.Validate())

	// 1+ -> 3-: ACGT + a (overlap GA)
	algn, err := gwfa.NewAligner(nil, g, nil)
	require.NoError(t, err)
	result, err := algn.AlignFrom([]byte("ACGTa"),
		gwfa.Position{Vertex: id("1+")}, gwfa.Position{Vertex: id("3-"), Offset: 3})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Score)
	assert.Equal(t, []int{id("1+"), id("3-")}, result.Path)
}

func TestReadAlign(t *testing.T) {
	g, err := Read(strings.NewReader("S\ta\tACG\nS\tb\tTTA\nL\ta\t+\tb\t+\t0M\n"))
	require.NoError(t, err)
	require.NoError(t, g.Validate())
	id := func(name string) int {
		v, ok := g.VertexID(name)
		require.True(t, ok, name)
		return v
	}

	algn, err := gwfa.NewAligner(nil, g, nil)
	require.NoError(t, err)
	for _, c := range []struct {
		q    string
		path []string
	}{
		{"ACGTTA", []string{"a+", "b+"}},
		{"TAACGT", []string{"b-", "a-"}},
	} {
		result, err := algn.Align([]byte(c.q))
		require.NoError(t, err, c.q)
		path := make([]int, len(c.path))
		for i, name := range c.path {
			path[i] = id(name)
		}
		assert.Equal(t, path, result.Path, c.q)
		gwfa.RecycleAlignment(result)
	}

	result, err := algn.Align([]byte("ACGTTA"))
	require.NoError(t, err)
	assert.Equal(t, 0, result.Score)
	assert.Equal(t, gwfa.Position{Vertex: id("a+")}, result.Start)
	assert.Equal(t, gwfa.Position{Vertex: id("b+"), Offset: 3}, result.End)
}

func TestReadErrors(t *testing.T) {
	for _, data := range []string{
		"S\t1\n",
		"S\t1\t*\n",
		"S\t1\tACGT\nL\t1\t+\t1\t?\t0M\n",
		"S\t1\tACGT\nL\t1\t+\t1\t+\t*\n",
		"S\t1\tACGT\nL\t1\t+\t1\t+\t2M1I\n",
		"S\t1\tACGT\nL\t1\t+\t1\t+\n",
		"S\t1\tACGT\nL\t1\t+\t2\t+\t0M\n",
	} {
		_, err := Read(strings.NewReader(data))
		assert.ErrorIs(t, err, ErrBadRecord, data)
	}

	// overlaps are checked by the graph
	g, err := Read(strings.NewReader("S\t1\tACGT\nS\t2\tA\nL\t1\t+\t2\t+\t2M\n"))
	require.NoError(t, err)
	assert.ErrorIs(t, g.Validate(), gwfa.ErrBadEdge)
}

func TestSegmentName(t *testing.T) {
	name, rev := SegmentName("utg1-")
	assert.Equal(t, "utg1", name)
	assert.True(t, rev)

	name, rev = SegmentName("utg1+")
	assert.Equal(t, "utg1", name)
	assert.False(t, rev)

	name, rev = SegmentName("x")
	assert.Equal(t, "x", name)
	assert.False(t, rev)
}

func TestReverseComplement(t *testing.T) {
	assert.Equal(t, "NacgT", string(ReverseComplement([]byte("AcgtN"))))
	assert.Empty(t, ReverseComplement(nil))
}

func TestWriteGAF(t *testing.T) {
	g, err := Read(strings.NewReader(testGFA))
	require.NoError(t, err)
	algn, err := gwfa.NewAligner(nil, g, nil)
	require.NoError(t, err)

	v1, _ := g.VertexID("1+")
	v2, _ := g.VertexID("2+")
	q := []byte("CGTGGTA")
	result, err := algn.AlignFrom(q, gwfa.Position{Vertex: v1, Offset: 1}, gwfa.Position{Vertex: v2, Offset: 3})
	require.NoError(t, err)
	require.Equal(t, "5M1I1M", result.CIGAR())

	var buf bytes.Buffer
	require.NoError(t, WriteGAF(&buf, "read1", q, g, result))
	assert.Equal(t, "read1\t7\t0\t7\t+\t>1>2\t7\t1\t7\t6\t7\t255\tAS:i:4\tNM:i:1\tcg:Z:5=1I1=\n", buf.String())

	score, err := gwfa.NewAligner(nil, g, &gwfa.Options{ScoreOnly: true})
	require.NoError(t, err)
	result, err = score.AlignFrom(q, gwfa.Position{Vertex: v1, Offset: 1}, gwfa.Position{Vertex: v2, Offset: 3})
	require.NoError(t, err)
	assert.Error(t, WriteGAF(&buf, "read1", q, g, result))
}
