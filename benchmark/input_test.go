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

package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/shenwei356/gwfa"
	"github.com/shenwei356/gwfa/gfa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testQueries = `>utg1 2 + utg2 1 -
ACGT
AC

>read2 a longer description
GGG
>
T
`

func TestReadQueries(t *testing.T) {
	queries, err := readQueries(strings.NewReader(testQueries))
	require.NoError(t, err)
	require.Len(t, queries, 3)

	assert.Equal(t, "seq_0", queries[0].name)
	assert.Equal(t, "ACGTAC", string(queries[0].seq))
	assert.Equal(t, &position{vertex: "utg1+", offset: 2}, queries[0].start)
	assert.Equal(t, &position{vertex: "utg2-", offset: 1}, queries[0].end)

	assert.Equal(t, "read2", queries[1].name)
	assert.Nil(t, queries[1].start)
	assert.Equal(t, "GGG", string(queries[1].seq))

	assert.Equal(t, "seq_2", queries[2].name)

	_, err = readQueries(strings.NewReader("ACGT\n"))
	assert.Error(t, err)
	_, err = readQueries(strings.NewReader(">utg1 x +\nACGT\n"))
	assert.Error(t, err)
	_, err = readQueries(strings.NewReader(">utg1 2 +\tutg2 1 ?\nACGT\n"))
	assert.Error(t, err)
}

func TestQueryAlign(t *testing.T) {
	g, err := gfa.Read(strings.NewReader("S\ta\tACG\nS\tb\tTTA\nL\ta\t+\tb\t+\t0M\n"))
	require.NoError(t, err)
	algn, err := gwfa.NewAligner(nil, g, nil)
	require.NoError(t, err)
	id := func(name string) int {
		v, ok := g.VertexID(name)
		require.True(t, ok, name)
		return v
	}

	// from any source to any sink, on both strands
	result, err := (&query{seq: []byte("ACGTTA")}).align(algn)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Score)
	assert.Equal(t, []int{id("a+"), id("b+")}, result.Path)

	result, err = (&query{seq: []byte("TAACGT")}).align(algn)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Score)
	assert.Equal(t, []int{id("b-"), id("a-")}, result.Path)

	// start only
	q := &query{seq: []byte("CGTTA"), start: &position{vertex: "a+", offset: 1}}
	result, err = q.align(algn)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Score)
	assert.Equal(t, gwfa.Position{Vertex: id("b+"), Offset: 3}, result.End)

	// start and end
	q = &query{seq: []byte("ACGT"),
		start: &position{vertex: "a+"}, end: &position{vertex: "b+", offset: 1}}
	result, err = q.align(algn)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Score)
	assert.Equal(t, "4M", result.CIGAR())
	assert.Equal(t, gwfa.Position{Vertex: id("b+"), Offset: 1}, result.End)

	_, err = (&query{seq: []byte("A"), start: &position{vertex: "c+"}}).align(algn)
	assert.Error(t, err)
	_, err = (&query{seq: []byte("A"), start: &position{vertex: "a+"}, end: &position{vertex: "c-"}}).align(algn)
	assert.Error(t, err)
}

func TestWriteFASTA(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, writeFASTA(&sb, "s1", []byte("AC-GT")))
	require.NoError(t, writeFASTA(&sb, "s2", []byte(strings.Repeat("A", fastaLineWidth+2))))
	assert.Equal(t, ">s1\nAC-GT\n>s2\n"+strings.Repeat("A", fastaLineWidth)+"\nAA\n", sb.String())

	queries, err := readQueries(strings.NewReader(sb.String()))
	require.NoError(t, err)
	require.Len(t, queries, 2)
	assert.Equal(t, "AC-GT", string(queries[0].seq))
	assert.Equal(t, fastaLineWidth+2, len(queries[1].seq))
}

func TestRunMSA(t *testing.T) {
	dir := t.TempDir()
	c := &config{
		OutFile:       filepath.Join(dir, "msa.fa"),
		ConsensusFile: filepath.Join(dir, "consensus.fa"),
		DOTFile:       filepath.Join(dir, "poa.dot"),
		MSA:           true,
	}
	queries := []*query{
		{name: "q1", seq: []byte("ACGTACGT")},
		{name: "q2", seq: []byte("ACGACGT")},
		{name: "q3", seq: []byte("ACGTACGT")},
	}
	require.NoError(t, runMSA(c, &gwfa.DefaultPenalties, queries, time.Now()))

	data, err := os.ReadFile(c.OutFile)
	require.NoError(t, err)
	assert.Equal(t, ">q1\nACGTACGT\n>q2\nACG-ACGT\n>q3\nACGTACGT\n", string(data))

	data, err = os.ReadFile(c.ConsensusFile)
	require.NoError(t, err)
	assert.Equal(t, ">consensus\nACGTACGT\n", string(data))

	data, err = os.ReadFile(c.DOTFile)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "digraph"))

	assert.Error(t, runMSA(c, &gwfa.DefaultPenalties, nil, time.Now()))
}

func TestWriteDOTFile(t *testing.T) {
	g := gwfa.NewGraph()
	g.AddVertex("a", []byte("AC"))
	g.AddVertex("b", []byte("GT"))
	require.NoError(t, g.AddEdge(0, 1, 0))

	file := filepath.Join(t.TempDir(), "g.dot")
	require.NoError(t, writeDOT(file, g))
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	var sb strings.Builder
	g.WriteDOT(&sb)
	assert.Equal(t, sb.String(), string(data))

	require.NoError(t, writeDOT("", g))
}

func TestOpenInput(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "q.txt")
	require.NoError(t, os.WriteFile(plain, []byte(testQueries), 0o644))

	zst := filepath.Join(dir, "q.txt.zst")
	fh, err := os.Create(zst)
	require.NoError(t, err)
	zw, err := zstd.NewWriter(fh)
	require.NoError(t, err)
	_, err = zw.Write([]byte(testQueries))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, fh.Close())

	for _, file := range []string{plain, zst} {
		r, err := openInput(file)
		require.NoError(t, err)
		data, err := io.ReadAll(r)
		require.NoError(t, err)
		require.NoError(t, r.Close())
		assert.Equal(t, testQueries, string(data), file)
	}

	_, err = openInput(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestConfigPenalties(t *testing.T) {
	c := config{Mismatch: 2, GapOpen: 3, GapExt: 1}
	p, err := c.penalties()
	require.NoError(t, err)
	assert.Equal(t, gwfa.Affine, p.Type)

	c.GapOpen = 0
	p, err = c.penalties()
	require.NoError(t, err)
	assert.Equal(t, gwfa.Linear, p.Type)

	c = config{Mismatch: 4, GapOpen: 6, GapExt: 2, GapOpen2: 24, GapExt2: 1}
	p, err = c.penalties()
	require.NoError(t, err)
	assert.Equal(t, gwfa.DualAffine, p.Type)

	c.Match = 1
	_, err = c.penalties()
	assert.ErrorIs(t, err, gwfa.ErrInvalidPenalties)
}
