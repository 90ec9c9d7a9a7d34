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
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const inf = math.MaxInt32 / 2

// dpScore computes the optimal score with a Gotoh-style dynamic programming
// over all positions of the graph. Returns inf if the end is unreachable.
//
// Positions (v, j) for j in [0, len(seq)] are nodes, (v, j) -> (v, j+1)
// consumes seq[j], and (v, len(seq)) -> (w, overlap) consumes nothing
// and keeps the matrix kind. Alignments start at any of starts and end
// at any of ends.
func dpScore(p *Penalties, g *Graph, q []byte, starts, ends []Position) int {
	order := topoOrder(g)
	m := len(q)

	o, e, x := p.GapOpen, p.GapExt, p.Mismatch
	o2, e2 := p.GapOpen2, p.GapExt2
	dual := p.Type == DualAffine

	newRow := func() []int {
		r := make([]int, m+1)
		for i := range r {
			r[i] = inf
		}
		return r
	}
	type node [numKinds][]int
	nodes := make([][]*node, len(g.Vertices))
	for v := range g.Vertices {
		nodes[v] = make([]*node, len(g.Vertices[v].Seq)+1)
	}

	for _, v := range order {
		seq := g.Vertices[v].Seq
		for j := 0; j <= len(seq); j++ {
			var cur node
			for k := range cur {
				cur[k] = newRow()
			}
			// entries from predecessors
			for _, ed := range g.Vertices[v].In {
				if ed.Overlap != j {
					continue
				}
				pred := nodes[ed.From][len(g.Vertices[ed.From].Seq)]
				for k := range cur {
					for i := 0; i <= m; i++ {
						cur[k][i] = min(cur[k][i], pred[k][i])
					}
				}
			}
			for _, start := range starts {
				if v == start.Vertex && j == start.Offset {
					cur[KindM][0] = 0
				}
			}

			var prev *node
			if j > 0 {
				prev = nodes[v][j-1]
			}
			if prev != nil {
				for i := 0; i <= m; i++ {
					cur[KindD][i] = min(cur[KindD][i], prev[KindM][i]+o+e, prev[KindD][i]+e)
					if dual {
						cur[KindD2][i] = min(cur[KindD2][i], prev[KindM][i]+o2+e2, prev[KindD2][i]+e2)
					}
				}
			}
			for i := 0; i <= m; i++ {
				if i > 0 {
					cur[KindI][i] = min(cur[KindI][i], cur[KindM][i-1]+o+e, cur[KindI][i-1]+e)
					if dual {
						cur[KindI2][i] = min(cur[KindI2][i], cur[KindM][i-1]+o2+e2, cur[KindI2][i-1]+e2)
					}
					if prev != nil {
						c := x
						if q[i-1] == seq[j-1] {
							c = 0
						}
						cur[KindM][i] = min(cur[KindM][i], prev[KindM][i-1]+c)
					}
				}
				cur[KindM][i] = min(cur[KindM][i], cur[KindI][i], cur[KindD][i])
				if dual {
					cur[KindM][i] = min(cur[KindM][i], cur[KindI2][i], cur[KindD2][i])
				}
			}
			nodes[v][j] = &cur
		}
	}

	best := inf
	for _, end := range ends {
		best = min(best, nodes[end.Vertex][end.Offset][KindM][m])
	}
	return best
}

// terminals returns the starts of the sources and the ends of the sinks.
func terminals(g *Graph) (starts, ends []Position) {
	for v := range g.Vertices {
		if len(g.Vertices[v].In) == 0 {
			starts = append(starts, Position{Vertex: v})
		}
		if len(g.Vertices[v].Out) == 0 {
			ends = append(ends, Position{Vertex: v, Offset: len(g.Vertices[v].Seq)})
		}
	}
	return starts, ends
}

func topoOrder(g *Graph) []int {
	indeg := make([]int, len(g.Vertices))
	for v := range g.Vertices {
		for _, ed := range g.Vertices[v].Out {
			indeg[ed.To]++
		}
	}
	order := make([]int, 0, len(g.Vertices))
	for v := range indeg {
		if indeg[v] == 0 {
			order = append(order, v)
		}
	}
	for h := 0; h < len(order); h++ {
		for _, ed := range g.Vertices[order[h]].Out {
			indeg[ed.To]--
			if indeg[ed.To] == 0 {
				order = append(order, ed.To)
			}
		}
	}
	return order
}

func randSeq(r *rand.Rand, n int) []byte {
	s := make([]byte, n)
	for i := range s {
		s[i] = "ACGT"[r.Intn(4)]
	}
	return s
}

// mutate applies random substitutions, insertions and deletions.
func mutate(r *rand.Rand, s []byte, rate float64) []byte {
	out := make([]byte, 0, len(s)+4)
	for _, b := range s {
		if r.Float64() >= rate {
			out = append(out, b)
			continue
		}
		switch r.Intn(3) {
		case 0:
			out = append(out, "ACGT"[r.Intn(4)])
		case 1:
			out = append(out, b, "ACGT"[r.Intn(4)])
		}
	}
	return out
}

// randGraph returns a random DAG, edges only go from lower to higher IDs,
// and the chain v -> v+1 is always present.
func randGraph(r *rand.Rand, nvertices, maxLen int) *Graph {
	return randDAG(r, nvertices, maxLen, 1)
}

// randDAG returns a random DAG, where v -> v+1 is present with
// probability pchain, so it may have several sources and sinks.
func randDAG(r *rand.Rand, nvertices, maxLen int, pchain float64) *Graph {
	g := NewGraph()
	for v := 0; v < nvertices; v++ {
		g.AddVertex("", randSeq(r, r.Intn(maxLen+1)))
	}
	for v := 0; v < nvertices-1; v++ {
		for w := v + 1; w < nvertices; w++ {
			if w == v+1 {
				if r.Float64() >= pchain {
					continue
				}
			} else if r.Intn(3) != 0 {
				continue
			}
			var overlap int
			if n := min(len(g.Vertices[v].Seq), len(g.Vertices[w].Seq)); n > 0 && r.Intn(3) == 0 {
				overlap = r.Intn(n + 1)
			}
			g.AddEdge(v, w, overlap)
		}
	}
	return g
}

// randPathSeq spells a random walk from a source to a sink.
func randPathSeq(r *rand.Rand, g *Graph) []byte {
	starts, _ := terminals(g)
	var s []byte
	v, j := starts[r.Intn(len(starts))].Vertex, 0
	for {
		s = append(s, g.Vertices[v].Seq[j:]...)
		out := g.Vertices[v].Out
		if len(out) == 0 {
			return s
		}
		ed := out[r.Intn(len(out))]
		v, j = ed.To, ed.Overlap
	}
}

// checkAlignment checks that the operations and path of an alignment
// are consistent with the query, the graph and the score.
func checkAlignment(t *testing.T, p *Penalties, g *Graph, q []byte, result *Alignment) {
	t.Helper()

	require.NotEmpty(t, result.Path)
	assert.Equal(t, result.Start.Vertex, result.Path[0])
	assert.Equal(t, result.Start.Offset, result.PathOffsets[0])
	assert.Equal(t, result.End.Vertex, result.Path[len(result.Path)-1])
	for k := 1; k < len(result.Path); k++ {
		var ok bool
		for _, ed := range g.Vertices[result.Path[k-1]].Out {
			if ed.To == result.Path[k] && ed.Overlap == result.PathOffsets[k] {
				ok = true
				break
			}
		}
		assert.True(t, ok, "no edge %d -> %d with overlap %d",
			result.Path[k-1], result.Path[k], result.PathOffsets[k])
	}

	ref := result.pathSeq(g)
	var i, j int
	for _, op := range result.OpString() {
		switch op {
		case 'M':
			require.Equal(t, q[i], ref[j], "match at query %d", i)
			i++
			j++
		case 'X':
			require.NotEqual(t, q[i], ref[j], "mismatch at query %d", i)
			i++
			j++
		case 'I':
			i++
		case 'D':
			j++
		}
	}
	assert.Equal(t, len(q), i)
	assert.Equal(t, len(ref), j)
	assert.Equal(t, result.Score, p.ScoreCigar(result.Ops))

	require.Len(t, result.PathScores, len(result.Path))
	var sum int
	for _, s := range result.PathScores {
		assert.GreaterOrEqual(t, s, 0)
		sum += s
	}
	assert.Equal(t, result.Score, sum, "scores of vertices %v", result.PathScores)
}

func TestRandomGraphsAgainstDP(t *testing.T) {
	r := rand.New(rand.NewSource(11))

	linear, _ := NewLinearPenalties(0, 3, 2)
	affine, _ := NewAffinePenalties(0, 4, 6, 2)
	dual, _ := NewDualAffinePenalties(0, 4, 2, 3, 12, 1)

	for _, p := range []*Penalties{linear, &DefaultPenalties, affine, dual} {
		for n := 0; n < 200; n++ {
			// a quarter of the graphs have several sources and sinks
			pchain := 1.0
			if n%4 == 3 {
				pchain = 0.5
			}
			g := randDAG(r, 1+r.Intn(6), 8, pchain)
			algn, err := NewAligner(p, g, nil)
			require.NoError(t, err)

			var q []byte
			if n%4 == 0 {
				q = randSeq(r, r.Intn(12))
			} else {
				q = mutate(r, randPathSeq(r, g), 0.15)
			}

			starts, ends := terminals(g)
			expected := dpScore(p, g, q, starts, ends)
			require.Less(t, expected, inf)

			result, err := algn.Align(q)
			require.NoError(t, err, "%s, query %s", p, q)
			assert.Equal(t, expected, result.Score, "%s, query %s, graph %s", p, q, dumpGraph(g))
			assert.Empty(t, g.Vertices[result.Start.Vertex].In)
			assert.Empty(t, g.Vertices[result.End.Vertex].Out)
			assert.Equal(t, len(g.Vertices[result.End.Vertex].Seq), result.End.Offset)
			checkAlignment(t, p, g, q, result)
			RecycleAlignment(result)
		}
	}
}

func TestRandomPositionsAgainstDP(t *testing.T) {
	r := rand.New(rand.NewSource(7))

	dual, _ := NewDualAffinePenalties(0, 4, 2, 3, 12, 1)
	for _, p := range []*Penalties{&DefaultPenalties, dual} {
		for n := 0; n < 300; n++ {
			g := randGraph(r, 2+r.Intn(5), 8)
			algn, err := NewAligner(p, g, nil)
			require.NoError(t, err)

			start := Position{Vertex: r.Intn(len(g.Vertices))}
			start.Offset = r.Intn(len(g.Vertices[start.Vertex].Seq) + 1)
			end := Position{Vertex: start.Vertex + r.Intn(len(g.Vertices)-start.Vertex)}
			end.Offset = r.Intn(len(g.Vertices[end.Vertex].Seq) + 1)
			q := randSeq(r, r.Intn(10))
			if n%2 == 0 {
				q = mutate(r, randPathSeq(r, g), 0.15)
			}

			expected := dpScore(p, g, q, []Position{start}, []Position{end})
			result, err := algn.AlignFrom(q, start, end)
			if expected == inf {
				assert.ErrorIs(t, err, ErrUnreachable)
				continue
			}
			require.NoError(t, err)
			assert.Equal(t, expected, result.Score, "query %s, %v -> %v, graph %s", q, start, end, dumpGraph(g))
			assert.Equal(t, start, result.Start)
			assert.Equal(t, end, result.End)
			checkAlignment(t, p, g, q, result)
			RecycleAlignment(result)
		}
	}
}

func dumpGraph(g *Graph) string {
	var sb strings.Builder
	g.WriteDOT(&sb)
	return sb.String()
}
