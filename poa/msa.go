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

package poa

import (
	"github.com/emirpasic/gods/stacks/arraystack"
	"github.com/pkg/errors"
	"github.com/shenwei356/gwfa"
)

// Gap is the symbol of gaps in MSA rows.
const Gap = '-'

// columns returns the column of each node, aligned nodes share one column.
func (g *Graph) columns() ([]int, int, error) {
	n := len(g.nodes)
	group := make([]int, n) // the smallest node ID of the column
	for v := range g.nodes {
		group[v] = v
		for _, a := range g.nodes[v].aligned {
			group[v] = min(group[v], a)
		}
	}

	succ := make(map[int][]int, n)
	indeg := make([]int, n)
	for _, e := range g.edges {
		gf, gt := group[e.from], group[e.to]
		if gf == gt {
			continue
		}
		succ[gf] = append(succ[gf], gt)
		indeg[gt]++
	}

	stack := arraystack.New()
	var ngroups int
	for v := range g.nodes {
		if group[v] == v {
			ngroups++
			if indeg[v] == 0 {
				stack.Push(v)
			}
		}
	}
	column := make([]int, n)
	var ncols int
	for !stack.Empty() {
		top, _ := stack.Pop()
		v := top.(int)
		column[v] = ncols
		ncols++
		for _, w := range succ[v] {
			indeg[w]--
			if indeg[w] == 0 {
				stack.Push(w)
			}
		}
	}
	if ncols != ngroups {
		return nil, 0, errors.Wrapf(gwfa.ErrCyclicGraph, "%d of %d columns in order", ncols, ngroups)
	}

	for v := range g.nodes {
		column[v] = column[group[v]]
	}
	return column, ncols, nil
}

// MSA returns the rows of the multiple sequence alignment,
// one for each sequence in the order they were added, with Gap for gaps.
func (g *Graph) MSA() ([][]byte, error) {
	column, ncols, err := g.columns()
	if err != nil {
		return nil, err
	}

	rows := make([][]byte, len(g.paths))
	for s, path := range g.paths {
		row := make([]byte, ncols)
		for i := range row {
			row[i] = Gap
		}
		for _, v := range path {
			row[column[v]] = g.nodes[v].base
		}
		rows[s] = row
	}
	return rows, nil
}

// Consensus returns the bases of the heaviest path, where the weight of
// an edge is the number of sequences through it.
func (g *Graph) Consensus() ([]byte, error) {
	order, err := g.order()
	if err != nil {
		return nil, err
	}

	score := make([]int, len(g.nodes))
	pred := make([]int, len(g.nodes))
	best := -1
	for _, v := range order {
		pred[v] = -1
		for _, e := range g.nodes[v].in {
			ed := &g.edges[e]
			if s := score[ed.from] + ed.weight; pred[v] < 0 || s > score[v] {
				score[v], pred[v] = s, ed.from
			}
		}
		if best < 0 || score[v] > score[best] {
			best = v
		}
	}

	var seq []byte
	for v := best; v >= 0; v = pred[v] {
		seq = append(seq, g.nodes[v].base)
	}
	for i, j := 0, len(seq)-1; i < j; i, j = i+1, j-1 {
		seq[i], seq[j] = seq[j], seq[i]
	}
	return seq, nil
}
