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
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/pkg/profile"
	"github.com/plan-systems/klog"
	"github.com/shenwei356/gwfa"
	"github.com/shenwei356/gwfa/gfa"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/sync/errgroup"
)

func run(c *config, args []string) error {
	// go tool pprof -http=:8080 cpu.pprof
	if c.CPUProfile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	} else if c.MemProfile {
		defer profile.Start(profile.MemProfile, profile.ProfilePath(".")).Stop()
	}

	if c.Format != "text" && c.Format != "gaf" {
		return errors.Errorf("unsupported output format: %s", c.Format)
	}
	if c.Format == "gaf" && c.ScoreOnly && !c.MSA {
		return errors.New("GAF output needs alignments, please do not use --score-only")
	}

	timeStart := time.Now()

	p, err := c.penalties()
	if err != nil {
		return err
	}

	var queries []*query
	if c.Queries != "" {
		fh, err := openInput(c.Queries)
		if err != nil {
			return err
		}
		queries, err = readQueries(fh)
		fh.Close()
		if err != nil {
			return errors.Wrapf(err, "failed to parse query file: %s", c.Queries)
		}
	}
	for i, s := range args {
		queries = append(queries, &query{name: fmt.Sprintf("arg_%d", i), seq: []byte(s)})
	}

	if c.MSA {
		return runMSA(c, p, queries, timeStart)
	}

	g, err := readGraph(c.Graph)
	if err != nil {
		return err
	}
	if err = g.Validate(); err != nil {
		return errors.Wrapf(err, "invalid graph: %s", c.Graph)
	}
	if err = writeDOT(c.DOTFile, g); err != nil {
		return err
	}

	klog.Infof("graph: %s vertices, %s bp; penalties: %s; %s queries",
		humanize.Comma(int64(g.NumVertices())), humanize.Comma(int64(g.TotalLength())),
		p, humanize.Comma(int64(len(queries))))

	var pbs *mpb.Progress
	var bar *mpb.Bar
	if c.Progress {
		pbs = mpb.New(mpb.WithWidth(40), mpb.WithOutput(os.Stderr))
		bar = pbs.AddBar(int64(len(queries)),
			mpb.PrependDecorators(
				decor.Name("aligned queries: ", decor.WC{W: len("aligned queries: "), C: decor.DindentRight}),
				decor.Name("", decor.WCSyncSpaceR),
				decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
			),
			mpb.AppendDecorators(
				decor.Name("ETA: ", decor.WC{W: len("ETA: ")}),
				decor.EwmaETA(decor.ET_STYLE_GO, 1024),
				decor.OnComplete(decor.Name(""), ". done"),
			),
		)
	}

	opt := &gwfa.Options{ScoreOnly: c.ScoreOnly, MaxScore: c.MaxScore}
	outputs := make([][]byte, len(queries))
	var ncells, nfailed atomic.Int64

	eg, ctx := errgroup.WithContext(context.Background())
	ch := make(chan int, c.Threads)
	eg.Go(func() error {
		defer close(ch)
		for i := range queries {
			select {
			case ch <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for t := 0; t < c.Threads; t++ {
		eg.Go(func() error {
			algn, err := gwfa.NewAligner(p, g, opt)
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			for i := range ch {
				timeQ := time.Now()
				q := queries[i]

				result, err := q.align(algn)
				if err != nil {
					if !errors.Is(err, gwfa.ErrUnreachable) {
						return errors.Wrapf(err, "query %s", q.name)
					}
					klog.Warningf("query %s: %s", q.name, err)
					nfailed.Add(1)
				} else {
					ncells.Add(int64(algn.NumCells()))

					buf.Reset()
					if err = output(&buf, c, q, g, result); err != nil {
						return err
					}
					outputs[i] = append([]byte(nil), buf.Bytes()...)
					gwfa.RecycleAlignment(result)
				}

				if bar != nil {
					bar.EwmaIncrBy(1, time.Since(timeQ))
				}
			}
			return nil
		})
	}

	err = eg.Wait()
	if pbs != nil {
		if err != nil {
			bar.Abort(false)
		}
		pbs.Wait()
	}
	if err != nil {
		return err
	}

	outfh, closeOut, err := createOutput(c.OutFile)
	if err != nil {
		return err
	}
	for _, out := range outputs {
		outfh.Write(out)
	}
	if err = closeOut(); err != nil {
		return err
	}

	klog.Infof("%s queries aligned (%s failed), %s cells, elapsed time: %s",
		humanize.Comma(int64(len(queries))-nfailed.Load()), humanize.Comma(nfailed.Load()),
		humanize.Comma(ncells.Load()), time.Since(timeStart))
	return nil
}

// output formats an alignment.
func output(wtr io.Writer, c *config, q *query, g *gwfa.Graph, result *gwfa.Alignment) error {
	if c.ScoreOnly {
		_, err := fmt.Fprintf(wtr, "%s\t%d\n", q.name, result.Score)
		return err
	}
	if c.Format == "gaf" {
		return gfa.WriteGAF(wtr, q.name, q.seq, g, result)
	}

	Q, A, T := result.AlignmentText(q.seq, g)
	fmt.Fprintf(wtr, "query   %s\n", *Q)
	fmt.Fprintf(wtr, "        %s\n", *A)
	fmt.Fprintf(wtr, "target  %s\n", *T)
	gwfa.RecycleAlignmentText(Q, A, T)

	fmt.Fprintf(wtr, "name    %s\n", q.name)
	fmt.Fprintf(wtr, "score   %d\n", result.Score)
	fmt.Fprintf(wtr, "cigar   %s\n", result.CIGAR())
	fmt.Fprintf(wtr, "path   ")
	for k, v := range result.Path {
		fmt.Fprintf(wtr, " %s(%d)", g.Vertices[v].Name, result.PathScores[k])
	}
	fmt.Fprintln(wtr)
	var pct float64
	if result.AlignLen > 0 {
		pct = float64(result.Matches) / float64(result.AlignLen) * 100
	}
	_, err := fmt.Fprintf(wtr, "length: %d, matches: %d (%.2f%%), gaps: %d, gap regions: %d\n\n",
		result.AlignLen, result.Matches, pct, result.Gaps, result.GapRegions)
	return err
}

// createOutput creates the output file, or stdout for "-".
// The returned function flushes and closes it.
func createOutput(file string) (*bufio.Writer, func() error, error) {
	if file == "-" {
		w := bufio.NewWriter(os.Stdout)
		return w, func() error {
			return errors.Wrap(w.Flush(), "failed to write the output")
		}, nil
	}
	fh, err := os.Create(file)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to write file: %s", file)
	}
	w := bufio.NewWriter(fh)
	return w, func() error {
		if err := w.Flush(); err != nil {
			fh.Close()
			return errors.Wrapf(err, "failed to write file: %s", file)
		}
		return errors.Wrapf(fh.Close(), "failed to close file: %s", file)
	}, nil
}

// writeDOT writes the graph in DOT format, if the file is given.
func writeDOT(file string, g *gwfa.Graph) error {
	if file == "" {
		return nil
	}
	outfh, closeOut, err := createOutput(file)
	if err != nil {
		return err
	}
	g.WriteDOT(outfh)
	return closeOut()
}
