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
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
	"github.com/shenwei356/gwfa"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// config is filled by viper from flags, GWFA_* environment variables
// and the optional config file.
type config struct {
	Match    int `mapstructure:"match"`
	Mismatch int `mapstructure:"mismatch"`
	GapOpen  int `mapstructure:"gap-open"`
	GapExt   int `mapstructure:"gap-ext"`
	GapOpen2 int `mapstructure:"gap-open2"`
	GapExt2  int `mapstructure:"gap-ext2"`

	Graph   string `mapstructure:"graph"`
	Queries string `mapstructure:"queries"`
	OutFile string `mapstructure:"out-file"`
	Format  string `mapstructure:"format"`
	DOTFile string `mapstructure:"dot"`

	MSA           bool   `mapstructure:"msa"`
	ConsensusFile string `mapstructure:"consensus"`

	Threads   int  `mapstructure:"threads"`
	ScoreOnly bool `mapstructure:"score-only"`
	MaxScore  int  `mapstructure:"max-score"`
	Progress  bool `mapstructure:"progress"`

	CPUProfile bool `mapstructure:"cpu-pprof"`
	MemProfile bool `mapstructure:"mem-pprof"`
}

// penalties returns the penalties of the config:
// dual gap-affine with second-tier costs, gap-linear without gap open cost,
// and gap-affine otherwise.
func (c *config) penalties() (*gwfa.Penalties, error) {
	switch {
	case c.GapOpen2 > 0 || c.GapExt2 > 0:
		return gwfa.NewDualAffinePenalties(c.Match, c.Mismatch, c.GapOpen, c.GapExt, c.GapOpen2, c.GapExt2)
	case c.GapOpen == 0:
		return gwfa.NewLinearPenalties(c.Match, c.Mismatch, c.GapExt)
	default:
		return gwfa.NewAffinePenalties(c.Match, c.Mismatch, c.GapOpen, c.GapExt)
	}
}

var cfgFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "gwfa",
	Short: "Sequence-to-graph alignment with graph wavefronts",
	Long: fmt.Sprintf(`Sequence-to-graph alignment with graph wavefronts

 Author: Wei Shen <shenwei356@gmail.com>
   Code: https://github.com/shenwei356/gwfa
Version: v%s

Input query format (FASTA-like, sequences may span several lines):

  >name
  ACGTACGT...

  or, with the start position (segment, offset, orientation),
  and optionally the end position:

  >segment offset +|- [segment offset +|-]
  ACGTACGT...

  Without positions, queries are aligned from any vertex without
  incoming edges to any vertex without outgoing edges. With only the
  start position, the alignment ends at any vertex without outgoing edges.

With --msa, no graph is needed: queries are folded in order into a
partial order graph, and the multiple sequence alignment is written
in FASTA format, with "-" for gaps.

Queries can also be given as positional arguments.
Files ending with .zst are decompressed.
`, version),
	Version: version,
	Args:    cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var c config
		if err := viper.Unmarshal(&c); err != nil {
			return errors.Wrap(err, "unable to decode the config")
		}
		if c.Graph == "" && !c.MSA {
			return errors.New("flag --graph/-g needed")
		}
		if c.Queries == "" && len(args) == 0 {
			return errors.New("flag --queries/-s or query sequences as positional arguments needed")
		}
		if c.Threads < 1 {
			c.Threads = 1
		}
		cmd.SilenceUsage = true
		return run(&c, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		klog.Flush()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	d := gwfa.DefaultPenalties
	flags := rootCmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "config file (YAML, TOML or JSON)")

	flags.IntP("match", "m", d.Match, "match penalty")
	flags.IntP("mismatch", "x", d.Mismatch, "mismatch penalty")
	flags.IntP("gap-open", "o", d.GapOpen, "gap open penalty, 0 for gap-linear penalties")
	flags.IntP("gap-ext", "e", d.GapExt, "gap extension penalty")
	flags.IntP("gap-open2", "O", 0, "second gap open penalty, for dual gap-affine penalties")
	flags.IntP("gap-ext2", "E", 0, "second gap extension penalty, for dual gap-affine penalties")

	flags.StringP("graph", "g", "", "graph file in GFA format")
	flags.StringP("queries", "s", "", `query sequences with optional positions, "-" for stdin`)
	flags.StringP("out-file", "f", "-", `output file, "-" for stdout`)
	flags.String("format", "text", `output format: "text" or "gaf"`)
	flags.String("dot", "", "write the graph in DOT format to this file, the compacted partial order graph with --msa")

	flags.Bool("msa", false, "build the multiple sequence alignment of the queries by partial order alignment")
	flags.String("consensus", "", "write the consensus sequence of --msa to this file")

	flags.IntP("threads", "j", 4, "number of threads")
	flags.BoolP("score-only", "S", false, "only compute alignment scores")
	flags.Int("max-score", 0, "maximum alignment score, 0 for the cost of deleting the graph and inserting the query")
	flags.BoolP("progress", "p", false, "show the progress bar")

	flags.Bool("cpu-pprof", false, "cpu pprof. go tool pprof -http=:8080 cpu.pprof")
	flags.Bool("mem-pprof", false, "mem pprof. go tool pprof -http=:8080 mem.pprof")

	viper.BindPFlags(flags)
}

// initConfig reads in the config file and environment variables if set.
func initConfig() {
	viper.SetEnvPrefix("GWFA")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if cfgFile == "" {
		return
	}
	viper.SetConfigFile(cfgFile)
	if err := viper.ReadInConfig(); err != nil {
		klog.Fatalf("failed to read config file %s: %s", cfgFile, err)
	}
	klog.V(1).Infof("using config file: %s", viper.ConfigFileUsed())
}
