// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command padi inspects ITS raw readout data: it validates a CDP
// stream against the continuous-mode payload grammar and RDH running
// checks (check), dumps it in a human-readable form (view), or
// re-emits one link's data verbatim (filter-link). version prints the
// build's module version and checksum.
//
// Usage: padi [check|view|filter-link|version] [OPTIONS] [FILE]
//
// Example:
//
//	$> padi check --sanity run0001.raw
//	$> padi filter-link --link 3 --output link3.raw run0001.raw
package main // import "github.com/go-lpc/padi/cmd/padi"

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-lpc/padi"
	"github.com/go-lpc/padi/config"
	"github.com/go-lpc/padi/pipeline"
	"github.com/go-lpc/padi/reader"
	"github.com/go-lpc/padi/scanner"
	"github.com/go-lpc/padi/stats"
	"github.com/go-lpc/padi/validator"
	"github.com/go-lpc/padi/view"
	"github.com/go-lpc/padi/writer"
)

func main() {
	log.SetPrefix("padi: ")
	log.SetFlags(0)
	os.Exit(xmain(os.Args[1:]))
}

const usageText = `padi inspects ITS raw readout data.

Usage: padi [check|view|filter-link|version] [OPTIONS] [FILE]

If FILE is omitted, padi reads from stdin.

Example:

 $> padi check --sanity run0001.raw
 $> padi filter-link --link 3 --output link3.raw run0001.raw

options:
`

func xmain(args []string) int {
	if len(args) == 0 {
		usage(nil)
		return 3
	}

	cmd := args[0]
	if cmd == "version" {
		version, sum := padi.Version()
		fmt.Printf("padi %s %s\n", version, sum)
		return 0
	}

	var mode config.Mode
	switch cmd {
	case "check":
		mode = config.Check
	case "view":
		mode = config.View
	case "filter-link":
		mode = config.Filter
	default:
		usage(nil)
		return 3
	}

	fset := flag.NewFlagSet(cmd, flag.ContinueOnError)
	sanity := fset.Bool("sanity", false, "enable RDH sanity checks")
	linkID := fset.Int("link", -1, "link_id to restrict processing to")
	output := fset.String("output", "", "output file path (default: stdout)")
	dumpRDHs := fset.Bool("dump-rdhs", false, "dump a tabular RDH view to stdout")
	fset.Usage = func() { usage(fset) }

	if err := fset.Parse(args[1:]); err != nil {
		return 3
	}
	if fset.NArg() > 1 {
		usage(fset)
		return 3
	}
	if mode == config.Filter && *linkID < 0 {
		log.Printf("filter-link requires --link")
		return 3
	}

	opts := []config.Option{
		config.WithMode(mode),
		config.WithSanityChecks(*sanity),
		config.WithOutput(*output),
		config.WithDumpRDHs(*dumpRDHs),
	}
	if *linkID >= 0 {
		opts = append(opts, config.WithLinkFilter(uint8(*linkID)))
	}
	if fset.NArg() == 1 {
		opts = append(opts, config.WithInput(fset.Arg(0)))
	}

	return run(config.New(opts...))
}

func usage(fset *flag.FlagSet) {
	fmt.Fprint(os.Stderr, usageText)
	if fset != nil {
		fset.PrintDefaults()
	} else {
		flag.PrintDefaults()
	}
}

// run wires the pipeline together from cfg and drives it to
// completion, returning the process exit code.
func run(cfg config.Config) int {
	rdr, closeIn, err := openInput(cfg.InputPath)
	if err != nil {
		log.Printf("%+v", err)
		return 2
	}
	defer closeIn()

	out, closeOut, err := openOutput(cfg.OutputPath)
	if err != nil {
		log.Printf("%+v", err)
		return 2
	}
	defer closeOut()

	sc := scanner.New(rdr)

	var src pipeline.Source = pipeline.CheckSource{Scanner: sc}
	if cfg.HasLink {
		src = pipeline.FilterSource{Scanner: sc, LinkID: cfg.LinkToFilter}
	}
	if cfg.DumpRDHs {
		src = dumpingSource{Source: src, w: os.Stdout}
	}

	var consumer pipeline.Consumer
	var fw *writer.Consumer
	switch cfg.Mode {
	case config.View:
		consumer = view.New(out)
	case config.Filter:
		fw = writer.New(out)
		consumer = fw
	default:
		consumer = validator.New(cfg.SanityChecks)
	}

	statsCtl := stats.New(os.Stdout)
	runErr := pipeline.Run(src, consumer, statsCtl, os.Stdout)

	if fw != nil {
		if ferr := fw.Flush(); ferr != nil && runErr == nil {
			runErr = ferr
		}
	}

	if runErr != nil {
		log.Printf("%+v", runErr)
		return 2
	}
	if statsCtl.ErrorCount() > 0 {
		return 1
	}
	return 0
}

// dumpingSource decorates a pipeline.Source with the independent
// tabular RDH dump of --dump-rdhs, printing one line per RDH as it is
// read regardless of which consumer mode is active.
type dumpingSource struct {
	pipeline.Source
	w io.Writer
}

func (d dumpingSource) Next() (scanner.CdpChunk, error) {
	chunk, err := d.Source.Next()
	if err != nil {
		return chunk, err
	}
	view.DumpRDHTable(d.w, chunk)
	return chunk, nil
}

func openInput(path string) (reader.Reader, func(), error) {
	if path == "" {
		return reader.NewStdin(os.Stdin), func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("could not open input file %q: %w", path, err)
	}
	return reader.NewFile(f), func() { f.Close() }, nil
}

func openOutput(path string) (*os.File, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("could not create output file %q: %w", path, err)
	}
	return f, func() { f.Close() }, nil
}
