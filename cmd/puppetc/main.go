// puppetc compiles one or more Puppet manifests into a catalog and
// prints it, for example:
//
//	puppetc site.pp
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/puppetlabs/puppetlang/facts"
	"github.com/puppetlabs/puppetlang/internal/compiler"
	"github.com/puppetlabs/puppetlang/logging"
	"github.com/puppetlabs/puppetlang/syntax/errors"
	"github.com/puppetlabs/puppetlang/syntax/token"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: puppetc [flags] file.pp [file.pp ...]\n")
		flag.PrintDefaults()
	}
	factsPath := flag.String("facts", "", "YAML file of facts to seed the root scope")
	verbose := flag.Bool("v", false, "log diagnostics at debug level and above")
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	fp := facts.New()
	if *factsPath != "" {
		if err := fp.LoadFactsFile(*factsPath); err != nil {
			log.Fatal(err)
		}
	}

	sink := &stderrSink{verbose: *verbose}
	sess := compiler.NewSession(fp, sink)

	sources := make([]compiler.Source, 0, flag.NArg())
	for _, path := range flag.Args() {
		text, err := os.ReadFile(path)
		if err != nil {
			log.Fatal(err)
		}
		sources = append(sources, compiler.Source{Path: path, Text: text})
	}

	res := sess.Compile(sources)
	if len(res.Errors) > 0 {
		for _, e := range res.Errors.Sort() {
			fmt.Fprintln(os.Stderr, errors.Print(e))
		}
		os.Exit(1)
	}

	for _, r := range res.Catalog.Resources() {
		fmt.Printf("%s\n", r.Ref())
		for _, name := range r.AttrOrder {
			fmt.Printf("  %s => %v\n", name, r.Attrs[name].Value)
		}
	}
}

type stderrSink struct{ verbose bool }

func (s *stderrSink) Log(level logging.Level, pos token.Position, message string) {
	if !s.verbose && level < logging.Warning {
		return
	}
	fmt.Fprintf(os.Stderr, "%s: %s: %s\n", level, pos, message)
}
