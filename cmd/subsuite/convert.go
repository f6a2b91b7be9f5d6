package main

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ebarrett/subsuite/internal/convert"
	"github.com/ebarrett/subsuite/internal/report"
	"github.com/ebarrett/subsuite/internal/wire"
)

func newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a result stream between wire formats or into a report",
		RunE:  runConvert,
	}

	flags := cmd.Flags()
	flags.String("from", "v1", "source wire format (v1|v2)")
	flags.String("to", "v2", "target format (v1|v2|junit)")
	flags.String("in", "", "input file (default: stdin)")
	flags.String("out", "", "output file (default: stdout)")
	flags.String("suite", "stream", "suite name for junit output")

	return cmd
}

func runConvert(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	from, _ := flags.GetString("from")
	to, _ := flags.GetString("to")
	inPath, _ := flags.GetString("in")
	outPath, _ := flags.GetString("out")
	suite, _ := flags.GetString("suite")

	fromVersion, err := wire.ParseVersion(from)
	if err != nil {
		return fmt.Errorf("--from: %w", err)
	}

	in := cmd.InOrStdin()
	if inPath != "" {
		f, err := os.Open(inPath)
		if err != nil {
			return fmt.Errorf("open input %q: %w", inPath, err)
		}
		defer f.Close()
		in = f
	}

	verbose, _ := flags.GetBool("verbose")
	opts := convert.Options{Log: newLogger(cmd, verbose)}
	dec := wire.NewDecoder(fromVersion, in)

	if to == "junit" {
		doc, err := convert.Aggregate(dec, suite, opts)
		if err != nil {
			return err
		}
		if outPath != "" {
			return report.WriteJUnit(outPath, doc)
		}
		return writeDocument(cmd.OutOrStdout(), doc)
	}

	toVersion, err := wire.ParseVersion(to)
	if err != nil {
		return fmt.Errorf("--to: %w", err)
	}

	out := cmd.OutOrStdout()
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output %q: %w", outPath, err)
		}
		defer f.Close()
		out = f
	}

	return convert.Pipe(dec, wire.NewEncoder(toVersion, out), opts)
}

func writeDocument(w io.Writer, doc report.Document) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}
