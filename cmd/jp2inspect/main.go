// Command jp2inspect parses a JP2 container and prints its box tree.
package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/jp2kit/jp2core/box"
	"github.com/jp2kit/jp2core/internal/jp2log"
)

const (
	appName        = "jp2inspect"
	appDescription = "Inspect the box structure of a JPEG 2000 (JP2) container"
)

// CLI is the root command structure.
type CLI struct {
	Dump    DumpCmd    `cmd:"" default:"1" help:"Print the top-level box tree of a JP2 file"`
	Header  HeaderCmd  `cmd:"" help:"Print the decoded jp2h image header fields"`
	Verify  VerifyCmd  `cmd:"" help:"Validate a JP2 file against the container invariants"`
	Debug   bool       `help:"Enable debug-level trace logging" default:"false"`
	Version kong.VersionFlag `help:"Show version and exit"`
}

// DumpCmd prints every top-level box with its offset and length.
type DumpCmd struct {
	Path string `arg:"" type:"existingfile" help:"Path to a .jp2 file"`
}

func (c *DumpCmd) Run(cli *CLI) error {
	f, err := decode(c.Path, cli.Debug)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintln(w, "TYPE\tOFFSET\tLENGTH")

	if f.Signature != nil {
		fmt.Fprintf(w, "%s\t%d\t%d\n", f.Signature.Identifier(), f.Signature.Offset, f.Signature.Length)
	}
	if f.FileType != nil {
		fmt.Fprintf(w, "%s\t%d\t%d\n", f.FileType.Identifier(), f.FileType.Offset, f.FileType.Length)
	}
	if f.Header != nil {
		fmt.Fprintf(w, "%s\t%d\t%d\n", f.Header.Identifier(), f.Header.Offset, f.Header.Length)
	}
	if f.IntellectualProperty != nil {
		fmt.Fprintf(w, "%s\t%d\t%d\n", f.IntellectualProperty.Identifier(), f.IntellectualProperty.Offset, f.IntellectualProperty.Length)
	}
	for _, x := range f.XMLBoxes {
		fmt.Fprintf(w, "%s\t%d\t%d\n", x.Identifier(), x.Offset, x.Length)
	}
	for _, u := range f.UUIDBoxes {
		fmt.Fprintf(w, "%s\t%d\t%d\n", u.Identifier(), u.Offset, u.Length)
	}
	for _, info := range f.UUIDInfoBoxes {
		fmt.Fprintf(w, "%s\t%d\t%d\n", info.Identifier(), info.Offset, info.Length)
	}
	for _, cs := range f.Codestreams {
		fmt.Fprintf(w, "%s\t%d\t%d\n", cs.Identifier(), cs.Offset, cs.Length)
	}
	for _, unk := range f.Unknown {
		fmt.Fprintf(w, "%s (unknown)\t%d\t%d\n", unk.Identifier(), unk.Offset, unk.Length)
	}

	return nil
}

// HeaderCmd prints the decoded ihdr fields.
type HeaderCmd struct {
	Path string `arg:"" type:"existingfile" help:"Path to a .jp2 file"`
}

func (c *HeaderCmd) Run(cli *CLI) error {
	f, err := decode(c.Path, cli.Debug)
	if err != nil {
		return err
	}
	if f.Header == nil || f.Header.ImageHeader == nil {
		return fmt.Errorf("%s: no jp2h/ihdr box present", c.Path)
	}
	ihdr := f.Header.ImageHeader
	depth, varies := ihdr.ComponentsBits()
	if varies {
		fmt.Printf("%dx%d, %d components, per-component bit depth (see bpcc)\n", ihdr.Width, ihdr.Height, ihdr.NumComponents)
	} else {
		fmt.Printf("%dx%d, %d components, %d bits/component, signed=%v\n", ihdr.Width, ihdr.Height, ihdr.NumComponents, depth.Bits, depth.Signed)
	}
	for _, colr := range f.Header.ColourSpecs {
		fmt.Printf("colour method=%d reserved=%v enumerated-cs=%d reserved-cs=%v\n",
			colr.Method, colr.IsReservedMethod(), colr.EnumeratedColourSpace, colr.IsReservedColourSpace())
	}
	return nil
}

// VerifyCmd validates a JP2 file against the top-level container invariants.
type VerifyCmd struct {
	Path string `arg:"" type:"existingfile" help:"Path to a .jp2 file"`
}

func (c *VerifyCmd) Run(cli *CLI) error {
	f, err := decode(c.Path, cli.Debug)
	if err != nil {
		return err
	}
	if err := f.Validate(); err != nil {
		return fmt.Errorf("%s: invalid JP2 container: %w", c.Path, err)
	}
	fmt.Printf("%s: valid JP2 container, %d byte(s)\n", c.Path, f.Length)
	return nil
}

func decode(path string, debug bool) (*box.JP2File, error) {
	if debug {
		jp2log.SetLevel(log.DebugLevel)
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	f, err := box.DecodeJP2(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

func main() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name(appName),
		kong.Description(appDescription),
		kong.UsageOnError(),
		kong.Vars{"version": "0.1.0"},
	)
	err := ctx.Run(cli)
	ctx.FatalIfErrorf(err)
}
