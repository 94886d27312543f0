// dmr - conversion tool for Dynamic Model Representation documents.
//
// Usage:
//
//	dmr fmt [--compact] [file]              Re-render DMR text
//	dmr json [--compact] [--from-json] [file]
//	                                        Convert DMR to JSON (or back)
//	dmr encode [--base64] [--gzip] [file]   DMR text to the binary form
//	dmr decode [--base64] [--gzip] [--json] [file]
//	                                        Binary form back to text
//
// If no file is given, input is read from stdin. Output goes to stdout,
// diagnostics to stderr.
package main

import (
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jasondlee/jboss-dmr/dmr"
)

var log = logrus.New()

func main() {
	var verbose bool

	root := &cobra.Command{
		Use:           "dmr",
		Short:         "Convert Dynamic Model Representation documents between encodings",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetOutput(os.Stderr)
			if verbose {
				log.SetLevel(logrus.DebugLevel)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newFmtCommand())
	root.AddCommand(newJSONCommand())
	root.AddCommand(newEncodeCommand())
	root.AddCommand(newDecodeCommand())

	if err := root.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

// readInput returns the whole input document: the named file, or stdin.
func readInput(args []string) ([]byte, error) {
	if len(args) > 0 {
		data, err := os.ReadFile(args[0])
		return data, errors.Wrapf(err, "reading %s", args[0])
	}
	data, err := io.ReadAll(os.Stdin)
	return data, errors.Wrap(err, "reading stdin")
}

func newFmtCommand() *cobra.Command {
	var compact bool
	cmd := &cobra.Command{
		Use:   "fmt [file]",
		Short: "Parse DMR text and re-render it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput(args)
			if err != nil {
				return err
			}
			node, err := dmr.FromString(string(input))
			if err != nil {
				return err
			}
			log.Debugf("parsed %s value", node.Type())
			if err := node.WriteTo(os.Stdout, compact); err != nil {
				return err
			}
			_, err = os.Stdout.WriteString("\n")
			return err
		},
	}
	cmd.Flags().BoolVarP(&compact, "compact", "c", false, "render on one line")
	return cmd
}

func newJSONCommand() *cobra.Command {
	var compact, fromJSON bool
	cmd := &cobra.Command{
		Use:   "json [file]",
		Short: "Convert DMR text to JSON, or JSON back to DMR with --from-json",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput(args)
			if err != nil {
				return err
			}
			if fromJSON {
				node, err := dmr.FromJSONString(string(input))
				if err != nil {
					return err
				}
				if err := node.WriteTo(os.Stdout, compact); err != nil {
					return err
				}
			} else {
				node, err := dmr.FromString(string(input))
				if err != nil {
					return err
				}
				if err := node.WriteJSONTo(os.Stdout, compact); err != nil {
					return err
				}
			}
			_, err = os.Stdout.WriteString("\n")
			return err
		},
	}
	cmd.Flags().BoolVarP(&compact, "compact", "c", false, "render on one line")
	cmd.Flags().BoolVar(&fromJSON, "from-json", false, "treat the input as JSON")
	return cmd
}

func newEncodeCommand() *cobra.Command {
	var useBase64, useGzip bool
	cmd := &cobra.Command{
		Use:   "encode [file]",
		Short: "Encode DMR text into the binary external form",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput(args)
			if err != nil {
				return err
			}
			node, err := dmr.FromString(string(input))
			if err != nil {
				return err
			}
			var out io.Writer = os.Stdout
			if useGzip {
				gz := gzip.NewWriter(out)
				defer func() {
					if err := gz.Close(); err != nil {
						log.Error(err)
					}
				}()
				out = gz
			}
			if useBase64 {
				if err := node.WriteBase64(out); err != nil {
					return err
				}
				if !useGzip {
					_, err := os.Stdout.WriteString("\n")
					return err
				}
				return nil
			}
			return node.WriteExternal(out)
		},
	}
	cmd.Flags().BoolVar(&useBase64, "base64", false, "wrap the binary form in base64")
	cmd.Flags().BoolVar(&useGzip, "gzip", false, "compress the output")
	return cmd
}

func newDecodeCommand() *cobra.Command {
	var useBase64, useGzip, asJSON, compact bool
	cmd := &cobra.Command{
		Use:   "decode [file]",
		Short: "Decode the binary external form back to text",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader
			if len(args) > 0 {
				f, err := os.Open(args[0])
				if err != nil {
					return errors.Wrapf(err, "opening %s", args[0])
				}
				defer f.Close()
				in = f
			} else {
				in = os.Stdin
			}
			if useGzip {
				gz, err := gzip.NewReader(in)
				if err != nil {
					return errors.Wrap(err, "reading gzip stream")
				}
				defer gz.Close()
				in = gz
			}
			var node *dmr.Node
			var err error
			if useBase64 {
				node, err = dmr.FromBase64(in)
			} else {
				node, err = dmr.FromExternal(in)
			}
			if err != nil {
				return err
			}
			if asJSON {
				err = node.WriteJSONTo(os.Stdout, compact)
			} else {
				err = node.WriteTo(os.Stdout, compact)
			}
			if err != nil {
				return err
			}
			_, err = os.Stdout.WriteString("\n")
			return err
		},
	}
	cmd.Flags().BoolVar(&useBase64, "base64", false, "treat the input as base64")
	cmd.Flags().BoolVar(&useGzip, "gzip", false, "decompress the input")
	cmd.Flags().BoolVar(&asJSON, "json", false, "render JSON instead of DMR text")
	cmd.Flags().BoolVarP(&compact, "compact", "c", false, "render on one line")
	return cmd
}
