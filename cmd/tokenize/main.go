// Command tokenize loads a tokenizer.json directory and round-trips text
// through it, as a quick alignment check against a reference corpus.
package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tokenlattice/tokenizers/logutil"
	"github.com/tokenlattice/tokenizers/tokenizer"
)

func main() {
	cobra.CheckErr(newCLI().Execute())
}

func newCLI() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "tokenize <model-dir>",
		Short: "Encode and decode text with a loaded HuggingFace tokenizer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if verbose {
				level = logutil.LevelTrace
			}
			slog.SetDefault(logutil.NewLogger(os.Stderr, level))

			return run(args[0])
		},
	}

	root.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable trace logging")
	return root
}

func run(dir string) error {
	tok, err := tokenizer.LoadDir(dir)
	if err != nil {
		return fmt.Errorf("loading tokenizer: %w", err)
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()

		ids, err := tok.Encode(line, true)
		if err != nil {
			return fmt.Errorf("encoding: %w", err)
		}

		decoded, err := tok.Decode(ids, true)
		if err != nil {
			return fmt.Errorf("decoding: %w", err)
		}

		fmt.Printf("ids=%v text=%q\n", ids, decoded)
	}

	return scanner.Err()
}
