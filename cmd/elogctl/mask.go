package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/secureworks/elog/redact"
)

func newMaskCmd(root *rootOptions) *cobra.Command {
	var minLength int
	cmd := &cobra.Command{
		Use:   "mask [statement...]",
		Short: "Mask passwords and keys in SQL statements",
		Long: `Mask passwords and keys in SQL statements.

Each argument is masked and printed on its own line. Without arguments,
statements are read from standard input, one per line.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("min-length") {
				cfg, err := root.loadConfig()
				if err != nil {
					return err
				}
				minLength = cfg.PasswordMinLength
			}
			m := redact.Masker{MinLength: minLength}
			out := cmd.OutOrStdout()

			if len(args) > 0 {
				for _, q := range args {
					if err := maskOne(out, m, q); err != nil {
						return err
					}
				}
				return nil
			}
			return maskLines(cmd.InOrStdin(), out, m)
		},
	}
	cmd.Flags().IntVarP(&minLength, "min-length", "n", redact.DefaultMinLength, "Number of asterisks written over a password")
	return cmd
}

func maskLines(in io.Reader, out io.Writer, m redact.Masker) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := maskOne(out, m, line); err != nil {
			return err
		}
	}
	return sc.Err()
}

func maskOne(out io.Writer, m redact.Masker, q string) error {
	masked, changed, err := m.Scan(q)
	if err != nil {
		return fmt.Errorf("mask %q: %w", q, err)
	}
	if !changed {
		masked = q
	}
	log.WithField("changed", changed).Debug("Masked statement")
	_, err = fmt.Fprintln(out, masked)
	return err
}
