package main

import (
	"errors"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/secureworks/elog"
	"github.com/secureworks/elog/internal/logpipe"
)

type collectOptions struct {
	input      string
	logFile    string
	csvFile    string
	maxSizeMB  int
	maxBackups int
	compress   bool
}

func newCollectCmd(root *rootOptions) *cobra.Command {
	opts := &collectOptions{}
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Reassemble the chunked log collector stream",
		Long: `Reassemble the chunked log collector stream.

Chunks are read from standard input, or from --input, and each complete
message is appended to its log file: plain text messages to --log-file
and CSV records to --csv-file. Either file defaults to standard output,
unless the configuration names a log file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}

			in := cmd.InOrStdin()
			if opts.input != "" {
				f, err := os.Open(opts.input)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			text := opts.open(cmd.OutOrStdout(), opts.logFile, cfg)
			defer closeWriter(text)
			csv := opts.open(cmd.OutOrStdout(), opts.csvFile, nil)
			defer closeWriter(csv)

			return collect(in, text, csv)
		},
	}
	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "Read chunks from this file instead of standard input")
	cmd.Flags().StringVar(&opts.logFile, "log-file", "", "File receiving plain text messages")
	cmd.Flags().StringVar(&opts.csvFile, "csv-file", "", "File receiving CSV records")
	cmd.Flags().IntVar(&opts.maxSizeMB, "max-size", 100, "Size in megabytes at which log files are rotated")
	cmd.Flags().IntVar(&opts.maxBackups, "max-backups", 0, "Number of rotated files to keep (0 keeps all)")
	cmd.Flags().BoolVar(&opts.compress, "compress", false, "Compress rotated files")
	return cmd
}

func (o *collectOptions) open(stdout io.Writer, path string, cfg *elog.Config) io.Writer {
	if path == "" {
		if cfg != nil {
			if w := elog.OpenConfiguredLogFile(cfg); w != nil {
				return w
			}
		}
		return stdout
	}
	opts := []elog.LogFileOption{
		elog.WithMaxSize(o.maxSizeMB),
		elog.WithMaxBackups(o.maxBackups),
	}
	if o.compress {
		opts = append(opts, elog.EnableCompression())
	}
	return elog.OpenLogFile(path, opts...)
}

func closeWriter(w io.Writer) {
	if c, ok := w.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.WithError(err).Warn("Failed to close log file")
		}
	}
}

// collect copies every message from the chunk stream in to the writer
// for its kind, until the stream ends.
func collect(in io.Reader, text, csv io.Writer) error {
	r := logpipe.NewReader(in)
	var n int
	for {
		msg, err := r.Next()
		if errors.Is(err, io.EOF) {
			log.WithField("messages", n).Debug("Log stream ended")
			return nil
		}
		if err != nil {
			return err
		}

		w := text
		if msg.Kind == logpipe.KindCSV {
			w = csv
		}
		if _, err := w.Write(msg.Data); err != nil {
			return err
		}
		n++
		log.WithFields(logrus.Fields{
			"pid":   msg.PID,
			"bytes": len(msg.Data),
		}).Debug("Collected message")
	}
}
