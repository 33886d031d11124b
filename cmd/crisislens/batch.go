package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/crisislens-service/internal/domain"
)

const maxLineBytes = 1 << 20

func newBatchCmd(cli *cliContext) *cobra.Command {
	var input, output string

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Analyze a JSON lines file of reports",
		Long: "Analyze every report in a JSON lines file. Each line is either a request object\n" +
			`({"text": ..., "source": ..., "location": ...}) or plain report text.` + "\n" +
			"One record is written per report, in input order. Blank lines are skipped.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, closeIn, err := openInput(cmd, input)
			if err != nil {
				return err
			}
			defer closeIn()

			reqs, err := readRequests(in, time.Now().UTC())
			if err != nil {
				return err
			}

			a, err := cli.analyzer()
			if err != nil {
				return err
			}
			records, err := a.AnalyzeRequests(cmd.Context(), reqs)
			if err != nil {
				return err
			}

			out, closeOut, err := openOutput(cmd, output)
			if err != nil {
				return err
			}
			bw := bufio.NewWriter(out)
			enc := json.NewEncoder(bw)
			for _, rec := range records {
				if err := enc.Encode(rec); err != nil {
					closeOut()
					return fmt.Errorf("encode record %s: %w", rec.ID, err)
				}
			}
			if err := bw.Flush(); err != nil {
				closeOut()
				return fmt.Errorf("write output: %w", err)
			}
			cli.logger.Info("batch analyzed", "reports", len(records), "output", output)
			return closeOut()
		},
	}

	f := cmd.Flags()
	f.StringVarP(&input, "input", "i", "-", "input file, - for stdin")
	f.StringVarP(&output, "output", "o", "-", "output file, - for stdout")
	return cmd
}

// readRequests parses one report per non-blank line. Lines are decoded the
// same way stream messages are.
func readRequests(r io.Reader, receivedAt time.Time) ([]domain.ReportRequest, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var reqs []domain.ReportRequest
	for n := 1; sc.Scan(); n++ {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		req, err := domain.ParseReportRequest(domain.RawEvent{Value: line, Timestamp: receivedAt})
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		reqs = append(reqs, req)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return reqs, nil
}

func openInput(cmd *cobra.Command, path string) (io.Reader, func() error, error) {
	if path == "-" || path == "" {
		return cmd.InOrStdin(), func() error { return nil }, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open input: %w", err)
	}
	return f, f.Close, nil
}

func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "-" || path == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	return f, f.Close, nil
}
