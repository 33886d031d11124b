package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/crisislens-service/internal/domain"
)

func newAnalyzeCmd(cli *cliContext) *cobra.Command {
	var (
		source   string
		location string
		pretty   bool
	)

	cmd := &cobra.Command{
		Use:   "analyze [text...]",
		Short: "Analyze one report and print its record as JSON",
		Long:  "Analyze one report. The text is taken from the arguments, or read from stdin when none are given.",
		Example: `  crisislens analyze --source IMD --location Chennai "Severe flooding in Adyar, 50 homes submerged"
  echo "Earthquake near the coast, buildings collapsed" | crisislens analyze --pretty`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if len(args) == 0 {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = string(data)
			}
			text = strings.TrimSpace(text)
			if text == "" {
				return errors.New("no report text given")
			}

			a, err := cli.analyzer()
			if err != nil {
				return err
			}

			req := domain.ReportRequest{Text: text, Source: domain.NormalizeSource(source)}
			if strings.TrimSpace(location) != "" {
				req.Location = &location
			}
			rec := a.Analyze(cmd.Context(), req)
			return writeJSON(cmd.OutOrStdout(), rec, pretty)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&source, "source", "s", "", "report source (e.g. IMD, twitter)")
	f.StringVarP(&location, "location", "l", "", "report location; extracted from the text when empty")
	f.BoolVar(&pretty, "pretty", false, "indent the JSON output")
	return cmd
}

func writeJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	return nil
}
