package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/crisislens-service/internal/lexicon"
)

func newLexiconCmd(cli *cliContext) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "lexicon",
		Short: "Print the effective keyword lexicon",
		Long: "Print the lexicon in effect after LEXICON_PATH is applied, as a YAML document\n" +
			"that LEXICON_PATH accepts. With --category, print that category's labels one per line.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if category != "" {
				entries := cli.lex.Entries(category)
				if len(entries) == 0 {
					return fmt.Errorf("unknown lexicon category %q", category)
				}
				for _, label := range lexicon.Labels(entries) {
					fmt.Fprintln(out, label)
				}
				return nil
			}

			data, err := lexicon.Dump(cli.lex)
			if err != nil {
				return err
			}
			_, err = out.Write(data)
			return err
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "print only this category, e.g. crisis or type:Flood")
	return cmd
}
