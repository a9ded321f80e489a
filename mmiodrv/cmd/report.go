package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sarchlab/mmiodrv/datarecording"
)

var reportCmd = &cobra.Command{
	Use:   "report <recording.sqlite3>",
	Short: "Summarize a recording.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := datarecording.NewReader(args[0])
		if err != nil {
			return err
		}
		defer r.Close()

		ctx := commandContext(cmd)

		tables, err := r.ListTables(ctx)
		if err != nil {
			return err
		}

		for _, t := range tables {
			_, n, err := r.Query(ctx, t, datarecording.QueryParams{Limit: 1})
			if err != nil {
				return err
			}

			cmd.Printf("%-16s %d rows\n", t, n)
		}

		results, _, err := r.Query(ctx, datarecording.ResultTableName,
			datarecording.QueryParams{OrderBy: "rowid"})
		if err != nil {
			return err
		}

		for _, row := range results {
			res := row.(*datarecording.ResultEntry)
			status := "PASSED"
			if !res.Passed {
				status = "FAILED"
			}

			cmd.Printf("%s %s (%d mismatches)\n", res.Name, status, res.Mismatches)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
}
