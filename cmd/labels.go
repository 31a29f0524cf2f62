package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newLabelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "labels",
		Short: "List the Gmail labels of the account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			repo, err := rt.sc.LabelRepository(cfg.Account)
			if err != nil {
				return err
			}
			all, err := repo.Labels(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tID\tTYPE")
			for _, l := range all {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", l.Name, l.ID, l.Type)
			}
			return tw.Flush()
		},
	}
}
