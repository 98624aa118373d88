package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amigodata/amigosas/internal/sas"
)

// NewQueryCommand creates the query command
func NewQueryCommand() *cobra.Command {
	var (
		where  string
		method string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "query <libref> <table>",
		Short: "Run a filtered query against a library table",
		Long: `Materialize a table into a tabular result, optionally narrowed by a
where-style predicate. With no predicate the whole table is returned.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := connect()
			if err != nil {
				return err
			}
			defer mgr.Close()

			frame, err := mgr.Query(args[0], args[1], where, method)
			if err != nil {
				return fmt.Errorf("query failed: %w", err)
			}
			if frame == nil {
				fmt.Println("Invalid query")
				return nil
			}

			total := frame.Len()
			if limit > 0 {
				frame = frame.Head(limit)
			}
			fmt.Print(frame.Render())
			if frame.Len() < total {
				fmt.Printf("(%d of %d rows)\n", frame.Len(), total)
			} else {
				fmt.Printf("(%d rows)\n", total)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&where, "where", "", "Where-style predicate to filter rows")
	cmd.Flags().StringVar(&method, "method", sas.MethodMemory,
		"Transfer method: MEMORY or CSV")
	cmd.Flags().IntVar(&limit, "limit", 0, "Print at most this many rows (0 = all)")

	return cmd
}
