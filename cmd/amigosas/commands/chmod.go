package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewChmodCommand creates the chmod command
func NewChmodCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "chmod <lib-path> <table>",
		Short: "Make a table's backing file group-readable",
		Long: `Submit a host chmod through the session's command channel, setting mode
744 on <lib-path>/<table>.sas7bdat. The command is submitted verbatim;
arguments are not escaped or validated.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := connect()
			if err != nil {
				return err
			}
			defer mgr.Close()

			if err := mgr.SetTablePermissions(args[0], args[1]); err != nil {
				return fmt.Errorf("failed to set permissions: %w", err)
			}

			fmt.Printf("Set mode 744 on %s/%s.sas7bdat\n", args[0], args[1])
			return nil
		},
	}
}
