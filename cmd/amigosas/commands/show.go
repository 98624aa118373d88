package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewShowCommand creates the show command
func NewShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [libref] [table]",
		Short: "Show libraries, tables, or sample rows without the TUI",
		Long: `Show libraries, tables, or sample rows in a non-interactive format.
Without arguments: lists all assigned libraries
With a libref: lists the tables in that library
With a libref and table: prints the first rows of that table`,
		RunE: runShow,
	}
}

func runShow(cmd *cobra.Command, args []string) error {
	switch len(args) {
	case 0:
		return showLibraries()
	case 1:
		return showTables(args[0])
	case 2:
		return showSample(args[0], args[1])
	default:
		return fmt.Errorf("too many arguments. Usage: amigosas show [libref] [table]")
	}
}

func showLibraries() error {
	mgr, err := connect()
	if err != nil {
		return err
	}
	defer mgr.Close()

	libs, err := mgr.ListLibraries()
	if err != nil {
		return fmt.Errorf("failed to list libraries: %w", err)
	}

	if len(libs) == 0 {
		fmt.Println("No libraries assigned")
		return nil
	}

	fmt.Println("Libraries:")
	fmt.Println("==========")
	for i, lib := range libs {
		fmt.Printf("%d. %s\n", i+1, lib)
	}

	return nil
}

func showTables(libref string) error {
	mgr, err := connect()
	if err != nil {
		return err
	}
	defer mgr.Close()

	tables, err := mgr.ListTables(libref)
	if err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}

	if len(tables) == 0 {
		fmt.Printf("No tables found in library '%s'\n", libref)
		return nil
	}

	fmt.Printf("Tables in library '%s':\n", libref)
	fmt.Println("===================================")
	for i, table := range tables {
		fmt.Printf("%d. %s\n", i+1, table.Name)
		fmt.Printf("   Format: %s\n", table.Format)
		fmt.Printf("   Size: %d bytes\n", table.SizeBytes)
		fmt.Printf("   Modified: %s\n", table.ModifiedAt.Format("2006-01-02 15:04"))
		fmt.Println()
	}

	return nil
}

func showSample(libref, table string) error {
	mgr, err := connect()
	if err != nil {
		return err
	}
	defer mgr.Close()

	ds, err := mgr.SampleTable(libref, table)
	if err != nil {
		return fmt.Errorf("failed to open table: %w", err)
	}

	frame, err := ds.Head(0)
	if err != nil {
		return fmt.Errorf("failed to read sample rows: %w", err)
	}

	if frame.Empty() {
		fmt.Printf("No rows in table '%s.%s'\n", libref, table)
		return nil
	}

	fmt.Printf("First rows of '%s.%s':\n\n", libref, table)
	fmt.Print(frame.Render())
	return nil
}
