package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list <archive>",
	Short: "List the entries recorded in a NAR or PAK archive",
	Args:  cobra.ExactArgs(1),
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := openArchive(args[0])
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Printf("%s archive: %s (%d entries)\n", a.Format, a.Path, len(a.Entries))
	for _, e := range a.Entries {
		fmt.Printf("  %s\t%d\t%s\n", color.CyanString(e.Type), e.Size, e.Path)
	}

	return nil
}
