package main

import (
	"fmt"

	"github.com/go-compile/csoarc"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <archive>",
	Short: "Check every entry's recorded checksum or unpack pipeline",
	Args:  cobra.ExactArgs(1),
	RunE:  runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	a, err := openArchive(args[0])
	if err != nil {
		return err
	}
	defer a.Close()

	failures := 0

	switch a.Format {
	case "NAR":
		for _, e := range a.nar.Entries() {
			log := csoarc.EntryLog(a.Path, e.Path)
			ok, err := a.nar.Verify(e)
			if err != nil {
				log.WithError(err).Warn("verification failed")
				fmt.Printf("  %s  %s (%v)\n", color.RedString("FAIL"), e.Path, err)
				failures++
				continue
			}
			if !ok {
				log.Warn("CRC mismatch")
				fmt.Printf("  %s  %s (CRC mismatch)\n", color.RedString("FAIL"), e.Path)
				failures++
				continue
			}
			fmt.Printf("  %s  %s\n", color.GreenString("OK"), e.Path)
		}
	case "PAK":
		for _, e := range a.pak.Entries {
			log := csoarc.EntryLog(a.Path, e.Path)
			if _, err := a.pak.Unpack(e); err != nil {
				log.WithError(err).Warn("unpack failed")
				fmt.Printf("  %s  %s (%v)\n", color.RedString("FAIL"), e.Path, err)
				failures++
				continue
			}
			fmt.Printf("  %s  %s\n", color.GreenString("OK"), e.Path)
		}
	}

	fmt.Printf("%d/%d entries failed\n", failures, len(a.Entries))
	if failures > 0 {
		return fmt.Errorf("%d entries failed verification", failures)
	}
	return nil
}
