package main

import (
	"fmt"

	"github.com/go-compile/csoarc"
	"github.com/spf13/cobra"
)

var infoFingerprint bool

var infoCmd = &cobra.Command{
	Use:   "info <archive>",
	Short: "Print archive-level metadata",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	infoCmd.Flags().BoolVar(&infoFingerprint, "fingerprint", false, "print a SipHash fingerprint of the directory listing")
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	a, err := openArchive(args[0])
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Printf("format:  %s\n", a.Format)
	fmt.Printf("path:    %s\n", a.Path)
	fmt.Printf("entries: %d\n", len(a.Entries))

	if a.Format == "PAK" {
		fmt.Printf("version: %d\n", a.pak.Header.Version)
	}

	if infoFingerprint {
		switch a.Format {
		case "NAR":
			fp := csoarc.NarFingerprint(a.nar.Entries())
			fmt.Printf("fingerprint: %s\n", csoarc.FingerprintString(fp))
		case "PAK":
			fp := csoarc.PakFingerprint(a.pak.Entries)
			fmt.Printf("fingerprint: %s\n", csoarc.FingerprintString(fp))
		}
	}

	return nil
}
