package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-compile/csoarc"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var extractOutDir string

var extractCmd = &cobra.Command{
	Use:   "extract <archive>",
	Short: "Extract every entry in a NAR or PAK archive to a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

func init() {
	extractCmd.Flags().StringVar(&extractOutDir, "out", ".", "destination directory")
	rootCmd.AddCommand(extractCmd)
}

type manifestEntry struct {
	Path   string `json:"path"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type manifest struct {
	RunID   string          `json:"run_id"`
	Archive string          `json:"archive"`
	Format  string          `json:"format"`
	Entries []manifestEntry `json:"entries"`
}

func runExtract(cmd *cobra.Command, args []string) error {
	a, err := openArchive(args[0])
	if err != nil {
		return err
	}
	defer a.Close()

	if err := os.MkdirAll(extractOutDir, 0o755); err != nil {
		return errors.Wrap(err, "creating output directory")
	}

	runID := uuid.New()
	man := manifest{RunID: runID.String(), Archive: a.Path, Format: a.Format}

	failures := 0

	switch a.Format {
	case "NAR":
		for _, e := range a.nar.Entries() {
			status, errMsg := extractNAREntry(a, e)
			man.Entries = append(man.Entries, manifestEntry{Path: e.Path, Status: status, Error: errMsg})
			if status != "extracted" {
				failures++
			}
		}
	case "PAK":
		for _, e := range a.pak.Entries {
			status, errMsg := extractPAKEntry(a, e)
			man.Entries = append(man.Entries, manifestEntry{Path: e.Path, Status: status, Error: errMsg})
			if status != "extracted" {
				failures++
			}
		}
	}

	manifestPath := filepath.Join(extractOutDir, "manifest.json")
	f, err := os.Create(manifestPath)
	if err != nil {
		return errors.Wrap(err, "writing extraction manifest")
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(man); err != nil {
		return errors.Wrap(err, "encoding extraction manifest")
	}

	fmt.Printf("extracted %d/%d entries (run %s)\n", len(man.Entries)-failures, len(man.Entries), runID)
	if failures > 0 {
		return fmt.Errorf("%d entries failed to extract", failures)
	}
	return nil
}

func extractNAREntry(a *archive, e csoarc.NarEntry) (status, errMsg string) {
	log := csoarc.EntryLog(a.Path, e.Path)

	if !csoarc.SafeExtractPath(e.Path) {
		log.Warn("rejecting unsafe path")
		fmt.Printf("  %s  %s (unsafe path)\n", color.RedString("SKIP"), e.Path)
		return "skipped", "unsafe path"
	}

	dest := filepath.Join(extractOutDir, filepath.FromSlash(e.Path))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		log.WithError(err).Warn("creating destination directory failed")
		return "failed", err.Error()
	}

	r, err := a.nar.Extract(e)
	if err != nil {
		log.WithError(err).Warn("extraction failed")
		fmt.Printf("  %s  %s (%v)\n", color.RedString("FAIL"), e.Path, err)
		return "failed", err.Error()
	}

	out, err := os.Create(dest)
	if err != nil {
		log.WithError(err).Warn("creating output file failed")
		return "failed", err.Error()
	}
	defer out.Close()

	if _, err := io.Copy(out, r); err != nil {
		log.WithError(err).Warn("writing output file failed")
		fmt.Printf("  %s  %s (%v)\n", color.RedString("FAIL"), e.Path, err)
		return "failed", err.Error()
	}

	fmt.Printf("  %s  %s\n", color.GreenString("OK"), e.Path)
	return "extracted", ""
}

func extractPAKEntry(a *archive, e csoarc.PakEntry) (status, errMsg string) {
	log := csoarc.EntryLog(a.Path, e.Path)

	if !csoarc.SafeExtractPath(e.Path) {
		log.Warn("rejecting unsafe path")
		fmt.Printf("  %s  %s (unsafe path)\n", color.RedString("SKIP"), e.Path)
		return "skipped", "unsafe path"
	}

	dest := filepath.Join(extractOutDir, filepath.FromSlash(e.Path))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		log.WithError(err).Warn("creating destination directory failed")
		return "failed", err.Error()
	}

	data, err := a.pak.Unpack(e)
	if err != nil {
		log.WithError(err).Warn("unpack failed")
		fmt.Printf("  %s  %s (%v)\n", color.RedString("FAIL"), e.Path, err)
		return "failed", err.Error()
	}

	if err := os.WriteFile(dest, data, 0o644); err != nil {
		log.WithError(err).Warn("writing output file failed")
		return "failed", err.Error()
	}

	fmt.Printf("  %s  %s\n", color.GreenString("OK"), e.Path)
	return "extracted", ""
}
