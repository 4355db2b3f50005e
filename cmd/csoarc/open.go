package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-compile/csoarc"
	"github.com/pkg/errors"
)

// entryInfo is a format-agnostic view of one archive entry, used by the
// list/verify/info subcommands so they don't need to branch on format.
type entryInfo struct {
	Path string
	Size int64
	Type string
}

// archive is a format-agnostic handle opened by openArchive: whichever
// format matched the file extension, with its entries normalized.
type archive struct {
	Path    string
	Format  string
	Entries []entryInfo

	nar  *csoarc.NarArchive
	pak  *csoarc.PakArchive
	file *os.File
}

// Close releases any file handle openArchive opened. PAK archives are
// read fully into memory and hold nothing to close.
func (a *archive) Close() error {
	if a.file != nil {
		return a.file.Close()
	}
	return nil
}

// openArchive dispatches on path's extension, the CLI contract's only
// format-selection mechanism.
func openArchive(path string) (*archive, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".nar":
		return openNAR(path)
	case ".pak":
		return openPAK(path)
	default:
		return nil, errors.Errorf("unrecognized archive extension %q (expected .nar or .pak)", filepath.Ext(path))
	}
}

func openNAR(path string) (*archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening NAR archive")
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "stat'ing NAR archive")
	}

	nar, err := csoarc.OpenNAR(f, info.Size())
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "parsing NAR archive")
	}

	entries := make([]entryInfo, 0, len(nar.Entries()))
	for _, e := range nar.Entries() {
		entries = append(entries, entryInfo{Path: e.Path, Size: e.ExtractedSize, Type: narTypeName(e.StoredType)})
	}

	return &archive{Path: path, Format: "NAR", Entries: entries, nar: nar, file: f}, nil
}

func openPAK(path string) (*archive, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading PAK archive")
	}

	pak, err := csoarc.OpenPAK(filepath.Base(path), buf)
	if err != nil {
		return nil, errors.Wrap(err, "parsing PAK archive")
	}

	entries := make([]entryInfo, 0, len(pak.Entries))
	for _, e := range pak.Entries {
		entries = append(entries, entryInfo{Path: e.Path, Size: int64(e.OriginalSize), Type: pakTypeName(e.Type)})
	}

	return &archive{Path: path, Format: "PAK", Entries: entries, pak: pak}, nil
}

func narTypeName(t csoarc.NarStoredType) string {
	switch t {
	case csoarc.NarRaw:
		return "raw"
	case csoarc.NarEncoded:
		return "encoded"
	case csoarc.NarEncodedAndCompressed:
		return "encoded+compressed"
	default:
		return "unknown"
	}
}

func pakTypeName(t csoarc.PakEntryType) string {
	switch t {
	case csoarc.PakUncompressed:
		return "uncompressed"
	case csoarc.PakCompressed:
		return "compressed"
	case csoarc.PakEncrypted:
		return "encrypted"
	case csoarc.PakEncryptedAgain:
		return "encrypted-again"
	default:
		return "unknown"
	}
}
