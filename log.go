package csoarc

import "github.com/sirupsen/logrus"

// Log is the package-wide logger. Core readers never log themselves
// (errors are returned, not printed); it exists so cmd/csoarc and any
// embedding application can attach fields consistently when reporting
// what this package returned.
var Log = logrus.StandardLogger()

// EntryLog returns a logger pre-tagged with an archive path and entry
// path, for extraction/verification call sites that log per entry.
func EntryLog(archivePath, entryPath string) *logrus.Entry {
	return Log.WithFields(logrus.Fields{
		"archive": archivePath,
		"entry":   entryPath,
	})
}
