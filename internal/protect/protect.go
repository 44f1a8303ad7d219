// Package protect recognises files that hold secrets, so file tools can
// refuse to pass them to a model.
package protect

import (
	"path"
	"path/filepath"
	"strings"
	"sync"
)

// DefaultPatterns are directory globs whose contents are always protected.
var DefaultPatterns = []string{
	"**/.ssh/**",
	"**/.aws/**",
	"**/.gnupg/**",
	"**/.docker/**",
	"**/secrets/**",
	"**/credentials/**",
}

// DefaultNames are base-name globs of protected files.
var DefaultNames = []string{
	".env",
	".env.*",
	"*.env",
	"id_rsa*",
	"id_ecdsa*",
	"id_ed25519*",
	".netrc",
	".pgpass",
	".npmrc",
	"*.tfstate",
	"*.tfstate.backup",
}

// DefaultFileTypes are protected file extensions.
var DefaultFileTypes = []string{
	".pem",
	".key",
	".p12",
	".pfx",
	".jks",
	".keystore",
	".kdbx",
}

// Detector checks paths against protected patterns, names and extensions.
type Detector struct {
	mu        sync.RWMutex
	patterns  []string
	names     []string
	fileTypes []string
}

// New creates a detector with the default rules plus extra globs. An extra
// glob containing a slash matches whole paths; otherwise it matches base
// names.
func New(extra ...string) *Detector {
	d := &Detector{
		patterns:  append([]string{}, DefaultPatterns...),
		names:     append([]string{}, DefaultNames...),
		fileTypes: append([]string{}, DefaultFileTypes...),
	}
	for _, glob := range extra {
		d.Add(glob)
	}
	return d
}

// Add registers another glob.
func (d *Detector) Add(glob string) {
	glob = strings.TrimSpace(filepath.ToSlash(glob))
	if glob == "" {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if strings.Contains(glob, "/") {
		d.patterns = append(d.patterns, glob)
	} else {
		d.names = append(d.names, glob)
	}
}

// Check reports whether p is protected and which rule matched. p should be
// relative to the directory the tool serves.
func (d *Detector) Check(p string) (bool, string) {
	if d == nil {
		return false, ""
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	normalized := strings.TrimPrefix(path.Clean(filepath.ToSlash(p)), "./")
	lower := strings.ToLower(normalized)
	base := path.Base(lower)

	for _, pattern := range d.patterns {
		if matchGlob(lower, strings.ToLower(pattern)) {
			return true, "path matches protected pattern " + pattern
		}
	}
	for _, name := range d.names {
		if matchSegment(base, strings.ToLower(name)) {
			return true, "file name matches protected name " + name
		}
	}
	ext := path.Ext(base)
	for _, protected := range d.fileTypes {
		if ext == protected {
			return true, "file type " + protected + " is protected"
		}
	}
	return false, ""
}
