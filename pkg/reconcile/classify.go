package reconcile

import (
	"fmt"
	"io"
	"sort"

	"github.com/sidkik/p4workspace/pkg/workspace"
)

// Classification sorts the differences between the server and the working
// directory into disjoint categories. Each category holds paths relative to
// the working directory, sorted.
type Classification struct {
	// Missing files are synced but not on disk.
	Missing []string

	// Edited files are synced and opened in a changelist.
	Edited []string

	// Added files are on disk, not synced, and opened in a changelist.
	Added []string

	// Extra files are on disk but unknown to the server.
	Extra []string
}

// Clean returns whether there are no differences.
func (c Classification) Clean() bool {
	return len(c.Missing) == 0 && len(c.Edited) == 0 &&
		len(c.Added) == 0 && len(c.Extra) == 0
}

// Classify compares the server's view of the working directory with what's
// on disk.
//
// A synced file that's opened is edited even if it's not on disk, since
// reverting it restores it. Files beneath a link are never extra, because
// their contents belong to the link's target.
func Classify(state State) Classification {
	var c Classification
	for key, rel := range state.Have {
		_, opened := state.Opened[key]
		_, local := state.Local.Files[key]
		switch {
		case opened:
			c.Edited = append(c.Edited, rel)
		case !local:
			c.Missing = append(c.Missing, rel)
		}
	}

	for key, rel := range state.Local.Files {
		if _, ok := state.Have[key]; ok {
			continue
		}

		if _, ok := state.Opened[key]; ok {
			c.Added = append(c.Added, rel)
			continue
		}

		if _, ok := state.Ignored[key]; ok || beneathLink(key, state.Local.Links) {
			continue
		}
		c.Extra = append(c.Extra, rel)
	}

	sort.Strings(c.Missing)
	sort.Strings(c.Edited)
	sort.Strings(c.Added)
	sort.Strings(c.Extra)
	return c
}

func beneathLink(key string, links Snapshot) bool {
	for linkKey := range links {
		if workspace.Beneath(key, linkKey) {
			return true
		}
	}
	return false
}

// Print writes a human readable report of `c` to `out`.
func (c Classification) Print(out io.Writer) {
	sections := []struct {
		header string
		paths  []string
	}{
		{"Files missing from your disk:", c.Missing},
		{"Files on your disk open for edit in a changelist:", c.Edited},
		{"Files on your disk open for add in a changelist:", c.Added},
		{"Files on your disk not known to the server:", c.Extra},
	}

	for _, section := range sections {
		if len(section.paths) == 0 {
			continue
		}

		fmt.Fprintf(out, "\n%s\n", section.header)
		for _, path := range section.paths {
			fmt.Fprintln(out, path)
		}
	}

	if c.Clean() {
		fmt.Fprintln(out, "\nWorking directory clean!")
	}
}
