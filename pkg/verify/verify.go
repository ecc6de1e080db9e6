// Package verify checks the contents of the working directory against the
// server, and optionally re-syncs the files that differ.
package verify

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/sidkik/p4workspace/pkg/errors"
	"github.com/sidkik/p4workspace/pkg/p4"
	"github.com/sidkik/p4workspace/pkg/workspace"
)

// DefaultInterval is the number of files between progress updates.
const DefaultInterval = 1000

// Outcome summarizes a verification run.
type Outcome int

const (
	// NothingChecked means the server didn't report any files.
	NothingChecked Outcome = iota

	// Clean means every file matched the server.
	Clean

	// Corrupted means some files differ, and they weren't repaired.
	Corrupted

	// Repaired means some files differed, and were re-synced.
	Repaired
)

func (o Outcome) String() string {
	switch o {
	case NothingChecked:
		return "NothingChecked"
	case Clean:
		return "Clean"
	case Corrupted:
		return "Corrupted"
	case Repaired:
		return "Repaired"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Result is the result of a verification run.
type Result struct {
	Outcome Outcome

	// Checked is the number of files the server compared.
	Checked int

	// Corrupted are the paths, relative to the working directory, of the
	// files whose contents differ from their have revision.
	Corrupted []string
}

// Verifier compares the files in the working directory with their have
// revisions.
type Verifier struct {
	Client    p4.Client
	Workspace *workspace.Workspace
	Log       logrus.FieldLogger

	// Out receives the progress updates and the report.
	Out   io.Writer
	Clock clockwork.Clock

	// Interval is the number of files between progress updates. Defaults to
	// DefaultInterval.
	Interval int
}

// Run diffs the working directory. `total` is only used in progress updates.
// If `repair` is set, every corrupted file is force synced to its have
// revision.
func (v Verifier) Run(ctx context.Context, total int, repair bool) (Result, error) {
	clock := v.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	interval := v.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	fmt.Fprintln(v.Out, "\nDiffing files...")
	stream, err := v.Client.StreamDiff(ctx, "...")
	if err != nil {
		return Result{}, errors.WithContext(err, "start diff")
	}
	defer stream.Close()

	var result Result
	start := clock.Now()
	for stream.Next() {
		result.Checked++
		if result.Checked%interval == 0 {
			elapsed := clock.Now().Sub(start).Round(time.Second)
			fmt.Fprintf(v.Out, "%d/%d (%s)\n", result.Checked, total, elapsed)
		}

		rec := stream.Record()
		if rec.Status != p4.StatusDiffers {
			continue
		}

		rel, ok := v.toRel(rec.ServerPath)
		if !ok {
			continue
		}
		result.Corrupted = append(result.Corrupted, rel)
	}
	if err := stream.Err(); err != nil {
		return Result{}, errors.WithContext(err, "diff")
	}
	sort.Strings(result.Corrupted)

	switch {
	case result.Checked == 0:
		result.Outcome = NothingChecked
		fmt.Fprintln(v.Out, "\nNo files to verify.")
		return result, nil
	case len(result.Corrupted) == 0:
		result.Outcome = Clean
		fmt.Fprintln(v.Out, "\nWorking directory verified!")
		return result, nil
	case !repair:
		result.Outcome = Corrupted
		fmt.Fprintln(v.Out, "\nCorrupted files:")
		for _, rel := range result.Corrupted {
			fmt.Fprintln(v.Out, rel)
		}
		return result, nil
	}

	fmt.Fprintln(v.Out, "\nRepairing corrupted files:")
	for _, rel := range result.Corrupted {
		serverPath, err := v.Workspace.ToServer(v.Workspace.Abs(rel))
		if err != nil {
			v.Log.WithError(err).WithField("path", rel).Warn(
				"Failed to get server path. Skipping.")
			continue
		}

		if err := v.Client.ForceSync(ctx, serverPath+"#have"); err != nil {
			return Result{}, errors.WithContext(err, "repair corrupted file")
		}
		fmt.Fprintln(v.Out, rel)
	}
	result.Outcome = Repaired
	return result, nil
}

func (v Verifier) toRel(serverPath string) (string, bool) {
	local, err := v.Workspace.ToLocal(serverPath)
	if err != nil {
		v.Log.WithError(err).WithField("path", serverPath).Debug(
			"Skipping corrupted file that isn't mapped by the client view")
		return "", false
	}

	rel, ok := v.Workspace.Rel(local)
	if !ok {
		v.Log.WithField("path", local).Debug(
			"Skipping corrupted file outside the working directory")
		return "", false
	}
	return rel, true
}
