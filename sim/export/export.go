// Package export writes Trial Sets to disk and reads them back.
//
// Two layouts are supported:
//   - text: one file per compartment, one value per line, trials separated
//     by a single blank line.
//   - jsonl: a single file with three JSON arrays of trials (S, I, R), one per line.
package export

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/stosir/stosir/sim"
)

// File names used by WriteDir / ReadDir.
const (
	SusceptibleFile = "s_data.txt"
	InfectedFile    = "i_data.txt"
	RecoveredFile   = "r_data.txt"
	JSONLinesFile   = "trials.jsonl"
)

// Format selects the on-disk layout.
type Format string

const (
	FormatText      Format = "text"
	FormatJSONLines Format = "jsonl"
)

// ParseFormat converts a CLI string to a Format. Empty maps to FormatText.
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSONLines:
		return FormatJSONLines, nil
	default:
		return "", fmt.Errorf("unknown output format %q; valid: text, jsonl", name)
	}
}

// WriteTrials writes one compartment's trials in the text layout. Every value
// is followed by a newline and consecutive trials are separated by one blank line.
func WriteTrials(w io.Writer, trials [][]float64) error {
	bw := bufio.NewWriter(w)
	buf := make([]byte, 0, 32)
	for k, trial := range trials {
		if k > 0 {
			if err := bw.WriteByte('\n'); err != nil {
				return err
			}
		}
		for _, v := range trial {
			buf = strconv.AppendFloat(buf[:0], v, 'f', -1, 64)
			buf = append(buf, '\n')
			if _, err := bw.Write(buf); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// ReadTrials parses the text layout produced by WriteTrials.
func ReadTrials(r io.Reader) ([][]float64, error) {
	sc := bufio.NewScanner(r)
	var trials [][]float64
	var cur []float64
	open := false
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			if open {
				trials = append(trials, cur)
				cur, open = nil, false
			}
			continue
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		cur = append(cur, v)
		open = true
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if open {
		trials = append(trials, cur)
	}
	return trials, nil
}

// WriteJSONLines writes the S, I and R trial arrays as three JSON lines.
func WriteJSONLines(w io.Writer, ts sim.TrialSet) error {
	enc := json.NewEncoder(w)
	for _, part := range [][][]float64{ts.S, ts.I, ts.R} {
		if part == nil {
			part = [][]float64{}
		}
		if err := enc.Encode(part); err != nil {
			return err
		}
	}
	return nil
}

// ReadJSONLines parses the layout produced by WriteJSONLines.
func ReadJSONLines(r io.Reader) (sim.TrialSet, error) {
	dec := json.NewDecoder(r)
	var parts [3][][]float64
	for i := range parts {
		if err := dec.Decode(&parts[i]); err != nil {
			return sim.TrialSet{}, fmt.Errorf("reading compartment %d: %w", i, err)
		}
	}
	return sim.TrialSet{S: parts[0], I: parts[1], R: parts[2]}, nil
}

// WriteDir persists ts under dir in the requested format, creating dir if needed.
// Files left in dir by a run in the other format are removed first so that
// ReadDir never picks up a stale Trial Set. It returns the paths written.
func WriteDir(dir string, ts sim.TrialSet, format Format) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}
	if err := removeFiles(dir, staleFiles(format)...); err != nil {
		return nil, err
	}
	switch format {
	case FormatJSONLines:
		path := filepath.Join(dir, JSONLinesFile)
		if err := writeFile(path, func(w io.Writer) error { return WriteJSONLines(w, ts) }); err != nil {
			return nil, err
		}
		return []string{path}, nil
	case FormatText, "":
		var paths []string
		for _, f := range []struct {
			name   string
			trials [][]float64
		}{
			{SusceptibleFile, ts.S},
			{InfectedFile, ts.I},
			{RecoveredFile, ts.R},
		} {
			path := filepath.Join(dir, f.name)
			trials := f.trials
			if err := writeFile(path, func(w io.Writer) error { return WriteTrials(w, trials) }); err != nil {
				return nil, err
			}
			paths = append(paths, path)
		}
		return paths, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// ReadDir loads a Trial Set written by WriteDir. The format is detected from
// the files present; use ReadDirFormat when the format is known.
func ReadDir(dir string) (sim.TrialSet, error) {
	if _, err := os.Stat(filepath.Join(dir, JSONLinesFile)); err == nil {
		return ReadDirFormat(dir, FormatJSONLines)
	}
	return ReadDirFormat(dir, FormatText)
}

// ReadDirFormat loads a Trial Set in the given layout, ignoring files of any other layout.
func ReadDirFormat(dir string, format Format) (sim.TrialSet, error) {
	switch format {
	case FormatJSONLines:
		f, err := os.Open(filepath.Join(dir, JSONLinesFile))
		if err != nil {
			return sim.TrialSet{}, fmt.Errorf("reading trial set: %w", err)
		}
		defer f.Close()
		return ReadJSONLines(f)
	case FormatText, "":
		var parts [3][][]float64
		for i, name := range textFiles {
			f, err := os.Open(filepath.Join(dir, name))
			if err != nil {
				return sim.TrialSet{}, fmt.Errorf("reading trial set: %w", err)
			}
			parts[i], err = ReadTrials(f)
			f.Close()
			if err != nil {
				return sim.TrialSet{}, fmt.Errorf("parsing %s: %w", name, err)
			}
		}
		return sim.TrialSet{S: parts[0], I: parts[1], R: parts[2]}, nil
	default:
		return sim.TrialSet{}, fmt.Errorf("unknown output format %q", format)
	}
}

var textFiles = []string{SusceptibleFile, InfectedFile, RecoveredFile}

// staleFiles lists the files another format would have left behind.
func staleFiles(format Format) []string {
	if format == FormatJSONLines {
		return textFiles
	}
	return []string{JSONLinesFile}
}

func removeFiles(dir string, names ...string) error {
	for _, name := range names {
		path := filepath.Join(dir, name)
		err := os.Remove(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("removing stale %s: %w", path, err)
		}
		logrus.Debugf("removed stale %s", path)
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	logrus.Debugf("wrote %s", path)
	return nil
}
