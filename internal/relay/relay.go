// Package relay hands per-frame scores from the camera pipeline to the score
// endpoint through an append-only text file of "id:score" lines.
package relay

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/ayusman/stretchcam/internal/log"
)

// DefaultFile is the relay file name inside the data directory.
const DefaultFile = "scores.txt"

// Writer appends score lines to a relay file.
type Writer struct {
	path string
	mu   sync.Mutex
}

// NewWriter returns a writer for the relay file at path. The file is created
// on the first append.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Path returns the relay file location.
func (w *Writer) Path() string {
	return w.path
}

// Append writes one line per person in ascending id order.
func (w *Writer) Append(scores map[int]int) error {
	if len(scores) == 0 {
		return nil
	}

	ids := make([]int, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var b strings.Builder
	for _, id := range ids {
		fmt.Fprintf(&b, "%d:%d\n", id, scores[id])
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open relay file: %w", err)
	}
	if _, err := f.WriteString(b.String()); err != nil {
		f.Close()
		return fmt.Errorf("failed to write relay file: %w", err)
	}
	return f.Close()
}

// Summary is the collected result of a session.
type Summary struct {
	// People holds the best score seen for each identity.
	People map[int]int `json:"people"`
	// Total is the sum of the per-identity best scores.
	Total int `json:"score"`
}

// Collect reads the relay file at path, keeps the best score per identity and
// deletes the file. Malformed lines are skipped. A missing file yields an
// empty summary.
func Collect(path string) (Summary, error) {
	sum := Summary{People: make(map[int]int)}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn("relay file not found", "path", path)
		return sum, nil
	}
	if err != nil {
		return sum, fmt.Errorf("failed to open relay file: %w", err)
	}

	skipped := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		id, points, ok := parseLine(scanner.Text())
		if !ok {
			skipped++
			continue
		}
		if best, seen := sum.People[id]; !seen || points > best {
			sum.People[id] = points
		}
	}
	scanErr := scanner.Err()
	f.Close()
	if scanErr != nil {
		return Summary{People: make(map[int]int)}, fmt.Errorf("failed to read relay file: %w", scanErr)
	}

	if skipped > 0 {
		log.Debug("skipped malformed relay lines", "path", path, "count", skipped)
	}

	if err := os.Remove(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return sum, fmt.Errorf("failed to remove relay file: %w", err)
		}
		log.Warn("relay file vanished before removal", "path", path)
	}

	for _, points := range sum.People {
		sum.Total += points
	}
	return sum, nil
}

func parseLine(line string) (int, int, bool) {
	idText, pointsText, found := strings.Cut(strings.TrimSpace(line), ":")
	if !found {
		return 0, 0, false
	}
	id, err := strconv.Atoi(idText)
	if err != nil {
		return 0, 0, false
	}
	points, err := strconv.Atoi(pointsText)
	if err != nil {
		return 0, 0, false
	}
	return id, points, true
}
