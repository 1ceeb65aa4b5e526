package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// ErrServiceNotFound is returned when the pose service script cannot be located.
var ErrServiceNotFound = errors.New("pose_service.py not found")

// idleTimeout is how long the service may sit unused before it is shut down.
const idleTimeout = 30 * time.Second

// PoseServiceDetector implements Detector using a Python pose estimation and
// tracking subprocess. Frames go in as length-prefixed JPEG, people come back as
// one JSON line per frame.
type PoseServiceDetector struct {
	config     Config
	scriptPath string
	cmd        *exec.Cmd
	stdin      io.WriteCloser
	stdout     *bufio.Reader
	mu         sync.Mutex
	started    bool
	idleTimer  *time.Timer
}

// NewPoseServiceDetector creates a new pose service detector.
// The Python process is started lazily on first detection.
func NewPoseServiceDetector(config Config) (*PoseServiceDetector, error) {
	scriptPath := findPoseScript()
	if scriptPath == "" {
		return nil, ErrServiceNotFound
	}

	return &PoseServiceDetector{
		config:     config,
		scriptPath: scriptPath,
	}, nil
}

// Detect sends a frame to the service and returns the tracked people in it.
func (d *PoseServiceDetector) Detect(frame *gocv.Mat) ([]Person, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureStarted(); err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()

	// Write length (4 bytes big-endian) + data
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := d.stdin.Write(length); err != nil {
		return nil, fmt.Errorf("write length: %w", err)
	}
	if _, err := d.stdin.Write(data); err != nil {
		return nil, fmt.Errorf("write data: %w", err)
	}

	line, err := d.stdout.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	people, err := parseResponse([]byte(line))
	if err != nil {
		return nil, err
	}

	d.resetIdleTimer()

	return people, nil
}

// Close shuts down the Python process.
func (d *PoseServiceDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

func (d *PoseServiceDetector) ensureStarted() error {
	if d.started {
		return nil
	}

	pythonPath := findVenvPython()
	if pythonPath == "" {
		pythonPath = "python3"
	}

	d.cmd = exec.Command(pythonPath, d.scriptPath,
		"--model", d.config.Model,
		"--min-score", strconv.FormatFloat(d.config.MinScore, 'f', -1, 64),
		"--max-people", strconv.Itoa(d.config.MaxPeople),
	)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start pose service: %w", err)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true

	return nil
}

func (d *PoseServiceDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	return err
}

func (d *PoseServiceDetector) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(idleTimeout, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.shutdown()
	})
}

func findPoseScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		"scripts/pose_service.py",
		"../scripts/pose_service.py",
		filepath.Join(execDir, "scripts/pose_service.py"),
		filepath.Join(os.Getenv("HOME"), ".stretchcam/scripts/pose_service.py"),
	}

	return firstExisting(candidates)
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".stretchcam/venv/bin/python"),
	}

	return firstExisting(candidates)
}

func firstExisting(paths []string) string {
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// jsonPerson is one entry of the service response. Keypoints are [x, y] pairs,
// null for joints below the confidence threshold.
type jsonPerson struct {
	ID        int         `json:"id"`
	Keypoints [][]float64 `json:"keypoints"`
	BBox      []float64   `json:"bbox"`
}

// parseResponse decodes one JSON line from the pose service.
func parseResponse(line []byte) ([]Person, error) {
	var response struct {
		People []jsonPerson `json:"people"`
	}
	if err := json.Unmarshal(line, &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	people := make([]Person, len(response.People))
	for i, p := range response.People {
		people[i] = p.toPerson()
	}
	return people, nil
}

func (p jsonPerson) toPerson() Person {
	person := Person{
		ID:        p.ID,
		Keypoints: make([]*Point2D, NumJoints),
	}

	for i := 0; i < NumJoints && i < len(p.Keypoints); i++ {
		kp := p.Keypoints[i]
		if len(kp) < 2 {
			continue
		}
		person.Keypoints[i] = &Point2D{X: kp[0], Y: kp[1]}
	}

	copy(person.BBox[:], p.BBox)

	return person
}
