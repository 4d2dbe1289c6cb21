package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
)

const serviceScript = "pose_service.py"

// poseService is a running pose_service.py process. Frames go in as a 4-byte
// big-endian length followed by JPEG bytes; each frame is answered by one
// JSON line.
type poseService struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
}

type poseReply struct {
	Poses []jsonPose `json:"poses"`
}

func startPoseService(script string, config Config) (*poseService, error) {
	python := locate(pythonCandidates())
	if python == "" {
		python = "python3"
	}

	cmd := exec.Command(python, script,
		"--min-detection-confidence", strconv.FormatFloat(config.MinConfidence, 'f', -1, 64),
		"--min-tracking-confidence", strconv.FormatFloat(config.MinTrackingConf, 'f', -1, 64),
	)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start pose service: %w", err)
	}

	return &poseService{cmd: cmd, stdin: stdin, stdout: bufio.NewReader(stdout)}, nil
}

func (s *poseService) roundTrip(jpeg []byte) ([]jsonPose, error) {
	if err := writeFrame(s.stdin, jpeg); err != nil {
		return nil, err
	}
	return readPoses(s.stdout)
}

// stop closes stdin, which ends the service loop, and waits for the exit.
func (s *poseService) stop() error {
	s.stdin.Close()
	return s.cmd.Wait()
}

func writeFrame(w io.Writer, data []byte) error {
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(data)))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write length: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write data: %w", err)
	}
	return nil
}

func readPoses(r *bufio.Reader) ([]jsonPose, error) {
	line, err := r.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	var reply poseReply
	if err := json.Unmarshal(line, &reply); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return reply.Poses, nil
}

func scriptCandidates() []string {
	paths := []string{
		filepath.Join("scripts", serviceScript),
		filepath.Join("..", "scripts", serviceScript),
	}
	if exe, err := os.Executable(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(exe), "scripts", serviceScript))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".catchball", "scripts", serviceScript))
	}
	return paths
}

func pythonCandidates() []string {
	paths := []string{
		filepath.Join("venv", "bin", "python"),
		filepath.Join("..", "venv", "bin", "python"),
	}
	if exe, err := os.Executable(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(exe), "venv", "bin", "python"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".catchball", "venv", "bin", "python"))
	}
	return paths
}

// locate returns the absolute path of the first existing candidate, or "".
func locate(candidates []string) string {
	for _, p := range candidates {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			return abs
		}
		return p
	}
	return ""
}
