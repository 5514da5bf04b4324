package analysis

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/chatinsight/chatinsight-go/tool"
)

// progressRe matches the progress markers the script emits on stdout/stderr.
var progressRe = regexp.MustCompile(`\[PROGRESS\] ([\d.]+)% - (.+)`)

// ProgressFunc receives each progress marker as it is parsed. Calls happen
// from the stream-reading goroutines; implementations must not block.
type ProgressFunc func(percentage float64, description string)

// Invoker launches the external analysis script. Instances are stateless and
// safe for concurrent use; each Run owns its own subprocess.
type Invoker struct {
	PythonBinary string
	ScriptPath   string
	PriceFile    string
	Timeout      time.Duration
}

// Run executes the script over conversationPath, writing the detail structure
// to structuredOut and the aggregate stats to statsOut. Progress markers from
// both output streams are forwarded to onProgress in emission order per
// stream. A non-zero exit, or hitting the timeout, returns ErrAnalysisFailed.
func (inv *Invoker) Run(ctx context.Context, conversationPath, structuredOut, statsOut string, onProgress ProgressFunc) error {
	if inv.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, inv.Timeout)
		defer cancel()
	}

	args := []string{
		inv.ScriptPath,
		conversationPath,
		structuredOut,
		"--stats_output_file=" + statsOut,
		"--price_file=" + inv.PriceFile,
		"--verbosity=progress",
	}
	cmd := exec.CommandContext(ctx, inv.PythonBinary, args...)
	cmd.Dir = filepath.Dir(inv.ScriptPath)
	cmd.Stdin = nil

	// Use a process group so cancellation kills the whole tree.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)
	}
	cmd.WaitDelay = 10 * time.Second

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%w: stdout pipe: %v", ErrAnalysisFailed, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("%w: stderr pipe: %v", ErrAnalysisFailed, err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: start: %v", ErrAnalysisFailed, err)
	}
	tool.DefaultLogger.Infof("[Analysis] Started %s %s (pid %d)", inv.PythonBinary, strings.Join(args, " "), cmd.Process.Pid)

	var tail diagnosticTail
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		scanStream(stdout, onProgress, nil)
	}()
	go func() {
		defer wg.Done()
		scanStream(stderr, onProgress, &tail)
	}()
	wg.Wait()

	waitErr := cmd.Wait()
	if ctx.Err() == context.DeadlineExceeded {
		tool.DefaultLogger.Errorf("[Analysis] Timed out after %s, subprocess killed", inv.Timeout)
		return fmt.Errorf("%w: timed out after %s", ErrAnalysisFailed, inv.Timeout)
	}
	if waitErr != nil {
		// Diagnostics stay server-side; the client only sees the error kind.
		tool.DefaultLogger.Errorf("[Analysis] Script failed: %v, stderr tail: %s", waitErr, tail.String())
		return fmt.Errorf("%w: %v", ErrAnalysisFailed, waitErr)
	}
	tool.DefaultLogger.Infof("[Analysis] Script finished successfully")
	return nil
}

// scanStream reads one output stream line by line, forwarding progress
// markers and recording non-marker lines into the diagnostic tail.
func scanStream(r io.Reader, onProgress ProgressFunc, tail *diagnosticTail) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if pct, desc, ok := parseProgressLine(line); ok {
			if onProgress != nil {
				onProgress(pct, desc)
			}
			continue
		}
		if tail != nil {
			tail.Add(line)
		}
	}
}

// parseProgressLine extracts a progress marker from one output line.
func parseProgressLine(line string) (float64, string, bool) {
	m := progressRe.FindStringSubmatch(line)
	if m == nil {
		return 0, "", false
	}
	pct, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, "", false
	}
	return pct, strings.TrimSpace(m[2]), true
}

// diagnosticTail keeps the last few non-progress stderr lines for logging.
type diagnosticTail struct {
	mu    sync.Mutex
	lines []string
}

const tailLimit = 20

func (t *diagnosticTail) Add(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, line)
	if len(t.lines) > tailLimit {
		t.lines = t.lines[len(t.lines)-tailLimit:]
	}
}

func (t *diagnosticTail) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.Join(t.lines, " | ")
}
