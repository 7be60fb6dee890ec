package services

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"diskwarden/internal/models"

	"github.com/mattn/go-shellwords"
)

// DefaultDiscoveryCommand asks df for POSIX output in 1 KiB blocks
const DefaultDiscoveryCommand = "df -Pk"

// DefaultDiscoveryTimeout bounds a single df invocation
const DefaultDiscoveryTimeout = 10 * time.Second

// defaultBlockSize is the df -Pk block unit in bytes, used when the header
// does not name one
const defaultBlockSize = 1024

var (
	// header such as "Filesystem 512-blocks Used ..."
	blocksHeader = regexp.MustCompile(`^\S+\s+(\d+)-blocks\s`)
	// device-backed filesystem: first token starts with /dev/
	deviceLine = regexp.MustCompile(`^(/dev/\S+)\s+(.*)$`)
	// total, used and available blocks, capacity percentage, mount path
	usageFields = regexp.MustCompile(`^(\d+)\s+(\d+)\s+(\d+)\s+(\d+%)\s+(\S.*)$`)
)

// CommandRunner runs an external command and returns its standard output.
// A non-nil error means the command could not be started or did not succeed.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands on the host with os/exec
type ExecRunner struct{}

// Run executes name with no standard input and captures standard output only
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = nil
	return cmd.Output()
}

// CommandFailure is returned when the disk report command cannot be started
// or exits unsuccessfully
type CommandFailure struct {
	Command string
	Message string
	Err     error
}

func (e *CommandFailure) Error() string {
	return fmt.Sprintf("%s: %s", e.Command, e.Message)
}

func (e *CommandFailure) Unwrap() error {
	return e.Err
}

// FilesystemDiscoverer lists device-backed filesystems by running df
type FilesystemDiscoverer struct {
	runner  CommandRunner
	argv    []string
	timeout time.Duration
}

// NewFilesystemDiscoverer splits command into arguments shell-style.
// A zero timeout disables the per-call deadline.
func NewFilesystemDiscoverer(runner CommandRunner, command string, timeout time.Duration) (*FilesystemDiscoverer, error) {
	if runner == nil {
		runner = ExecRunner{}
	}
	if strings.TrimSpace(command) == "" {
		command = DefaultDiscoveryCommand
	}

	argv, err := shellwords.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("invalid discovery command %q: %w", command, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("invalid discovery command %q: no program", command)
	}

	return &FilesystemDiscoverer{
		runner:  runner,
		argv:    argv,
		timeout: timeout,
	}, nil
}

// Command returns the configured command line
func (d *FilesystemDiscoverer) Command() string {
	return strings.Join(d.argv, " ")
}

// Discover runs the disk report and returns one record per device.
// The order of the result is unspecified. On failure the slice is nil and
// the error is a *CommandFailure.
func (d *FilesystemDiscoverer) Discover(ctx context.Context) ([]models.Filesystem, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	output, err := d.runner.Run(ctx, d.argv[0], d.argv[1:]...)
	if err != nil {
		failure := &CommandFailure{
			Command: d.Command(),
			Message: describeCommandError(ctx, err),
			Err:     err,
		}
		log.WithError(err).Warnf("Filesystem discovery failed: %s", failure.Message)
		return nil, failure
	}

	return ParseDfOutput(string(output)), nil
}

func describeCommandError(ctx context.Context, err error) string {
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return "timed out"
		}
		return "cancelled"
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		msg := fmt.Sprintf("exited with status %d", exitErr.ExitCode())
		if stderr := strings.TrimSpace(string(exitErr.Stderr)); stderr != "" {
			msg += ": " + stderr
		}
		return msg
	}

	return "could not be started: " + err.Error()
}

// ParseDfOutput parses `df -P` output.
// Columns: Filesystem N-blocks Used Available Capacity Mounted-on.
// Block counts are scaled by the N named in the header, 1024 when there is no
// header. Lines that do not describe a /dev/ filesystem are skipped. When a
// device is mounted more than once the shortest mount path is kept.
func ParseDfOutput(output string) []models.Filesystem {
	byDevice := make(map[string]models.Filesystem)
	blockSize := uint64(defaultBlockSize)

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if header := blocksHeader.FindStringSubmatch(line); header != nil {
			if n, err := strconv.ParseUint(header[1], 10, 64); err == nil && n > 0 {
				blockSize = n
			}
			continue
		}

		fs, ok := parseDfLine(line, blockSize)
		if !ok {
			continue
		}

		if existing, seen := byDevice[fs.Device]; seen {
			if utf8.RuneCountInString(fs.MountPath) < utf8.RuneCountInString(existing.MountPath) {
				byDevice[fs.Device] = fs
			}
			continue
		}
		byDevice[fs.Device] = fs
	}

	filesystems := make([]models.Filesystem, 0, len(byDevice))
	for _, fs := range byDevice {
		filesystems = append(filesystems, fs)
	}
	return filesystems
}

func parseDfLine(line string, blockSize uint64) (models.Filesystem, bool) {
	device := deviceLine.FindStringSubmatch(line)
	if device == nil {
		return models.Filesystem{}, false
	}

	fields := usageFields.FindStringSubmatch(device[2])
	if fields == nil {
		log.Debugf("Skipping unparseable df line for %s", device[1])
		return models.Filesystem{}, false
	}

	totalBlocks, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return models.Filesystem{}, false
	}
	usedBlocks, err := strconv.ParseUint(fields[2], 10, 64)
	if err != nil {
		return models.Filesystem{}, false
	}

	return models.Filesystem{
		Device:        device[1],
		CapacityBytes: totalBlocks * blockSize,
		UsedBytes:     usedBlocks * blockSize,
		MountPath:     fields[5],
	}, true
}

var discoverer *FilesystemDiscoverer

// InitFilesystemDiscoverer sets up the discoverer used by the cache, collector and handlers
func InitFilesystemDiscoverer(runner CommandRunner, command string, timeout time.Duration) (*FilesystemDiscoverer, error) {
	d, err := NewFilesystemDiscoverer(runner, command, timeout)
	if err != nil {
		return nil, err
	}
	discoverer = d
	return d, nil
}

// GetFilesystemDiscoverer returns the initialized discoverer
func GetFilesystemDiscoverer() *FilesystemDiscoverer {
	return discoverer
}

// DiscoverFilesystems runs a fresh discovery with the shared discoverer
func DiscoverFilesystems(ctx context.Context) ([]models.Filesystem, error) {
	if discoverer == nil {
		return nil, fmt.Errorf("filesystem discoverer not initialized")
	}
	return discoverer.Discover(ctx)
}
