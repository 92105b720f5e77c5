//go:build linux

package devices

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unsafe"

	"github.com/smazurov/camsnap/internal/logging"
	"golang.org/x/sys/unix"
)

const (
	v4l2CapVideoCapture = 0x00000001
	v4l2CapDeviceCaps   = 0x80000000

	// _IOR('V', 0, struct v4l2_capability)
	vidiocQuerycap = 0x80685600
)

// v4l2Capability mirrors struct v4l2_capability (104 bytes).
type v4l2Capability struct {
	driver       [16]byte
	card         [32]byte
	busInfo      [32]byte
	version      uint32
	capabilities uint32
	deviceCaps   uint32
	reserved     [3]uint32
}

type linuxInventory struct {
	classDir string // /sys/class/video4linux
	devDir   string // /dev
	byIDDir  string // /dev/v4l/by-id
	logger   *slog.Logger
}

func newInventory(_ []string) Inventory {
	return &linuxInventory{
		classDir: "/sys/class/video4linux",
		devDir:   "/dev",
		byIDDir:  "/dev/v4l/by-id",
		logger:   logging.GetLogger("devices"),
	}
}

// QueryDevices lists video4linux nodes. Nodes that answer VIDIOC_QUERYCAP
// without the video capture capability (metadata nodes, encoders) are left
// out; nodes that cannot be opened are reported with their sysfs name so the
// catalog can still see them.
func (l *linuxInventory) QueryDevices(ctx context.Context) ([]Entry, error) {
	nodes, err := os.ReadDir(l.classDir)
	if err != nil {
		if os.IsNotExist(err) {
			l.logger.Debug("video4linux class not present", "dir", l.classDir)
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", l.classDir, err)
	}

	entries := make([]Entry, 0, len(nodes))
	for _, node := range nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := node.Name()
		devicePath := filepath.Join(l.devDir, name)
		description := readSysfsString(filepath.Join(l.classDir, name, "name"))

		if caps, card, capErr := queryCapability(devicePath); capErr == nil {
			if caps&v4l2CapVideoCapture == 0 {
				l.logger.Debug("skipping non-capture node", "path", devicePath, "caps", fmt.Sprintf("0x%08x", caps))
				continue
			}
			if card != "" {
				description = card
			}
		} else {
			l.logger.Debug("capability query failed", "path", devicePath, "error", capErr)
		}

		index := readSysfsInt(filepath.Join(l.classDir, name, "index"))
		identifier := l.findStableID(name, index)
		if identifier == "" {
			identifier = devicePath
		}

		entries = append(entries, Entry{
			Description: description,
			Identifier:  identifier,
			Path:        devicePath,
		})
	}

	return entries, nil
}

// findStableID returns the /dev/v4l/by-id link name pointing at node, or "".
func (l *linuxInventory) findStableID(node string, index int) string {
	links, err := os.ReadDir(l.byIDDir)
	if err != nil {
		return ""
	}

	suffix := fmt.Sprintf("-video-index%d", index)
	for _, link := range links {
		if link.Type()&os.ModeSymlink == 0 {
			continue
		}
		target, err := os.Readlink(filepath.Join(l.byIDDir, link.Name()))
		if err != nil {
			continue
		}
		if filepath.Base(target) == node && strings.HasSuffix(link.Name(), suffix) {
			return link.Name()
		}
	}
	return ""
}

// queryCapability returns the effective capability flags and card name.
func queryCapability(devicePath string) (uint32, string, error) {
	fd, err := unix.Open(devicePath, unix.O_RDWR|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return 0, "", err
	}
	defer unix.Close(fd)

	var capability v4l2Capability
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), vidiocQuerycap, uintptr(unsafe.Pointer(&capability))); errno != 0 {
		return 0, "", errno
	}

	caps := capability.capabilities
	if caps&v4l2CapDeviceCaps != 0 {
		caps = capability.deviceCaps
	}
	return caps, cstr(capability.card[:]), nil
}

func readSysfsString(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func readSysfsInt(path string) int {
	val, _ := strconv.Atoi(readSysfsString(path))
	return val
}

// cstr converts a null-terminated byte slice to a Go string.
func cstr(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}
