package sysfs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sys/unix"
)

// Host gives read-only access to the kernel's view of block devices and
// mounted filesystems. The roots are fields so tests can point a Host at
// a synthetic tree; New returns one wired to the real system.
type Host struct {
	Dev  string // device nodes, normally /dev
	Sys  string // sysfs, normally /sys
	Proc string // procfs, normally /proc
	Etc  string // static configuration, normally /etc
	Root string // the path whose backing device is "the root filesystem"
}

func New() *Host {
	return &Host{Dev: "/dev", Sys: "/sys", Proc: "/proc", Etc: "/etc", Root: "/"}
}

// DevPath returns the device-node path for a kernel device name.
func (h *Host) DevPath(name string) string {
	return filepath.Join(h.Dev, name)
}

// FirmwareUEFI reports whether the system was booted through UEFI
// firmware. The efi directory only exists when the kernel was started by
// UEFI firmware, so absence is conclusive evidence of BIOS boot.
func (h *Host) FirmwareUEFI() bool {
	info, err := os.Stat(filepath.Join(h.Sys, "firmware/efi"))
	return err == nil && info.IsDir()
}

// Mount is one row of the kernel mount table.
type Mount struct {
	Device string
	Point  string
	Type   string
}

// Mounts parses the kernel mount table. Unparseable lines are skipped.
func (h *Host) Mounts() ([]Mount, error) {
	data, err := os.ReadFile(filepath.Join(h.Proc, "self/mounts"))
	if err != nil {
		return nil, fmt.Errorf("reading mount table: %w", err)
	}
	var mounts []Mount
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		mounts = append(mounts, Mount{
			Device: unescapeMount(fields[0]),
			Point:  unescapeMount(fields[1]),
			Type:   fields[2],
		})
	}
	return mounts, nil
}

// MountAt returns the mount covering the given mount point, if any.
// Later table entries shadow earlier ones.
func (h *Host) MountAt(point string) (Mount, bool) {
	mounts, err := h.Mounts()
	if err != nil {
		return Mount{}, false
	}
	var found Mount
	ok := false
	for _, m := range mounts {
		if m.Point == point {
			found, ok = m, true
		}
	}
	return found, ok
}

// The mount table escapes whitespace and backslashes as octal.
func unescapeMount(s string) string {
	if !strings.Contains(s, "\\") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+3 < len(s) {
			oct := s[i+1 : i+4]
			if n, ok := octal(oct); ok {
				b.WriteByte(n)
				i += 3
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func octal(s string) (byte, bool) {
	var n int
	for i := 0; i < 3; i++ {
		if s[i] < '0' || s[i] > '7' {
			return 0, false
		}
		n = n*8 + int(s[i]-'0')
	}
	return byte(n), true
}

// Disks lists the kernel names of whole disks, excluding virtual devices
// (loop, device-mapper, ramdisks and friends). Sorted for determinism.
func (h *Host) Disks() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(h.Sys, "block"))
	if err != nil {
		return nil, fmt.Errorf("reading block device list: %w", err)
	}
	var disks []string
	for _, e := range entries {
		if h.virtualDevice(e.Name()) {
			continue
		}
		disks = append(disks, e.Name())
	}
	sort.Strings(disks)
	return disks, nil
}

// virtual device prefixes, for trees where the sysfs symlink target is
// not available to inspect
var virtualPrefixes = []string{"loop", "ram", "zram", "dm-", "md", "sr", "fd", "nbd"}

func (h *Host) virtualDevice(name string) bool {
	if link, err := os.Readlink(filepath.Join(h.Sys, "block", name)); err == nil {
		return strings.Contains(link, "devices/virtual/block")
	}
	for _, p := range virtualPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// IsDisk reports whether name is a non-virtual whole disk.
func (h *Host) IsDisk(name string) bool {
	if _, err := os.Stat(filepath.Join(h.Sys, "block", name)); err != nil {
		return false
	}
	return !h.virtualDevice(name)
}

// Removable reports the removable flag of a disk. Missing metadata
// counts as non-removable.
func (h *Host) Removable(name string) bool {
	data, err := os.ReadFile(filepath.Join(h.Sys, "block", name, "removable"))
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(data)) == "1"
}

// Partitions lists the partition names of a disk, in sorted order. A
// subdirectory of the disk counts as a partition when it carries the
// sysfs partition marker file.
func (h *Host) Partitions(disk string) []string {
	entries, err := os.ReadDir(filepath.Join(h.Sys, "block", disk))
	if err != nil {
		return nil
	}
	var parts []string
	for _, e := range entries {
		if _, err := os.Stat(filepath.Join(h.Sys, "block", disk, e.Name(), "partition")); err == nil {
			parts = append(parts, e.Name())
		}
	}
	sort.Strings(parts)
	return parts
}

// PartParent returns the disk a partition belongs to, by locating the
// partition directory under a disk in the sysfs block tree.
func (h *Host) PartParent(name string) (string, bool) {
	entries, err := os.ReadDir(filepath.Join(h.Sys, "block"))
	if err != nil {
		return "", false
	}
	for _, e := range entries {
		if _, err := os.Stat(filepath.Join(h.Sys, "block", e.Name(), name, "partition")); err == nil {
			return e.Name(), true
		}
	}
	return "", false
}

// DiskAncestor walks block topology upward from a device name until it
// reaches a whole disk: partitions resolve to their parent disk, stacked
// devices (device-mapper, md) resolve through their first slave. Returns
// false when the walk dead-ends or cycles.
func (h *Host) DiskAncestor(name string) (string, bool) {
	seen := make(map[string]bool)
	cur := name
	for !seen[cur] {
		seen[cur] = true
		if h.IsDisk(cur) {
			return cur, true
		}
		if parent, ok := h.PartParent(cur); ok {
			cur = parent
			continue
		}
		slaves, err := os.ReadDir(filepath.Join(h.Sys, "block", cur, "slaves"))
		if err != nil || len(slaves) == 0 {
			return "", false
		}
		names := make([]string, len(slaves))
		for i, s := range slaves {
			names[i] = s.Name()
		}
		sort.Strings(names)
		cur = names[0]
	}
	return "", false
}

// KnownBlock reports whether a kernel device name is present anywhere in
// the sysfs block tree, as a disk or as a partition.
func (h *Host) KnownBlock(name string) bool {
	if _, err := os.Stat(filepath.Join(h.Sys, "block", name)); err == nil {
		return true
	}
	if _, err := os.Stat(filepath.Join(h.Sys, "class/block", name)); err == nil {
		return true
	}
	_, ok := h.PartParent(name)
	return ok
}

// IsBlockDevice reports whether path is a block device node, or at least
// a node whose name the sysfs block tree knows about.
func (h *Host) IsBlockDevice(path string) bool {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err == nil && st.Mode&unix.S_IFMT == unix.S_IFBLK {
		return true
	}
	return h.KnownBlock(filepath.Base(path))
}

// RootDevice returns the kernel name of the device backing the root
// filesystem. The mount table is consulted first; when the root mount
// source is not a resolvable block device (overlays, "rootfs"), the
// device number of the root path is resolved through /sys/dev/block.
func (h *Host) RootDevice() (string, bool) {
	if m, ok := h.MountAt("/"); ok && strings.HasPrefix(m.Device, "/") {
		if resolved, err := filepath.EvalSymlinks(m.Device); err == nil && h.IsBlockDevice(resolved) {
			return filepath.Base(resolved), true
		}
	}
	var st unix.Stat_t
	if err := unix.Stat(h.Root, &st); err != nil {
		return "", false
	}
	maj := unix.Major(uint64(st.Dev))
	min := unix.Minor(uint64(st.Dev))
	link, err := os.Readlink(filepath.Join(h.Sys, "dev/block", fmt.Sprintf("%d:%d", maj, min)))
	if err != nil {
		return "", false
	}
	return filepath.Base(link), true
}
