package detect

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"

	"bootprobe/internal/sysfs"
)

// ErrNoDisk means no whole disk could be identified for legacy boot.
// Never fatal: the caller falls back to a configured default disk.
var ErrNoDisk = errors.New("no boot disk found")

// LocateBIOSDisk finds the whole-disk device backing the root
// filesystem. Heuristics cascade from block topology down to device-name
// pattern matching, and finally to enumerating non-removable disks when
// the root device cannot be resolved at all.
func LocateBIOSDisk(h *sysfs.Host) (string, error) {
	if name, ok := h.RootDevice(); ok {
		if disk, ok := diskBacking(h, name); ok {
			return h.DevPath(disk), nil
		}
	}
	if disk, ok := fallbackDisk(h); ok {
		return h.DevPath(disk), nil
	}
	return "", ErrNoDisk
}

// diskBacking resolves a device name to the whole disk behind it.
func diskBacking(h *sysfs.Host, name string) (string, bool) {
	return firstHit(
		func() (string, bool) { return h.PartParent(name) },
		func() (string, bool) { return h.DiskAncestor(name) },
		func() (string, bool) { return strippedDiskName(h, name) },
	)
}

// conventional partition-name patterns, tried in order: nvme and mmc
// carry a "p<N>" suffix, classic sd/vd/hd names a bare number
var partSuffixPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(nvme\d+n\d+)p\d+$`),
	regexp.MustCompile(`^(mmcblk\d+)p\d+$`),
	regexp.MustCompile(`^([a-z]+[a-z])\d+$`),
}

// strippedDiskName strips a trailing partition-number suffix and accepts
// the result only if the kernel actually knows such a disk.
func strippedDiskName(h *sysfs.Host, name string) (string, bool) {
	for _, re := range partSuffixPatterns {
		m := re.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		if _, err := os.Stat(filepath.Join(h.Sys, "block", m[1])); err == nil {
			return m[1], true
		}
	}
	return "", false
}

// fallbackDisk enumerates non-removable whole disks: a single disk is
// the answer, otherwise the disk owning the root partition, otherwise
// the first one found.
func fallbackDisk(h *sysfs.Host) (string, bool) {
	disks, err := h.Disks()
	if err != nil {
		return "", false
	}
	var fixed []string
	for _, d := range disks {
		if !h.Removable(d) {
			fixed = append(fixed, d)
		}
	}
	if len(fixed) == 1 {
		return fixed[0], true
	}
	if m, ok := h.MountAt("/"); ok {
		rootName := filepath.Base(m.Device)
		for _, d := range fixed {
			for _, part := range h.Partitions(d) {
				if part == rootName {
					return d, true
				}
			}
		}
	}
	if len(fixed) > 0 {
		return fixed[0], true
	}
	return "", false
}
