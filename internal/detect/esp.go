package detect

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/deniswernert/go-fstab"

	"bootprobe/internal/probe"
	"bootprobe/internal/sysfs"
)

// ErrNoESP means no EFI System Partition candidate exists anywhere on
// the system. On a UEFI-booted machine this is fatal: the operator has
// to author the boot-device file by hand.
var ErrNoESP = errors.New("no EFI System Partition found")

// vfat covers the FAT family an ESP is formatted with.
func vfatFamily(fstype string) bool {
	switch strings.ToLower(fstype) {
	case "vfat", "fat", "fat12", "fat16", "fat32", "msdos":
		return true
	}
	return false
}

// LocateESP finds the block device to treat as the EFI System Partition.
// The search cascades: an ESP already mounted at a conventional mount
// point wins, then any vfat partition carrying the ESP partition type,
// then any vfat partition at all. The partition scans need lsblk and are
// skipped when it is missing.
func LocateESP(h *sysfs.Host, p *probe.Prober, candidates []string) (string, error) {
	dev, ok := firstHit(
		func() (string, bool) { return mountedESP(h, candidates) },
		func() (string, bool) { return flaggedVfatPartition(p) },
		func() (string, bool) { return anyVfatPartition(p) },
	)
	if !ok {
		return "", ErrNoESP
	}
	return dev, nil
}

// mountedESP checks the candidate mount points, in order, for a mounted
// vfat filesystem. Mount points declared with a vfat type in /etc/fstab
// extend the candidate list; a hit still requires an actual mount.
func mountedESP(h *sysfs.Host, candidates []string) (string, bool) {
	for _, point := range withFstabCandidates(h, candidates) {
		m, ok := h.MountAt(point)
		if !ok || !vfatFamily(m.Type) {
			continue
		}
		if resolved, err := filepath.EvalSymlinks(m.Device); err == nil {
			return resolved, true
		}
		return m.Device, true
	}
	return "", false
}

// withFstabCandidates appends fstab-declared vfat mount points to the
// configured candidates, deduplicated, configured order first. A missing
// or unparseable fstab contributes nothing.
func withFstabCandidates(h *sysfs.Host, candidates []string) []string {
	out := make([]string, 0, len(candidates))
	seen := make(map[string]bool)
	for _, c := range candidates {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	mounts, err := fstab.ParseFile(filepath.Join(h.Etc, "fstab"))
	if err != nil {
		return out
	}
	for _, m := range mounts {
		if !vfatFamily(m.VfsType) || seen[m.File] {
			continue
		}
		seen[m.File] = true
		out = append(out, m.File)
	}
	return out
}

func flaggedVfatPartition(p *probe.Prober) (string, bool) {
	parts, err := p.Partitions()
	if err != nil {
		return "", false
	}
	for _, part := range parts {
		if vfatFamily(part.FSType) && part.ESPType() {
			return part.Path, true
		}
	}
	return "", false
}

func anyVfatPartition(p *probe.Prober) (string, bool) {
	parts, err := p.Partitions()
	if err != nil {
		return "", false
	}
	for _, part := range parts {
		if vfatFamily(part.FSType) {
			return part.Path, true
		}
	}
	return "", false
}
