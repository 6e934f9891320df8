package detect

import (
	"os"
	"path/filepath"

	"bootprobe/internal/probe"
	"bootprobe/internal/sysfs"
)

// Two deliberately separate path policies. The ESP prefers its
// filesystem UUID over a hardware id; a whole disk prefers its hardware
// id over a UUID. Keeping them as distinct functions stops the two
// orders from ever being mixed.

// ESPPath returns the most stable path for an EFI System Partition:
// by-uuid, then by-id, then the raw device node.
func ESPPath(h *sysfs.Host, p *probe.Prober, dev string) string {
	path, _ := firstHit(
		func() (string, bool) { return uuidAlias(h, p, dev) },
		func() (string, bool) { return aliasIn(filepath.Join(h.Dev, "disk/by-id"), dev) },
		func() (string, bool) { return dev, true },
	)
	return path
}

// DiskPath returns the most stable path for a whole disk: by-id, then
// by-uuid, then the raw device node.
func DiskPath(h *sysfs.Host, p *probe.Prober, dev string) string {
	path, _ := firstHit(
		func() (string, bool) { return aliasIn(filepath.Join(h.Dev, "disk/by-id"), dev) },
		func() (string, bool) { return uuidAlias(h, p, dev) },
		func() (string, bool) { return dev, true },
	)
	return path
}

// uuidAlias finds the by-uuid path of a device: the existing symlink
// when udev created one, otherwise constructed from the blkid-reported
// filesystem UUID.
func uuidAlias(h *sysfs.Host, p *probe.Prober, dev string) (string, bool) {
	byUUID := filepath.Join(h.Dev, "disk/by-uuid")
	if path, ok := aliasIn(byUUID, dev); ok {
		return path, true
	}
	if uuid, err := p.FSUUID(dev); err == nil {
		return filepath.Join(byUUID, uuid), true
	}
	return "", false
}

// aliasIn scans a directory of device symlinks for one resolving to the
// same underlying device. Entries are visited in name order so repeated
// runs pick the same alias.
func aliasIn(dir, dev string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	want, err := filepath.EvalSymlinks(dev)
	if err != nil {
		want = dev
	}
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		resolved, err := filepath.EvalSymlinks(path)
		if err == nil && resolved == want {
			return path, true
		}
	}
	return "", false
}
