package detect

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"bootprobe/internal/probe"
	"bootprobe/internal/sysfs"
)

// newTestHost builds an empty synthetic topology under a temp dir.
func newTestHost(t *testing.T) *sysfs.Host {
	t.Helper()
	root := t.TempDir()
	h := &sysfs.Host{
		Dev:  filepath.Join(root, "dev"),
		Sys:  filepath.Join(root, "sys"),
		Proc: filepath.Join(root, "proc"),
		Etc:  filepath.Join(root, "etc"),
		Root: root,
	}
	for _, dir := range []string{
		filepath.Join(h.Dev, "disk/by-id"),
		filepath.Join(h.Dev, "disk/by-uuid"),
		filepath.Join(h.Sys, "block"),
		filepath.Join(h.Proc, "self"),
		h.Etc,
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
	}
	writeFile(t, filepath.Join(h.Proc, "self/mounts"), "")
	return h
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func markUEFI(t *testing.T, h *sysfs.Host) {
	t.Helper()
	if err := os.MkdirAll(filepath.Join(h.Sys, "firmware/efi"), 0755); err != nil {
		t.Fatal(err)
	}
}

func addDisk(t *testing.T, h *sysfs.Host, name string, removable bool) {
	t.Helper()
	dir := filepath.Join(h.Sys, "block", name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	flag := "0"
	if removable {
		flag = "1"
	}
	writeFile(t, filepath.Join(dir, "removable"), flag+"\n")
	writeFile(t, h.DevPath(name), "")
}

func addPart(t *testing.T, h *sysfs.Host, disk, name string) {
	t.Helper()
	dir := filepath.Join(h.Sys, "block", disk, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, "partition"), "1\n")
	writeFile(t, h.DevPath(name), "")
}

func addMount(t *testing.T, h *sysfs.Host, device, point, fstype string) {
	t.Helper()
	path := filepath.Join(h.Proc, "self/mounts")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, "%s %s %s rw 0 0\n", device, point, fstype); err != nil {
		t.Fatal(err)
	}
}

func addAlias(t *testing.T, h *sysfs.Host, kind, alias, devname string) {
	t.Helper()
	link := filepath.Join(h.Dev, "disk", kind, alias)
	if err := os.Symlink(h.DevPath(devname), link); err != nil {
		t.Fatal(err)
	}
}

// stubProber fakes lsblk/blkid output. A nil parts slice models a host
// without lsblk; a nil uuids map models one without blkid.
func stubProber(t *testing.T, parts []probe.Partition, uuids map[string]string) *probe.Prober {
	t.Helper()
	lookPath := func(tool string) (string, error) {
		switch tool {
		case "lsblk":
			if parts == nil {
				return "", fmt.Errorf("%s not found", tool)
			}
		case "blkid":
			if uuids == nil {
				return "", fmt.Errorf("%s not found", tool)
			}
		}
		return "/usr/bin/" + tool, nil
	}
	output := func(name string, args ...string) ([]byte, error) {
		switch name {
		case "lsblk":
			type dev struct {
				Path     string `json:"path"`
				Fstype   string `json:"fstype"`
				Parttype string `json:"parttype"`
				Type     string `json:"type"`
			}
			var devs []dev
			for _, p := range parts {
				devs = append(devs, dev{p.Path, p.FSType, p.PartType, "part"})
			}
			return json.Marshal(map[string]any{"blockdevices": devs})
		case "blkid":
			uuid, ok := uuids[args[len(args)-1]]
			if !ok || uuid == "" {
				return nil, fmt.Errorf("blkid: no uuid")
			}
			return []byte(uuid + "\n"), nil
		}
		return nil, fmt.Errorf("unexpected command %s", name)
	}
	return probe.NewWithExec(lookPath, output)
}

func noTools(t *testing.T) *probe.Prober {
	t.Helper()
	return stubProber(t, nil, nil)
}
