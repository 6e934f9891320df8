package probe

import (
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrUnavailable means the external tool backing a query is not
// installed. Callers treat this as "no answer" and move on to the next
// heuristic rather than failing the run.
var ErrUnavailable = errors.New("introspection tool not available")

// Prober runs the optional external introspection tools (lsblk, blkid).
// Each query checks for its tool first and degrades to ErrUnavailable
// when it is missing.
type Prober struct {
	lookPath func(file string) (string, error)
	output   func(name string, args ...string) ([]byte, error)
}

func New() *Prober {
	return &Prober{
		lookPath: exec.LookPath,
		output: func(name string, args ...string) ([]byte, error) {
			return exec.Command(name, args...).Output()
		},
	}
}

// NewWithExec builds a Prober on top of caller-supplied lookup and
// execution functions. Used by tests to model hosts with or without the
// tools installed.
func NewWithExec(lookPath func(string) (string, error), output func(string, ...string) ([]byte, error)) *Prober {
	return &Prober{lookPath: lookPath, output: output}
}

func (p *Prober) have(tool string) bool {
	_, err := p.lookPath(tool)
	return err == nil
}

// Partition is one partition row from the lsblk scan.
type Partition struct {
	Path     string
	FSType   string
	PartType string
}

// ESPType reports whether the partition carries the EFI System Partition
// type, either as the GPT type GUID or the MBR partition id.
func (pt Partition) ESPType() bool {
	const espGUID = "c12a7328-f81f-11d2-ba4b-00a0c93ec93b"
	t := strings.ToLower(strings.TrimSpace(pt.PartType))
	return t == espGUID || t == "0xef" || t == "ef"
}

// lsblk --json nests partitions under their parent device
type lsblkOutput struct {
	Blockdevices []lsblkDevice `json:"blockdevices"`
}

type lsblkDevice struct {
	Path     string        `json:"path"`
	Fstype   string        `json:"fstype"`
	Parttype string        `json:"parttype"`
	Type     string        `json:"type"`
	Children []lsblkDevice `json:"children,omitempty"`
}

// Partitions scans all partitions known to lsblk, with filesystem type
// and partition type attached. Returns ErrUnavailable when lsblk is not
// installed.
func (p *Prober) Partitions() ([]Partition, error) {
	if !p.have("lsblk") {
		return nil, fmt.Errorf("lsblk: %w", ErrUnavailable)
	}
	out, err := p.output("lsblk", "--json", "-o", "PATH,FSTYPE,PARTTYPE,TYPE")
	if err != nil {
		return nil, fmt.Errorf("running lsblk: %w", err)
	}
	var parsed lsblkOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return nil, fmt.Errorf("parsing lsblk output: %w", err)
	}
	var parts []Partition
	var walk func(devs []lsblkDevice)
	walk = func(devs []lsblkDevice) {
		for _, d := range devs {
			if d.Type == "part" {
				parts = append(parts, Partition{
					Path:     d.Path,
					FSType:   d.Fstype,
					PartType: d.Parttype,
				})
			}
			walk(d.Children)
		}
	}
	walk(parsed.Blockdevices)
	return parts, nil
}

// FSUUID returns the filesystem UUID of a device via blkid, or
// ErrUnavailable when blkid is not installed. An empty UUID with a nil
// error never occurs; a device without a UUID yields an error.
func (p *Prober) FSUUID(dev string) (string, error) {
	if !p.have("blkid") {
		return "", fmt.Errorf("blkid: %w", ErrUnavailable)
	}
	out, err := p.output("blkid", "-s", "UUID", "-o", "value", dev)
	if err != nil {
		return "", fmt.Errorf("running blkid on %s: %w", dev, err)
	}
	uuid := strings.TrimSpace(string(out))
	if uuid == "" {
		return "", fmt.Errorf("no filesystem UUID on %s", dev)
	}
	return uuid, nil
}
