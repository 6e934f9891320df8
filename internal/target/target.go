package target

import "strings"

// Mode is the firmware mode a boot target was selected for.
type Mode int

const (
	// ModeAuto means the consumer decides the firmware mode itself.
	ModeAuto Mode = iota
	ModeUEFI
	ModeBIOS
)

func (m Mode) String() string {
	switch m {
	case ModeUEFI:
		return "UEFI"
	case ModeBIOS:
		return "BIOS"
	}
	return "auto"
}

// BootTarget is the single decision produced per run: where the
// bootloader should be installed, and for which firmware mode.
type BootTarget struct {
	Mode Mode
	Path string
}

// Line renders the target in the on-disk format. UEFI targets carry an
// explicit prefix; BIOS targets are written as a bare path, which the
// downstream evaluator treats as implicit BIOS/auto mode.
func (t BootTarget) Line() string {
	if t.Mode == ModeUEFI {
		return "UEFI:" + t.Path
	}
	return t.Path
}

// Parse decodes a configuration line the way the downstream evaluator
// does: split on the first colon, and if the first part is literally
// "UEFI" or "BIOS" use it as the explicit mode. Anything else is a bare
// target path with automatic mode. An empty line yields an empty target.
func Parse(line string) BootTarget {
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return BootTarget{}
	}
	if mode, path, found := strings.Cut(line, ":"); found {
		switch mode {
		case "UEFI":
			return BootTarget{Mode: ModeUEFI, Path: path}
		case "BIOS":
			return BootTarget{Mode: ModeBIOS, Path: path}
		}
	}
	return BootTarget{Mode: ModeAuto, Path: line}
}
