package detect

import (
	"fmt"

	"bootprobe/internal/probe"
	"bootprobe/internal/structures"
	"bootprobe/internal/sysfs"
	"bootprobe/internal/target"
)

// Run performs one full detection pass and produces the boot target.
//
// UEFI: a missing ESP is fatal and surfaces as ErrNoESP. BIOS: a missing
// disk is recovered with the configured fallback disk; the warning is
// returned for the caller to print. Detection is read-only, so running
// it twice on an unchanged system yields the same target.
func Run(h *sysfs.Host, p *probe.Prober, cfg structures.DetectConfig) (target.BootTarget, []string, error) {
	if Firmware(h) == UEFI {
		dev, err := LocateESP(h, p, cfg.ESPMounts)
		if err != nil {
			return target.BootTarget{}, nil, err
		}
		return target.BootTarget{Mode: target.ModeUEFI, Path: ESPPath(h, p, dev)}, nil, nil
	}

	dev, err := LocateBIOSDisk(h)
	if err != nil {
		warning := fmt.Sprintf("%v, falling back to %s", err, cfg.FallbackDisk)
		return target.BootTarget{Mode: target.ModeBIOS, Path: cfg.FallbackDisk}, []string{warning}, nil
	}
	return target.BootTarget{Mode: target.ModeBIOS, Path: DiskPath(h, p, dev)}, nil, nil
}
