package detect

import "bootprobe/internal/sysfs"

// FirmwareMode distinguishes UEFI from legacy BIOS boot.
type FirmwareMode int

const (
	BIOS FirmwareMode = iota
	UEFI
)

func (m FirmwareMode) String() string {
	if m == UEFI {
		return "UEFI"
	}
	return "BIOS"
}

// Firmware determines the firmware mode of the running system. There is
// no error case: a missing efi marker means BIOS, not failure.
func Firmware(h *sysfs.Host) FirmwareMode {
	if h.FirmwareUEFI() {
		return UEFI
	}
	return BIOS
}
