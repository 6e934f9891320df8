package structures

// DetectConfig holds the tunable parts of boot-device detection. All
// fields are optional in the YAML file; zero values are filled in by
// ApplyDefaults.
type DetectConfig struct {
	// Mount points checked, in order, for an already-mounted EFI
	// System Partition.
	ESPMounts []string `yaml:"esp_mounts"`
	// File the final decision line is written to.
	Output string `yaml:"output"`
	// Disk used when BIOS detection finds nothing at all.
	FallbackDisk string `yaml:"fallback_disk"`
}

const DefaultOutput = "/etc/bootprobe/boot-device"

func (c *DetectConfig) ApplyDefaults() {
	if len(c.ESPMounts) == 0 {
		c.ESPMounts = []string{"/boot/efi", "/efi", "/boot"}
	}
	if c.Output == "" {
		c.Output = DefaultOutput
	}
	if c.FallbackDisk == "" {
		c.FallbackDisk = "/dev/sda"
	}
}
