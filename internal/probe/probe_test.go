package probe

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
)

func haveAll(string) (string, error) { return "/usr/bin/tool", nil }

func haveNone(tool string) (string, error) { return "", fmt.Errorf("%s not in PATH", tool) }

func TestPartitionsParsesNestedOutput(t *testing.T) {
	out := `{
	  "blockdevices": [
	    {"path": "/dev/sda", "fstype": null, "parttype": null, "type": "disk", "mountpoint": null,
	     "children": [
	       {"path": "/dev/sda1", "fstype": "vfat", "parttype": "c12a7328-f81f-11d2-ba4b-00a0c93ec93b", "type": "part", "mountpoint": "/boot/efi"},
	       {"path": "/dev/sda2", "fstype": "ext4", "parttype": "0fc63daf-8483-4772-8e79-3d69d8477de4", "type": "part", "mountpoint": "/"}
	     ]},
	    {"path": "/dev/sr0", "fstype": null, "parttype": null, "type": "rom", "mountpoint": null}
	  ]
	}`
	p := NewWithExec(haveAll, func(name string, args ...string) ([]byte, error) {
		return []byte(out), nil
	})

	parts, err := p.Partitions()
	if err != nil {
		t.Fatal(err)
	}
	want := []Partition{
		{Path: "/dev/sda1", FSType: "vfat", PartType: "c12a7328-f81f-11d2-ba4b-00a0c93ec93b"},
		{Path: "/dev/sda2", FSType: "ext4", PartType: "0fc63daf-8483-4772-8e79-3d69d8477de4"},
	}
	if !reflect.DeepEqual(parts, want) {
		t.Fatalf("Partitions() = %v, want %v", parts, want)
	}
}

func TestPartitionsWithoutLsblk(t *testing.T) {
	p := NewWithExec(haveNone, nil)
	if _, err := p.Partitions(); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Partitions() error = %v, want ErrUnavailable", err)
	}
}

func TestFSUUID(t *testing.T) {
	p := NewWithExec(haveAll, func(name string, args ...string) ([]byte, error) {
		if args[len(args)-1] != "/dev/sda1" {
			return nil, fmt.Errorf("unexpected device")
		}
		return []byte("ABCD-1234\n"), nil
	})
	uuid, err := p.FSUUID("/dev/sda1")
	if err != nil {
		t.Fatal(err)
	}
	if uuid != "ABCD-1234" {
		t.Fatalf("FSUUID() = %q", uuid)
	}
}

func TestFSUUIDEmptyOutput(t *testing.T) {
	p := NewWithExec(haveAll, func(name string, args ...string) ([]byte, error) {
		return []byte("\n"), nil
	})
	if _, err := p.FSUUID("/dev/sda"); err == nil {
		t.Fatal("FSUUID() accepted an empty UUID")
	}
}

func TestFSUUIDWithoutBlkid(t *testing.T) {
	p := NewWithExec(haveNone, nil)
	if _, err := p.FSUUID("/dev/sda1"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("FSUUID() error = %v, want ErrUnavailable", err)
	}
}

func TestESPType(t *testing.T) {
	cases := []struct {
		parttype string
		want     bool
	}{
		{"c12a7328-f81f-11d2-ba4b-00a0c93ec93b", true},
		{"C12A7328-F81F-11D2-BA4B-00A0C93EC93B", true},
		{"0xef", true},
		{"0fc63daf-8483-4772-8e79-3d69d8477de4", false},
		{"", false},
	}
	for _, c := range cases {
		got := Partition{PartType: c.parttype}.ESPType()
		if got != c.want {
			t.Errorf("ESPType(%q) = %v, want %v", c.parttype, got, c.want)
		}
	}
}
