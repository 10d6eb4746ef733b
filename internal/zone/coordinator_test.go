package zone

import (
	"context"
	"errors"
	"testing"

	"github.com/wavetable-labs/soundbridge/internal/device"
)

func newTestCoordinator(t *testing.T, deviceIDs ...string) (*Coordinator, *device.Registry) {
	t.Helper()

	registry := device.NewRegistry(device.NewMemoryRepository(), false)
	ctx := context.Background()
	for _, id := range deviceIDs {
		if _, err := registry.Register(ctx, device.Device{ID: id, Name: "Speaker " + id, Host: "10.0.0." + id}); err != nil {
			t.Fatalf("Register(%s) error = %v", id, err)
		}
	}
	return NewCoordinator(registry), registry
}

func TestCreateZone(t *testing.T) {
	c, _ := newTestCoordinator(t, "m", "a", "b")
	ctx := context.Background()

	z, err := c.CreateZone(ctx, "m", []string{"a", "b"})
	if err != nil {
		t.Fatalf("CreateZone() error = %v", err)
	}
	if z.Master != "m" || len(z.Slaves) != 2 {
		t.Errorf("zone = %+v", z)
	}

	got, err := c.Zone(ctx, "m")
	if err != nil {
		t.Fatalf("Zone() error = %v", err)
	}
	if got.Slaves[0] != "a" || got.Slaves[1] != "b" {
		t.Errorf("slaves = %v, want [a b]", got.Slaves)
	}
}

func TestCreateZone_UnknownMaster(t *testing.T) {
	c, _ := newTestCoordinator(t, "a")

	_, err := c.CreateZone(context.Background(), "ghost", []string{"a"})
	if !errors.Is(err, device.ErrDeviceNotFound) {
		t.Errorf("CreateZone() error = %v, want ErrDeviceNotFound", err)
	}
}

func TestCreateZone_DropsUnknownSlaves(t *testing.T) {
	c, _ := newTestCoordinator(t, "m", "a")

	z, err := c.CreateZone(context.Background(), "m", []string{"a", "ghost", "a"})
	if err != nil {
		t.Fatalf("CreateZone() error = %v", err)
	}
	if len(z.Slaves) != 1 || z.Slaves[0] != "a" {
		t.Errorf("slaves = %v, want [a]", z.Slaves)
	}
}

func TestCreateZone_ReplacesWholesale(t *testing.T) {
	c, _ := newTestCoordinator(t, "m", "a", "b")
	ctx := context.Background()

	if _, err := c.CreateZone(ctx, "m", []string{"a"}); err != nil {
		t.Fatalf("CreateZone() error = %v", err)
	}
	z, err := c.CreateZone(ctx, "m", []string{"b"})
	if err != nil {
		t.Fatalf("second CreateZone() error = %v", err)
	}
	if len(z.Slaves) != 1 || z.Slaves[0] != "b" {
		t.Errorf("slaves = %v, want wholesale replacement [b]", z.Slaves)
	}
}

func TestCreateZone_RejectsGroupedSlave(t *testing.T) {
	c, _ := newTestCoordinator(t, "m1", "m2", "a")
	ctx := context.Background()

	if _, err := c.CreateZone(ctx, "m1", []string{"a"}); err != nil {
		t.Fatalf("CreateZone() error = %v", err)
	}

	if _, err := c.CreateZone(ctx, "m2", []string{"a"}); !errors.Is(err, ErrSlaveInZone) {
		t.Errorf("CreateZone() error = %v, want ErrSlaveInZone", err)
	}

	// A master cannot become another zone's slave
	if _, err := c.CreateZone(ctx, "m2", []string{"m1"}); !errors.Is(err, ErrSlaveInZone) {
		t.Errorf("CreateZone(master as slave) error = %v, want ErrSlaveInZone", err)
	}
}

func TestCreateZone_RejectsEnslavedMaster(t *testing.T) {
	c, _ := newTestCoordinator(t, "m1", "a", "b")
	ctx := context.Background()

	if _, err := c.CreateZone(ctx, "m1", []string{"a"}); err != nil {
		t.Fatalf("CreateZone() error = %v", err)
	}

	// "a" slaves in m1's zone; it cannot master its own
	if _, err := c.CreateZone(ctx, "a", []string{"b"}); !errors.Is(err, ErrZoneInvalid) {
		t.Errorf("CreateZone() error = %v, want ErrZoneInvalid", err)
	}
}

func TestAddRemoveSlave(t *testing.T) {
	c, _ := newTestCoordinator(t, "m", "a", "b")
	ctx := context.Background()

	if _, err := c.CreateZone(ctx, "m", []string{"a"}); err != nil {
		t.Fatalf("CreateZone() error = %v", err)
	}

	z, err := c.AddSlave(ctx, "m", "b")
	if err != nil {
		t.Fatalf("AddSlave() error = %v", err)
	}
	if len(z.Slaves) != 2 {
		t.Errorf("slaves = %v, want [a b]", z.Slaves)
	}

	// Idempotent add
	z, err = c.AddSlave(ctx, "m", "b")
	if err != nil {
		t.Fatalf("AddSlave(repeat) error = %v", err)
	}
	if len(z.Slaves) != 2 {
		t.Errorf("slaves after repeat add = %v", z.Slaves)
	}

	z, err = c.RemoveSlave(ctx, "m", "a")
	if err != nil {
		t.Fatalf("RemoveSlave() error = %v", err)
	}
	if len(z.Slaves) != 1 || z.Slaves[0] != "b" {
		t.Errorf("slaves = %v, want [b]", z.Slaves)
	}

	// Idempotent remove
	if _, err := c.RemoveSlave(ctx, "m", "a"); err != nil {
		t.Errorf("RemoveSlave(absent) error = %v", err)
	}

	// Unknown zone
	if _, err := c.AddSlave(ctx, "ghost", "b"); !errors.Is(err, ErrZoneNotFound) {
		t.Errorf("AddSlave(unknown master) error = %v, want ErrZoneNotFound", err)
	}
}

func TestRemoveZone(t *testing.T) {
	c, _ := newTestCoordinator(t, "m", "a")
	ctx := context.Background()

	if _, err := c.CreateZone(ctx, "m", []string{"a"}); err != nil {
		t.Fatalf("CreateZone() error = %v", err)
	}
	if err := c.RemoveZone(ctx, "m"); err != nil {
		t.Fatalf("RemoveZone() error = %v", err)
	}
	if _, err := c.Zone(ctx, "m"); !errors.Is(err, ErrZoneNotFound) {
		t.Errorf("Zone() error = %v, want ErrZoneNotFound", err)
	}

	// Absent is a no-op
	if err := c.RemoveZone(ctx, "m"); err != nil {
		t.Errorf("RemoveZone(absent) error = %v", err)
	}
}

func TestZoneFor(t *testing.T) {
	c, _ := newTestCoordinator(t, "m", "a")
	ctx := context.Background()

	if _, err := c.CreateZone(ctx, "m", []string{"a"}); err != nil {
		t.Fatalf("CreateZone() error = %v", err)
	}

	for _, id := range []string{"m", "a"} {
		z, err := c.ZoneFor(ctx, id)
		if err != nil {
			t.Fatalf("ZoneFor(%s) error = %v", id, err)
		}
		if z.Master != "m" {
			t.Errorf("ZoneFor(%s).Master = %q", id, z.Master)
		}
	}

	if _, err := c.ZoneFor(ctx, "ungrouped"); !errors.Is(err, ErrZoneNotFound) {
		t.Errorf("ZoneFor(ungrouped) error = %v, want ErrZoneNotFound", err)
	}
}

func TestResolve_ReflectsCurrentHost(t *testing.T) {
	c, registry := newTestCoordinator(t, "m", "a")
	ctx := context.Background()

	z, err := c.CreateZone(ctx, "m", []string{"a"})
	if err != nil {
		t.Fatalf("CreateZone() error = %v", err)
	}

	// Slave moves address after the zone was formed
	if _, err := registry.Register(ctx, device.Device{ID: "a", Host: "10.0.9.9"}); err != nil {
		t.Fatalf("re-Register() error = %v", err)
	}

	view := c.Resolve(ctx, z)
	if view.Slaves[0].Host != "10.0.9.9" {
		t.Errorf("resolved slave host = %q, want 10.0.9.9", view.Slaves[0].Host)
	}
}

func TestHandleDeviceUnregistered(t *testing.T) {
	c, _ := newTestCoordinator(t, "m1", "m2", "a", "b")
	ctx := context.Background()

	if _, err := c.CreateZone(ctx, "m1", []string{"a"}); err != nil {
		t.Fatalf("CreateZone() error = %v", err)
	}
	if _, err := c.CreateZone(ctx, "m2", []string{"b"}); err != nil {
		t.Fatalf("CreateZone() error = %v", err)
	}

	// Master removal dissolves its zone
	c.HandleDeviceUnregistered(ctx, "m1")
	if _, err := c.Zone(ctx, "m1"); !errors.Is(err, ErrZoneNotFound) {
		t.Errorf("zone m1 survived master removal")
	}

	// Slave removal detaches it from the surviving zone
	c.HandleDeviceUnregistered(ctx, "b")
	z, err := c.Zone(ctx, "m2")
	if err != nil {
		t.Fatalf("Zone(m2) error = %v", err)
	}
	if len(z.Slaves) != 0 {
		t.Errorf("slaves = %v, want empty", z.Slaves)
	}
}
