package engine

import (
	"context"
	"fmt"
)

// MaxDevice is the highest device index a GPU mask can address.
const MaxDevice = 62

// PinDevice restricts the engine to a single GPU, keeping the CPU enabled. It must be
// the first call of a session. A negative device leaves the engine defaults alone.
func PinDevice(ctx context.Context, eng Engine, device int) error {
	if device < 0 {
		return nil
	}
	if device > MaxDevice {
		return fmt.Errorf("device index %d out of range 0..%d", device, MaxDevice)
	}
	_, err := eng.Call(ctx, OpConfigureDevices, Args{"gpu_mask": int64(1) << device, "cpu_enable": true})
	if err != nil {
		return fmt.Errorf("failed to pin device %d: %w", device, err)
	}
	return nil
}
