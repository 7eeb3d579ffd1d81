package sdr

import (
	"fmt"

	"github.com/jochenvg/go-udev"
)

// RTL2832VendorID and RTL2832ProductID identify the common RTL2832U +
// R820T(2) dongle over USB. Other vendor/product pairs exist for other
// tuner chips; callers needing those can use FindUSBDevice directly with
// their own IDs.
const (
	RTL2832VendorID  = "0bda"
	RTL2832ProductID = "2838"
)

// FindUSBDevice enumerates USB devices via udev looking for one matching
// vendorID/productID and returns its device node path (e.g.
// "/dev/bus/usb/001/004"). It returns an error if none is found.
//
// Grounded in the teacher's src/cm108.go, which walks the raw cgo
// libudev API (udev_enumerate_add_match_subsystem("sound"),
// udev_device_get_sysattr_value(parent, "idVendor"/"idProduct")) to find
// a USB sound card by vendor/product ID. We do the same walk for the
// "usb" subsystem using the pure-Go go-udev wrapper instead of cgo.
func FindUSBDevice(vendorID, productID string) (string, error) {
	u := udev.Udev{}
	e := u.NewEnumerate()

	if err := e.AddMatchSubsystem("usb"); err != nil {
		return "", fmt.Errorf("sdr: discover: %w", err)
	}
	if err := e.AddMatchProperty("ID_VENDOR_ID", vendorID); err != nil {
		return "", fmt.Errorf("sdr: discover: %w", err)
	}
	if err := e.AddMatchProperty("ID_MODEL_ID", productID); err != nil {
		return "", fmt.Errorf("sdr: discover: %w", err)
	}

	devices, err := e.Devices()
	if err != nil {
		return "", fmt.Errorf("sdr: discover: %w", err)
	}
	for _, d := range devices {
		if node := d.Devnode(); node != "" {
			return node, nil
		}
	}
	return "", fmt.Errorf("sdr: discover: no USB device matching vendor=%s product=%s", vendorID, productID)
}
