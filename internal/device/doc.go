// Package device owns the evdev input devices a script reads from.
//
// A Device is an open, non-blocking evdev descriptor with the name the kernel
// reported when it was opened. Next waits on an ordered set of devices and
// returns the complete pending batch of the first one that became readable:
//
//	devs := device.Set{kbd, mouse}
//	defer devs.Close()
//
//	for {
//	    batch, err := device.Next(devs)
//	    if err != nil {
//	        return err // fatal: the device set is no longer usable
//	    }
//	    ...
//	}
//
// Readiness ties are broken by position: a device earlier in the set always
// wins, so a busy early device can starve later ones. Devices cannot be added
// or removed once a set is in use, and a vanished device is an error rather
// than something to wait out.
package device
