//go:build linux

package platform

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	urgencyNormal   byte = 1
	urgencyCritical byte = 2
)

// Notify sends a desktop notification through org.freedesktop.Notifications.
func Notify(title, body string, opts Options) error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("connect session bus: %w", err)
	}
	defer conn.Close()

	hints := map[string]dbus.Variant{"urgency": dbus.MakeVariant(urgencyNormal)}
	timeout := int32(5000)
	if opts.Urgent {
		hints["urgency"] = dbus.MakeVariant(urgencyCritical)
		timeout = 0
	}
	obj := conn.Object("org.freedesktop.Notifications", "/org/freedesktop/Notifications")
	call := obj.Call("org.freedesktop.Notifications.Notify", 0,
		opts.appName(), uint32(0), opts.IconPath, title, body, []string{}, hints, timeout)
	if call.Err != nil {
		return fmt.Errorf("notify: %w", call.Err)
	}
	return nil
}
