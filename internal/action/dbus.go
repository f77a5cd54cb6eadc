package action

import (
	"context"

	"codeberg.org/mutker/greenland/internal/errors"
	"github.com/godbus/dbus/v5"
)

const (
	notificationsDest   = "org.freedesktop.Notifications"
	notificationsPath   = dbus.ObjectPath("/org/freedesktop/Notifications")
	notificationsNotify = "org.freedesktop.Notifications.Notify"

	login1Dest    = "org.freedesktop.login1"
	login1Path    = dbus.ObjectPath("/org/freedesktop/login1")
	login1Suspend = "org.freedesktop.login1.Manager.Suspend"

	appName         = "Greenland"
	urgencyCritical = byte(2)
)

// caller is the part of dbus.BusObject the backends use.
type caller interface {
	CallWithContext(ctx context.Context, method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

// objectFunc resolves the remote object lazily so a bus that appears after
// startup is still picked up.
type objectFunc func() (caller, error)

func sessionObject(dest string, path dbus.ObjectPath) objectFunc {
	return func() (caller, error) {
		conn, err := dbus.SessionBus()
		if err != nil {
			return nil, errors.New().Wrap(ErrBusUnavailable, err)
		}
		return conn.Object(dest, path), nil
	}
}

func systemObject(dest string, path dbus.ObjectPath) objectFunc {
	return func() (caller, error) {
		conn, err := dbus.SystemBus()
		if err != nil {
			return nil, errors.New().Wrap(ErrBusUnavailable, err)
		}
		return conn.Object(dest, path), nil
	}
}

// DBusNotifier sends notifications through org.freedesktop.Notifications on
// the session bus. The daemon runs as root, so DBUS_SESSION_BUS_ADDRESS must
// point at the user's bus.
type DBusNotifier struct {
	object objectFunc
}

func NewDBusNotifier() *DBusNotifier {
	return &DBusNotifier{object: sessionObject(notificationsDest, notificationsPath)}
}

func (n *DBusNotifier) Notify(ctx context.Context, message string) error {
	obj, err := n.object()
	if err != nil {
		return err
	}

	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(urgencyCritical),
	}

	call := obj.CallWithContext(ctx, notificationsNotify, 0,
		appName,    // app_name
		uint32(0),  // replaces_id
		"",         // app_icon
		appName,    // summary
		message,    // body
		[]string{}, // actions
		hints,
		int32(-1), // expire_timeout
	)
	return call.Err
}

// DBusSuspender calls logind's Suspend on the system bus.
type DBusSuspender struct {
	object objectFunc
}

func NewDBusSuspender() *DBusSuspender {
	return &DBusSuspender{object: systemObject(login1Dest, login1Path)}
}

func (s *DBusSuspender) Suspend(ctx context.Context) error {
	obj, err := s.object()
	if err != nil {
		return err
	}

	// interactive=false: polkit must not prompt
	return obj.CallWithContext(ctx, login1Suspend, 0, false).Err
}
