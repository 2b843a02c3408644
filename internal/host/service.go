package host

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	systemd "github.com/coreos/go-systemd/v22/dbus"
	dbus "github.com/godbus/dbus/v5"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/conn-castle/agent2upgrade/internal/messages"
)

// DefaultSystemdSocket is the systemd manager's private D-Bus socket.
const DefaultSystemdSocket = "/run/systemd/private"

// Action is a service operation.
type Action string

// Supported service actions.
const (
	ActionStart   Action = "start"
	ActionStop    Action = "stop"
	ActionRestart Action = "restart"
	ActionStatus  Action = "status"
	ActionEnable  Action = "enable"
	ActionDisable Action = "disable"
)

// ParseAction validates s as an Action.
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionStart, ActionStop, ActionRestart, ActionStatus, ActionEnable, ActionDisable:
		return a, nil
	}
	return "", fmt.Errorf(messages.HostUnsupportedActionFmt, s)
}

// ServiceControl performs an action on a named service and reports success.
type ServiceControl interface {
	Perform(ctx context.Context, action Action, service string) bool
}

// unitManager is the part of *systemd.Conn that Systemd uses.
type unitManager interface {
	StartUnitContext(ctx context.Context, name string, mode string, ch chan<- string) (int, error)
	StopUnitContext(ctx context.Context, name string, mode string, ch chan<- string) (int, error)
	RestartUnitContext(ctx context.Context, name string, mode string, ch chan<- string) (int, error)
	EnableUnitFilesContext(ctx context.Context, files []string, runtime bool, force bool) (bool, []systemd.EnableUnitFileChange, error)
	DisableUnitFilesContext(ctx context.Context, files []string, runtime bool) ([]systemd.DisableUnitFileChange, error)
	GetUnitPropertyContext(ctx context.Context, unit string, propertyName string) (*systemd.Property, error)
	ReloadContext(ctx context.Context) error
	Close()
}

// Systemd drives units through the systemd manager over D-Bus.
type Systemd struct {
	// Socket is the manager socket; empty means DefaultSystemdSocket.
	Socket string
	Log    logrus.FieldLogger

	connect func(ctx context.Context) (unitManager, error)
}

// Perform runs action on service and logs the outcome. status succeeds only
// when the unit is active.
func (s *Systemd) Perform(ctx context.Context, action Action, service string) bool {
	log := s.Log.WithFields(logrus.Fields{"action": action, "service": service})
	if err := s.perform(ctx, action, unitName(service)); err != nil {
		log.WithError(err).Error("service action failed")
		return false
	}
	log.Info("service action succeeded")
	return true
}

func (s *Systemd) perform(ctx context.Context, action Action, unit string) error {
	if _, err := ParseAction(string(action)); err != nil {
		return err
	}
	conn, err := s.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	switch action {
	case ActionStart:
		return waitJob(ctx, unit, func(ch chan<- string) (int, error) {
			return conn.StartUnitContext(ctx, unit, "replace", ch)
		})
	case ActionStop:
		return waitJob(ctx, unit, func(ch chan<- string) (int, error) {
			return conn.StopUnitContext(ctx, unit, "replace", ch)
		})
	case ActionRestart:
		return waitJob(ctx, unit, func(ch chan<- string) (int, error) {
			return conn.RestartUnitContext(ctx, unit, "replace", ch)
		})
	case ActionStatus:
		prop, err := conn.GetUnitPropertyContext(ctx, unit, "ActiveState")
		if err != nil {
			return errors.Wrapf(err, "unable to query %s", unit)
		}
		state, ok := prop.Value.Value().(string)
		if !ok {
			return errors.Errorf("unable to handle queried property %s: %v", prop.Name, prop.Value)
		}
		if state != "active" {
			return errors.Errorf("%s is %s", unit, state)
		}
		return nil
	case ActionEnable:
		if _, _, err := conn.EnableUnitFilesContext(ctx, []string{unit}, false, true); err != nil {
			return errors.Wrapf(err, "unable to enable %s", unit)
		}
	case ActionDisable:
		if _, err := conn.DisableUnitFilesContext(ctx, []string{unit}, false); err != nil {
			return errors.Wrapf(err, "unable to disable %s", unit)
		}
	}
	return errors.Wrap(conn.ReloadContext(ctx), "unable to execute daemon-reload")
}

// waitJob queues a unit job and waits for systemd to report its result.
func waitJob(ctx context.Context, unit string, queue func(ch chan<- string) (int, error)) error {
	ch := make(chan string, 1)
	if _, err := queue(ch); err != nil {
		return errors.Wrapf(err, "unable to queue job for %s", unit)
	}
	select {
	case result := <-ch:
		if result != "done" {
			return errors.Errorf("job for %s finished with result %q", unit, result)
		}
		return nil
	case <-ctx.Done():
		return errors.Wrapf(ctx.Err(), "waiting for job on %s", unit)
	}
}

func (s *Systemd) dial(ctx context.Context) (unitManager, error) {
	if s.connect != nil {
		return s.connect(ctx)
	}
	socket := s.Socket
	if socket == "" {
		socket = DefaultSystemdSocket
	}
	dialer := func() (*dbus.Conn, error) {
		conn, err := dbus.Dial("unix:path="+socket, dbus.WithContext(ctx))
		if err != nil {
			return nil, errors.Wrap(err, "unable to connect to systemd socket")
		}
		// Authenticate with the user's authority.
		methods := []dbus.Auth{dbus.AuthExternal(strconv.Itoa(os.Getuid()))}
		if err := conn.Auth(methods); err != nil {
			conn.Close()
			return nil, errors.Wrap(err, "unable to authenticate with systemd")
		}
		return conn, nil
	}
	conn, err := systemd.NewConnection(dialer)
	if err != nil {
		return nil, errors.Wrap(err, "unable to connect to systemd")
	}
	return conn, nil
}

// unitName turns a bare service name into a unit name.
func unitName(service string) string {
	if strings.Contains(service, ".") {
		return service
	}
	return service + ".service"
}
