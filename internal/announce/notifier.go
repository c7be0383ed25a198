package announce

import (
	"context"
	"errors"

	"github.com/lawnchairsociety/realmcore/internal/logger"
)

// Notifier receives broadcast messages.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// LogNotifier writes broadcasts to the audit log.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, message string) error {
	logger.Always("Broadcast", "message", message)
	return nil
}

type multi []Notifier

// Multi returns a Notifier that delivers to every n. All of them are tried
// even if some fail; the errors are joined.
func Multi(ns ...Notifier) Notifier {
	return multi(ns)
}

func (m multi) Notify(ctx context.Context, message string) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
