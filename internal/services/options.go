package services

import (
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Options carries the collaborators shared by the engines. Zero values get
// in-process defaults.
type Options struct {
	Locker   PairLocker
	Notifier Notifier
	Cache    UnreadCache
	Clock    clockwork.Clock
	Logger   *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Locker == nil {
		o.Locker = NewKeyedMutex()
	}
	if o.Notifier == nil {
		o.Notifier = nopNotifier{}
	}
	if o.Cache == nil {
		o.Cache = nopCache{}
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}
