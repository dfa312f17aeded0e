package chainsnap

// Options configures a Builder.
type Options struct {
	Mode     Mode
	Inject   []Pair
	Observer Observer
}

// Option is a functional option for configuring New.
type Option func(*Options)

func defaultOptions() *Options {
	return &Options{
		Mode:     Online{},
		Observer: NoopObserver{},
	}
}

// WithMode sets the acquisition mode. The default is Online against
// DefaultEndpoint with no module filter.
func WithMode(mode Mode) Option {
	return func(o *Options) {
		if mode != nil {
			o.Mode = mode
		}
	}
}

// WithInject appends pairs that are overlaid on the retrieved state after
// retrieval completes. Injected pairs are applied last, so they override
// retrieved pairs sharing a key. They are never written to a snapshot.
func WithInject(pairs ...Pair) Option {
	return func(o *Options) {
		o.Inject = append(o.Inject, pairs...)
	}
}

// WithObserver sets the receiver for progress and phase events.
func WithObserver(observer Observer) Option {
	return func(o *Options) {
		if observer != nil {
			o.Observer = observer
		}
	}
}
