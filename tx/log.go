package tx

import "github.com/gookit/slog"

// logger receives the build and fee records. It starts without handlers, so
// the package is silent until SetLogger is called.
var logger = slog.New()

// SetLogger routes build and fee records to l, typically slog.Std().Logger
// after config.ConfigureLogging. Call it before building; a nil l silences
// the package again.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New()
	}
	logger = l
}
