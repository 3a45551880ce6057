package core

import (
	"io"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

var logger atomic.Pointer[logrus.FieldLogger]

func init() {
	SetLogger(nil)
}

func newNopLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return l
}

// SetLogger sets the logger used by the core package.
// By default nothing is logged; pass nil to restore that.
func SetLogger(l logrus.FieldLogger) {
	if l == nil {
		l = newNopLogger()
	}
	logger.Store(&l)
}

// Logger returns the current core logger.
func Logger() logrus.FieldLogger {
	return *logger.Load()
}
