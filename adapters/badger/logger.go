package badger

import "go.uber.org/zap"

// logger routes badger output through zap. Badger is chatty at info level so
// its info messages are logged at debug.
type logger struct {
	sugar *zap.SugaredLogger
}

func newLogger(l *zap.Logger) logger {
	return logger{sugar: l.Named("badger").WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

func (l logger) Errorf(format string, args ...interface{})   { l.sugar.Errorf(format, args...) }
func (l logger) Warningf(format string, args ...interface{}) { l.sugar.Warnf(format, args...) }
func (l logger) Infof(format string, args ...interface{})    { l.sugar.Debugf(format, args...) }
func (l logger) Debugf(format string, args ...interface{})   { l.sugar.Debugf(format, args...) }
