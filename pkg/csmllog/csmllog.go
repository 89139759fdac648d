// Package csmllog is a small severity-tagged wrapper over the standard
// library's log package, the same `[SEVERITY] message` shape the teacher's
// pkg/stdlib/sys.go sysLog builtin prints, generalized into a package the
// turn driver and HTTP builtin can both call through (SPEC_FULL.md §1).
package csmllog

import "log"

const (
	SeverityDebug   = "DEBUG"
	SeverityDefault = "DEFAULT"
	SeverityWarning = "WARNING"
	SeverityError   = "ERROR"
)

func logf(severity, format string, args ...interface{}) {
	log.Printf("[%s] "+format, append([]interface{}{severity}, args...)...)
}

func Debugf(format string, args ...interface{})   { logf(SeverityDebug, format, args...) }
func Infof(format string, args ...interface{})    { logf(SeverityDefault, format, args...) }
func Warnf(format string, args ...interface{})    { logf(SeverityWarning, format, args...) }
func Errorf(format string, args ...interface{})   { logf(SeverityError, format, args...) }
