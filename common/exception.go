package common

import (
	"runtime"
	"strings"
)

// CurFuncName returns the short name (pkg.Func or pkg.(*T).Method) of its
// caller, used as a log prefix.
func CurFuncName() string {
	pc := make([]uintptr, 1)
	if runtime.Callers(2, pc) == 0 {
		return "unknown"
	}
	f := runtime.FuncForPC(pc[0])
	if f == nil {
		return "unknown"
	}
	name := f.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}
