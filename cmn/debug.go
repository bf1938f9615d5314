package cmn

import (
	"fmt"

	"github.com/golang/glog"
)

// Assert panics (after logging via glog, matching the teacher's
// cmn/debug.Assert) when cond is false. Used at InvariantViolation
// detection sites: double-set content node id, unbalanced atomic groups,
// corrupted children blocks.
func Assert(cond bool, a ...interface{}) {
	if !cond {
		assertPanic(fmt.Sprint(a...))
	}
}

func Assertf(cond bool, f string, a ...interface{}) {
	if !cond {
		assertPanic(fmt.Sprintf(f, a...))
	}
}

func AssertNoErr(err error) {
	if err != nil {
		assertPanic(err.Error())
	}
}

func assertPanic(msg string) {
	glog.Errorf("[ASSERT] %s", msg)
	glog.Flush()
	panic("streamcore assertion failed: " + msg)
}
