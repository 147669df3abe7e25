package modules

import (
	_ "embed"
	"sync"

	"github.com/matzehuels/reqcheck/pkg/requirements"
)

//go:embed stdlib.txt
var stdlibText string

var stdlibSet = sync.OnceValue(func() map[string]struct{} {
	names := requirements.YieldLines(stdlibText)
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
})

// IsStdlib reports whether the top-level module name belongs to the Python
// standard library. The comparison is case sensitive: "cProfile" is a
// standard module, "cprofile" is not.
func IsStdlib(name string) bool {
	_, ok := stdlibSet()[Top(name)]
	return ok
}
