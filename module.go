package elog

import "strings"

// Module identifies the subsystem that raised a report. Debug messages
// from a module other than ModuleDefault are only logged when the
// module is enabled in Config.Modules.
type Module int

const (
	ModuleDefault Module = iota
	ModuleExecutor
	ModuleOptimizer
	ModuleCommand
	ModuleStorage
	ModuleTransaction
	ModuleNetwork
	ModuleSecurity
	ModuleWorkload
	ModuleStream
	ModuleRetry

	numModules
)

var moduleNames = [numModules]string{
	ModuleDefault:     "BACKEND",
	ModuleExecutor:    "EXECUTOR",
	ModuleOptimizer:   "OPTIMIZER",
	ModuleCommand:     "COMMAND",
	ModuleStorage:     "STORAGE",
	ModuleTransaction: "TRANSACTION",
	ModuleNetwork:     "NETWORK",
	ModuleSecurity:    "SECURITY",
	ModuleWorkload:    "WLM",
	ModuleStream:      "STREAM",
	ModuleRetry:       "CN_RETRY",
}

func (m Module) String() string {
	if m < 0 || m >= numModules {
		return "UNKNOWN"
	}
	return moduleNames[m]
}

// ParseModule looks a module up by name.
func ParseModule(name string) (Module, bool) {
	for i, n := range moduleNames {
		if strings.EqualFold(n, name) {
			return Module(i), true
		}
	}
	return ModuleDefault, false
}
