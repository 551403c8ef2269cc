package elog

// Kind is the role of the thread of control that owns a Context. Some
// roles change how severe reports are promoted or routed.
type Kind int

const (
	KindBackend Kind = iota
	KindSupervisor
	KindCheckpointer
	KindBackgroundWriter
	KindWALReceiverWriter
	KindDataReceiverWriter
	KindWorkloadManager
	KindWorkloadMonitor
	KindWorkloadArbiter
	KindControlPlaneMonitor
	KindAutovacuum
)

var kindNames = map[Kind]string{
	KindBackend:             "backend",
	KindSupervisor:          "supervisor",
	KindCheckpointer:        "checkpointer",
	KindBackgroundWriter:    "background writer",
	KindWALReceiverWriter:   "WAL receiver writer",
	KindDataReceiverWriter:  "data receiver writer",
	KindWorkloadManager:     "workload manager",
	KindWorkloadMonitor:     "workload monitor",
	KindWorkloadArbiter:     "workload arbiter",
	KindControlPlaneMonitor: "control plane monitor",
	KindAutovacuum:          "autovacuum worker",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ShutdownCritical reports whether the kind must be allowed to finish
// flushing state on the way down. Under exit_on_any_error these kinds
// exit with FATAL instead of aborting.
func (k Kind) ShutdownCritical() bool {
	switch k {
	case KindCheckpointer, KindBackgroundWriter, KindWALReceiverWriter, KindDataReceiverWriter:
		return true
	}
	return false
}

// Background reports whether the kind runs without a client of its
// own. Errors raised there are never sent to a client connection.
func (k Kind) Background() bool {
	switch k {
	case KindWorkloadManager, KindWorkloadMonitor, KindWorkloadArbiter, KindControlPlaneMonitor:
		return true
	}
	return false
}
