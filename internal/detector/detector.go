package detector

// Table answers liveness queries against the OS process table and
// issues forced terminations. Implementations must be safe for
// concurrent use.
type Table interface {
	// Alive reports whether a process with this pid exists.
	Alive(pid int) (bool, error)
	// Kill force-terminates the process.
	Kill(pid int) error
}

// OS returns the process table of the host platform.
func OS() Table { return osTable{} }
