package driver

// State describes a detected driver installation. Fields other than Version
// are best effort: an empty string means the diagnostic query for that field
// failed or returned nothing.
type State struct {
	// Version is the installed driver version as reported by the driver.
	Version string
	// GPUName is the marketing name of the first GPU.
	GPUName string
	// CUDAVersion is the CUDA runtime version bundled with the driver.
	CUDAVersion string
	// MemoryTotal is the total GPU memory, as reported (including unit).
	MemoryTotal string
	// MemoryUsed is the GPU memory currently in use.
	MemoryUsed string
	// MemoryFree is the GPU memory currently free.
	MemoryFree string
}

// HasGPUInfo reports whether any of the optional GPU property fields were
// collected, so callers know whether to render the info block at all.
func (s *State) HasGPUInfo() bool {
	if s == nil {
		return false
	}

	return s.GPUName != "" || s.CUDAVersion != "" || s.MemoryTotal != ""
}

// Clone returns a copy of the state to avoid leaking internal references.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}

	cloned := *s

	return &cloned
}
