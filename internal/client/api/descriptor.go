package api

// Descriptor identifies one remote endpoint.
type Descriptor struct {
	Hostname string
	Path     string
	Method   string
}

// Valid reports whether every part of the descriptor is set.
func (d Descriptor) Valid() bool {
	return d.Hostname != "" && d.Path != "" && d.Method != ""
}

// URL joins hostname and path.
func (d Descriptor) URL() string {
	return d.Hostname + d.Path
}

// Endpoints lists every endpoint bimio talks to.
type Endpoints struct {
	Login   Descriptor
	Refresh Descriptor
	Logout  Descriptor

	Upload   Descriptor
	Update   Descriptor
	Download Descriptor
	List     Descriptor
}
