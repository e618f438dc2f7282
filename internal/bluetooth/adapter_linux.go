package bluetooth

import "tinygo.org/x/bluetooth"

// adapterFor selects a BlueZ adapter by its id.
func adapterFor(name string) *bluetooth.Adapter {
	if name == "" {
		return bluetooth.DefaultAdapter
	}
	return bluetooth.NewAdapter(name)
}
