package shared

import "context"

// Component is a long-running part of the process that the command layer
// starts and must shut down on exit
type Component interface {
	// GetType returns the component type identifier
	GetType() string

	// Shutdown gracefully shuts down the component
	Shutdown(ctx context.Context) error
}

// ShutdownAll shuts components down in reverse order and returns the first
// failure
func ShutdownAll(ctx context.Context, components ...Component) error {
	var first error
	for i := len(components) - 1; i >= 0; i-- {
		if err := components[i].Shutdown(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}
