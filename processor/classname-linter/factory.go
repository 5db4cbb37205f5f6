package classnamelinter

import (
	"fmt"

	"github.com/c360studio/semstreams/component"
)

// RegistryInterface defines the minimal interface required for registration.
type RegistryInterface interface {
	RegisterWithConfig(component.RegistrationConfig) error
}

// Register registers the classname-linter component with the given registry.
func Register(registry RegistryInterface) error {
	if registry == nil {
		return fmt.Errorf("registry cannot be nil")
	}
	return registry.RegisterWithConfig(component.RegistrationConfig{
		Name:        "classname-linter",
		Factory:     NewComponent,
		Schema:      classnameLinterSchema,
		Type:        "processor",
		Protocol:    "lint",
		Domain:      "classlint",
		Description: "Checks JSX className values against the component name prefix",
		Version:     "0.1.0",
	})
}
