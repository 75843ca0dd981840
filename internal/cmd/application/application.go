// Package application provides the application interface for storefront commands.
//
// The Application interface defines the contract between the application layer and
// command implementations, enabling dependency injection and testability.
//
// Usage in Commands:
//
//	func NewCommand(app application.Application) *cobra.Command {
//	    return &cobra.Command{
//	        RunE: func(cmd *cobra.Command, args []string) error {
//	            sf, err := app.Storefront()
//	            if err != nil {
//	                return err
//	            }
//	            // ... use sf
//	            return nil
//	        },
//	    }
//	}
//
// Testing with Mocks:
//
//	mock := &application.Mock{
//	    StorefrontFunc: func() (storefront.Client, error) {
//	        return testClient, nil
//	    },
//	}
//	cmd := NewCommand(mock)
package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/storefront"
)

// Application provides the application interface that commands need.
// The App struct from cmd/storefront/app implements this interface.
//
// Thread Safety: All methods must be safe for concurrent access.
type Application interface {
	// Storefront returns the shared client, creating it on first use.
	// The app closes it on shutdown, which flushes pending store writes.
	Storefront() (storefront.Client, error)

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (json, yaml, table, etc).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
