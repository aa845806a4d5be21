// Package auvoclient provides the primary entry point for constructing an
// Auvo API client that implements the auvo.Client interface.
//
// It layers configuration defaults, the retrying and rate-limited HTTP
// transport, token lifecycle management and optional Prometheus metrics on top
// of the interfaces and types defined in the auvo package.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/auvo-client/pkg/auvo"
//	  "github.com/fivetwenty-io/auvo-client/pkg/auvoclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  cli, err := auvoclient.New(ctx, &auvo.Config{
//	    APIKey:   "api-key",
//	    APIToken: "api-token",
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  users, err := cli.Users().With(auvo.AvailableForTasks()).GetAll(ctx)
//	  if err != nil { log.Fatal(err) }
//	  _ = users
//	}
//
// # Helpers
//
// NewWithCredentials wraps New for the common case of default settings, and
// NewFromEnv reads the AUVO_* environment variables.
package auvoclient
