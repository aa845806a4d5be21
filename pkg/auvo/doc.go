// Package auvo provides types, interfaces, and helpers for working with the
// Auvo workforce-management REST API (v2).
//
// # Overview
//
// The auvo package defines the client interfaces (Client, Executor,
// TokenSource), the sign-in Token, the decoded response shapes (Envelope,
// Entity, ListResponse), the Query builder with its PageAggregator, and the
// typed Error every operation returns. A concrete client is built by the
// auvoclient package, which wires configuration, transport, authentication,
// rate limiting and metrics.
//
// Getting a client
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
//	  cli, err := auvoclient.New(ctx, &auvo.Config{APIKey: "key", APIToken: "token"})
//	  if err != nil { log.Fatal(err) }
//
//	  result, err := cli.Tasks().With(auvo.Period("2024-01-01", "2024-01-31")).Get(ctx)
//	  if err != nil { log.Fatal(err) }
//	  _ = result.List.Entities()
//	}
//
// # Authentication
//
// The API exchanges an API key and API token for a bearer access token valid
// for 30 minutes. There are no refresh tokens. The client signs in lazily
// before the first request, and signs in again and replays the request once
// when the API answers 401.
//
// # Queries and pagination
//
// Filters set with Where (or the resource helpers such as Period, UserType
// and ActiveOnly) travel as one JSON object in the paramFilter query
// parameter. Page, PageSize and SelectFields set direct parameters. To fetch
// every page:
//
//	all, err := cli.Customers().With(auvo.ActiveOnly()).GetAll(ctx)
//
// or stream entities page by page:
//
//	err := cli.Users().AllPages().MaxPages(50).Each(ctx, func(e auvo.Entity) error {
//	  return nil
//	})
//
// # Errors
//
// Every failure is an *Error carrying an ErrorKind. Use errors.Is with
// ErrAuthentication, ErrNotFound, ErrValidation or ErrRateLimit, or the
// IsAuthentication, IsNotFound, IsValidation and IsRateLimited helpers.
package auvo
