// Package types provides the shared type definitions for hy3d.
//
// The types package is the lowest-level package with no internal
// dependencies, so enums and the error taxonomy live here to avoid
// circular imports between config, payload, vault and jobs.
package types
