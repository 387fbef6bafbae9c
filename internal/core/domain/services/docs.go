// Package services holds domain logic that does not belong to a single aggregate:
// fare adjustment and the driver selection policy used by assignment.
package services
