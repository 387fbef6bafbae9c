// Package kernel holds the value objects shared by the order and driver aggregates:
// identifiers, geographic points, endpoints, vehicle types, actors and fare breakdowns.
//
// Values are immutable and built through constructors that validate their input.
// A zero value fails Validate, which lets aggregates reject objects that were
// never constructed.
package kernel
