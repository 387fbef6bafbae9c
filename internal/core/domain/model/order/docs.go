// Package order implements the Order aggregate and its delivery lifecycle.
//
// The lifecycle is a fixed state machine:
//
//	created -> assigned -> accepted -> picked_up -> in_transit -> delivered
//
// with cancelled reachable from every non-terminal state. delivered and cancelled
// are terminal. Who may request each step is part of the transition table, see
// transitions.go.
//
// The current status is not stored separately: it is the status of the last entry of
// the append-only status history, so the two can never disagree. Every accepted
// transition appends exactly one entry; a rejected one leaves the order untouched.
package order
