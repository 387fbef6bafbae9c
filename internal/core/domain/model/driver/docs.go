// Package driver implements the operational Driver aggregate: vehicle, capacity,
// live location and the two flags that decide eligibility for assignment.
//
// isOnline follows the driver's heartbeat: a location push brings the driver online
// unless they switched themselves offline, and the presence sweep takes a silent
// driver offline again. isActive is controlled by administrators only.
package driver
