// Package lifecycle mirrors the remote service's transaction state machine:
// which action is valid from which status, who may invoke it, how the
// status renders as a stepper, and what a confirmation must say. The server
// remains the enforcer; these rules only decide what the console offers.
package lifecycle
