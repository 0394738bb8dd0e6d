// Package wizard holds the client side of the intake flow: the step
// controller and its validation rules, the debounced identifier lookup, and
// the submission guard that runs the honeypot and cooldown checks before
// anything reaches the network.
//
// The package has no terminal or HTTP dependencies. cmd/visit-request drives
// it from stdin and pkg/client supplies the network collaborators.
package wizard
