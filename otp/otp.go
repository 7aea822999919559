// Package otp models the one-time-programmable memory controller: the
// memory macro, the per-partition controller state machines, and the
// bus-facing read window.
//
// Every component advances once per clock edge through Tick. Outputs are
// computed from the registers after the edge, except for the bus grant and
// bus response, which are pulses belonging to the cycle that produced them.
package otp
