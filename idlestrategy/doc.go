// Package idlestrategy provides pluggable policies for what a duty-cycle
// worker does between empty work ticks: nothing, spin, yield, park for a
// fixed or back-off period, or defer to an externally-controlled mode.
package idlestrategy
