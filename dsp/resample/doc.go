// Package resample converts decoded tracks between sample rates
// offline.
//
// The deck's own tempo path never uses this package; it serves the
// boundaries where rates are fixed by someone else, like recording to
// Opus (48 kHz only) from a 44.1 kHz source. Conversion is one-shot
// over whole channels: the integer rate pair reduces to a rational
// up/down factor and the signal passes through a Kaiser-windowed
// polyphase FIR, or through plain 4-point Hermite reads when speed
// matters more than aliasing rejection.
package resample
