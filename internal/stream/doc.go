// Package stream drains the IQ sample FIFO and relays the samples to a sink.
//
// The pipeline busy-polls the FIFO empty flag for every sample, assembles
// packets of a fixed number of 32-bit words and hands each complete packet to
// a Sink. Sequenced sinks (UDP) get a 2-byte counter in front of the samples;
// file sinks get the raw words only. Cancellation is observed between
// packets, never inside one.
package stream
