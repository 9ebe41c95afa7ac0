// Package probe decides which voice assets already exist on the remote host.
//
// Static hosts commonly answer unknown routes with 200 and an HTML fallback
// page, so a status code alone proves nothing. Each path is checked with a
// HEAD request first and, when that is inconclusive, with a four byte ranged
// GET whose payload is compared against the EBML (WebM/Matroska) signature.
// Every failure counts as "absent"; the prober never returns an error.
//
// ClassifyResponse holds the whole decision table as a pure function so it
// can be tested without a network.
package probe
