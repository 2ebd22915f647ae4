// Package audit records every control action as one JSON line in a
// size-rotated audit trail.
package audit
