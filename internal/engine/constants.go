package engine

// ReadyMarker is written to stderr once capture has begun.
const ReadyMarker = "READY_TO_RECORD"
