package status

import "errors"

// Expected business outcomes. Handlers branch on these; they are never
// surfaced as server faults.
var (
	ErrQueueFull       = errors.New("queue: queue is full")
	ErrAlreadyQueued   = errors.New("queue: user already in queue at this station")
	ErrSlotNotFound    = errors.New("queue: slot not found or already terminal")
	ErrBackwardChange  = errors.New("queue: status may not move backward")
	ErrStationNotFound = errors.New("station: station not found")
	ErrStationInactive = errors.New("station: station is not active")
	ErrSwapNotFound    = errors.New("swap: swap not found")
	ErrSwapNotActive   = errors.New("swap: swap is not active")
	ErrTokenConsumed   = errors.New("qr: token already consumed")
	ErrJobNotFound     = errors.New("transport: job not found")
	ErrJobNotPending   = errors.New("transport: job is not pending")
	ErrNotAssigned     = errors.New("transport: job not assigned to this transporter")
)
