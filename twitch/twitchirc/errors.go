package twitchirc

import "errors"

var (
	// ErrAlreadyConnected is returned by Start while a connection is live.
	ErrAlreadyConnected = errors.New("twitchirc: already connected")

	// ErrNotConnected is returned by calls that need a live connection.
	ErrNotConnected = errors.New("twitchirc: not connected")

	// ErrNotJoined is returned when sending to a channel without a JOIN acknowledgement.
	ErrNotJoined = errors.New("twitchirc: channel not joined")
)

// ErrInvalidInput is returned before any write when a channel name or message
// content would break the IRC line framing.
var ErrInvalidInput = errors.New("twitchirc: invalid input")
