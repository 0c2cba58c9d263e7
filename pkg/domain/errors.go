package domain

import "errors"

// ErrFlowNotFound is returned when a flow identifier names neither a
// store-backed flow nor a registered scripted flow.
var ErrFlowNotFound = errors.New("flow not found")

// ErrNoInitialNode is returned when a store-backed flow has no initial node.
var ErrNoInitialNode = errors.New("flow has no initial node")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionCreate is returned when the store could not open a new session.
var ErrSessionCreate = errors.New("session could not be created")

// ErrSessionEnded is returned when a dialog turn targets an ended session.
var ErrSessionEnded = errors.New("session ended")

// ErrSessionAttached is returned when a session is attached to a flow twice.
var ErrSessionAttached = errors.New("session already attached to a flow")

// ErrNodeNotFound is returned when a node lookup misses.
var ErrNodeNotFound = errors.New("node not found")

// ErrNodeNotInFlow is returned when a pointer update targets a node outside
// the session's flow.
var ErrNodeNotInFlow = errors.New("node does not belong to the session flow")
