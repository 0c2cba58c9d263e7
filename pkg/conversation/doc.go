/*
Package conversation orchestrates dialog turns over the two driver variants.

Actions holds the stateless start, send and end operations. For store-backed
flows they run the sequence of gateway calls that creates a session, moves its
node pointer and records messages; for scripted flows they call the in-memory
driver and synthesize client-side message records.

Controller is the small stateful façade a UI holds for the conversation in
focus. Switcher rebuilds the state of another open conversation when focus
moves, so one conversation's replies are never appended to another's history.
*/
package conversation
