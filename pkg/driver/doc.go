/*
Package driver defines the Flow Driver contract and its two implementations.

A Driver produces the initial bot output of a conversation, responds to user
input, and optionally terminates the conversation. The set of drivers is closed:

  - Scripted wraps a caller-supplied, deterministic ScriptedFlow held in memory.
    It never touches the dialog store.
  - Persisted stands in for store-backed flows. Its Initial and Respond are
    inert: for these flows every transition is a store mutation performed by
    the conversation actions. Persisted owns termination only.

Callers select the variant once, by flow identifier, and never inspect the
concrete type afterwards.
*/
package driver
