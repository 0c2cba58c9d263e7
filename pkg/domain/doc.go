/*
Package domain defines the core records of the pressline conversation engine.

A Flow is a dialog graph made of Nodes connected by labelled Options. A Session is
one actor's traversal of a Flow: it points at exactly one Node while active and
accumulates an append-only list of Messages. Quick replies are the option labels
offered to the user for the current Node.

These types carry no persistence or transport concerns; adapters in pkg/adapters
map them onto concrete stores.
*/
package domain
