/*
Package session serializes dialog turns per session.

Sessions are the unit of isolation: two sessions never share a lock, while two
turns against the same session run one after the other. Locks are reference
counted and dropped once unused. An optional ports.DistributedLocker extends
the guarantee across replicas.
*/
package session
