/*
Package ports defines the driven ports (interfaces) for the pressline engine.

These interfaces decouple the conversation core from concrete backends, so the
store-backed path can run against a relational database in production and an
in-memory fake in tests.

# Key Interfaces

  - DialogStore: CRUD over the five record kinds (Flow, Node, Option, Session, Message).
  - FlowAuthor: writes authored flow graphs (seeding, fixtures).
  - DistributedLocker: serializes turns of one session across replicas.
*/
package ports
