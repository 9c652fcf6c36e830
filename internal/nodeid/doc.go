/*
Package nodeid hands out identifiers for tasks and pipelines.

Task identifiers double as DAG node keys, so they must be unique per task
instance unless the caller deliberately asks for name-derived ids. Two
strategies are provided:

  - Random: every task gets a fresh UUIDv4.
  - Stable: a named task gets a UUIDv5 derived from its name in the OID
    namespace, so independently built pipelines agree on the id of a task
    with the same name. Unnamed tasks still get a UUIDv4.

Pipeline identifiers are a monotonic sequence owned by the generator. A
generator is created once per process (or per test) and passed explicitly
to task and pipeline constructors.
*/
package nodeid
