/*
The sync package implements sitesync's reconciliation algorithm. It compares
the local storage of a site with the copy kept in the remote store, and
computes the merged data that gets written back.

There are two copies of a site's data:
1) The local Snapshot -- the key/value pairs currently in the page's local
   storage. It's read fresh through a LocalStore for every operation.
2) The remote Record -- the durable copy in the remote store, keyed by the
   site origin. It holds the tracking flag, the last sync date, and a
   Snapshot of the data.

Reconciling never edits the remote record in place. Each merge computes one
complete Snapshot and writes it with a single Set, so a tracked record with
partial data is never observable.

Operations on the same origin are serialized by a per-origin lock. Operations
on different origins don't block each other.
*/
package sync
