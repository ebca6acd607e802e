/*
The gist package implements gistsync's reconciliation algorithm. It converges
a single remote gist to the set of files the user wants to publish.

There are two halves:
1) Diff -- A pure function that compares the local FileSet against the
   remote FileSet, and returns only the entries that must change remotely.
   Changed files are sent in full, and files that disappeared locally are
   sent as tombstones (nil entries).
2) Syncer -- Drives one fetch, diff, write round trip against a Store.
   It performs at most one write per call, and never retries.

Two rules keep the sync from destroying data:
 - A local file with empty contents is never authoritative. It's neither
   uploaded nor used to delete the remote copy.
 - Files whose names contain "settings" or "keybindings" are never deleted
   just because they're missing locally. Those files are commonly missing
   on a machine that hasn't enabled the corresponding feature yet.
*/
package gist
