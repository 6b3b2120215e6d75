// Package badgerstore persists index snapshots in an embedded BadgerDB key-value store.
//
// Each Save writes a complete snapshot under a fresh generation prefix and then
// flips a single pointer key to it. Readers always follow the pointer, so a crash
// mid-write leaves the previous snapshot intact. Superseded generations are
// dropped after the pointer moves.
//
// Key layout:
//
//	current                        -> generation number
//	g<gen>:meta                    -> JSON metadata (dimension, saved_at)
//	g<gen>:doc:<position>          -> JSON document record
//	g<gen>:chunk:<id>              -> JSON chunk record with a binary embedding
package badgerstore
