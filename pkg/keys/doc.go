// Package keys derives per-page ed25519 keypairs from a master key.
//
// # Derivation
//
// A 32-byte seed is computed with BLAKE3 in keyed mode, keyed by the master
// key, over a length-prefixed namespace followed by a length-prefixed
// context string:
//
//	seed = BLAKE3-keyed(masterKey, u32be(len(ns)) | ns | u32be(len(ctx)) | ctx)
//	pair = ed25519.NewKeyFromSeed(seed)
//
// For pages the context is "{pageSize}/{page}", so two sessions that page the
// same stream with different page sizes never collide on a log address.
// These are protocol constants: changing any of them changes every address.
//
// Everything here is a pure function of its inputs. A reader holding the
// master key (and the namespace and page size used by the writer) recomputes
// the address of every page without any lookup:
//
//	for page := uint64(1); page <= pages; page++ {
//	    kp := keys.Derive(keys.DefaultNamespace, master, pageSize, page)
//	    _ = kp.PublicKey // open the page log by this key
//	}
package keys
