// Package canon implements canonical JSON serialization and
// content-addressed hashing for governance inputs.
//
// Canonicalization follows RFC 8785 (JCS) with one documented
// extension: floating-point values are permitted, serialized in
// shortest round-trip decimal form. Governance packs carry confidence
// scores and noise thresholds, so a float-free value model was not an
// option here.
//
// The canonical byte form is the ONLY serialization that may feed a
// hash. Two structurally identical packs must produce identical
// digests regardless of key order, whitespace, or Unicode
// normalization of their source documents.
package canon
