// Package particle reads VPIC-style binary particle dumps.
//
// A dump is a flat sequence of 48-byte little-endian records:
//
//	id:i64, pad:u64, x:f32, y:f32, z:f32, i:f32, ux:f32, uy:f32, uz:f32, ke:f32
//
// Only id, x, y, z and ke make it into the columnar output; the remaining
// fields are decoded and discarded.
package particle

// RecordSize is the on-disk byte size of a single particle record.
const RecordSize = 48

// Particle is one decoded dump record.
type Particle struct {
	ID int64
	X  float32
	Y  float32
	Z  float32
	I  float32
	UX float32
	UY float32
	UZ float32
	KE float32
}
