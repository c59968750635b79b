package render

import (
	"crypto/md5"
	"encoding/hex"

	"gocv.io/x/gocv"
)

// MatChecksum returns a hex MD5 of the Mat's pixel bytes, or "empty"
// for an empty Mat.
//
// Arguments:
// - mat: The Mat to compute checksum for.
//
// Returns:
// - A hex-encoded MD5 checksum string.
//
// Example:
//
// ```go
//
//	before := render.MatChecksum(frame)
//	render.Draw(&frame, detections, projection, style)
//	changed := render.MatChecksum(frame) != before
//
// ```
func MatChecksum(mat gocv.Mat) string {
	if mat.Empty() {
		return "empty"
	}

	data, err := mat.DataPtrUint8()
	if err != nil {
		// Non-continuous Mats expose no flat buffer.
		clone := mat.Clone()
		defer clone.Close()
		data = clone.ToBytes()
	}
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}
