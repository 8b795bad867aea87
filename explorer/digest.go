package explorer

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"

	"lukechampine.com/blake3"
)

// Digest fingerprints an archived event from its type and JSON encoded
// attributes. Attribute maps encode with sorted keys, so equal events always
// share a digest.
func Digest(eventType string, attributes []byte) string {
	buf := bytes.NewBuffer(nil)
	writeDelimited(buf, []byte(eventType))
	writeDelimited(buf, attributes)
	sum := blake3.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:])
}

// Verify reports whether record still matches its stored digest.
func Verify(record EventRecord) bool {
	return record.Digest != "" && record.Digest == Digest(record.Type, []byte(record.Attributes))
}

func writeDelimited(buf *bytes.Buffer, data []byte) {
	var size [4]byte
	binary.BigEndian.PutUint32(size[:], uint32(len(data)))
	buf.Write(size[:])
	buf.Write(data)
}
