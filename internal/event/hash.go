package event

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sort"
	"strconv"
)

// DomainNaturalKey prefixes the natural-key hash. The version suffix leaves
// room for changing the key derivation later.
const DomainNaturalKey = "zeitgeist/event/v2"

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// NaturalKey computes the identity used to detect duplicate inserts: the
// timestamp, the event's interpretation, manifestation and actor, and the
// set of subjects. Subject order does not matter.
//
// Text, storage, tags and payload are excluded, so re-scanning a source
// that renamed a file's display name still yields a duplicate.
//
// Fields are hashed as length-prefixed raw bytes. Values that differ in any
// byte give different keys, the same way they intern to different symbols.
func NaturalKey(e Event) string {
	subjects := make([][]byte, len(e.Subjects))
	for i, s := range e.Subjects {
		var b bytes.Buffer
		writeField(&b, s.URI)
		writeField(&b, s.Interpretation)
		writeField(&b, s.Manifestation)
		subjects[i] = b.Bytes()
	}
	sort.Slice(subjects, func(i, j int) bool {
		return bytes.Compare(subjects[i], subjects[j]) < 0
	})

	var buf bytes.Buffer
	writeField(&buf, strconv.FormatInt(e.Timestamp, 10))
	writeField(&buf, e.Interpretation)
	writeField(&buf, e.Manifestation)
	writeField(&buf, e.Actor)
	buf.Write(binary.AppendUvarint(nil, uint64(len(subjects))))
	for _, s := range subjects {
		writeField(&buf, string(s))
	}
	return hashWithDomain(DomainNaturalKey, buf.Bytes())
}

func writeField(buf *bytes.Buffer, v string) {
	buf.Write(binary.AppendUvarint(nil, uint64(len(v))))
	buf.WriteString(v)
}
