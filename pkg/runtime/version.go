package runtime

import (
	"encoding/binary"
	"fmt"
)

// decodeVersion decodes the byte slice returned by a Core_version call into
// a RuntimeVersion. The wire layout is a simple length-prefixed encoding,
// not a full SCALE codec — only the shape of the record matters here:
//
//	u32 len(specName)   | specName bytes
//	u32 len(implName)   | implName bytes
//	u32 authoringVersion | u32 specVersion | u32 implVersion
//	u32 apiCount        | apiCount * (8-byte id | u32 version)
func decodeVersion(data []byte) (RuntimeVersion, error) {
	var v RuntimeVersion
	r := &byteReader{data: data}

	specName, err := r.readString()
	if err != nil {
		return v, fmt.Errorf("spec name: %w", err)
	}
	implName, err := r.readString()
	if err != nil {
		return v, fmt.Errorf("impl name: %w", err)
	}
	authoring, err := r.readU32()
	if err != nil {
		return v, fmt.Errorf("authoring version: %w", err)
	}
	specVersion, err := r.readU32()
	if err != nil {
		return v, fmt.Errorf("spec version: %w", err)
	}
	implVersion, err := r.readU32()
	if err != nil {
		return v, fmt.Errorf("impl version: %w", err)
	}
	apiCount, err := r.readU32()
	if err != nil {
		return v, fmt.Errorf("api count: %w", err)
	}

	apis := make([]APIEntry, 0, apiCount)
	for i := uint32(0); i < apiCount; i++ {
		id, err := r.readBytes(8)
		if err != nil {
			return v, fmt.Errorf("api %d id: %w", i, err)
		}
		apiVersion, err := r.readU32()
		if err != nil {
			return v, fmt.Errorf("api %d version: %w", i, err)
		}
		var entry APIEntry
		copy(entry.ID[:], id)
		entry.Version = apiVersion
		apis = append(apis, entry)
	}

	v.SpecName = specName
	v.ImplName = implName
	v.AuthoringVersion = authoring
	v.SpecVersion = specVersion
	v.ImplVersion = implVersion
	v.APIs = apis
	return v, nil
}

// EncodeVersion is the inverse of decodeVersion, exported for use by test
// doubles that answer Core_version without a real guest.
func EncodeVersion(v RuntimeVersion) []byte {
	buf := make([]byte, 0, 64)
	buf = appendString(buf, v.SpecName)
	buf = appendString(buf, v.ImplName)
	buf = appendU32(buf, v.AuthoringVersion)
	buf = appendU32(buf, v.SpecVersion)
	buf = appendU32(buf, v.ImplVersion)
	buf = appendU32(buf, uint32(len(v.APIs)))
	for _, a := range v.APIs {
		buf = append(buf, a.ID[:]...)
		buf = appendU32(buf, a.Version)
	}
	return buf
}

func appendString(buf []byte, s string) []byte {
	buf = appendU32(buf, uint32(len(s)))
	return append(buf, s...)
}

func appendU32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

type byteReader struct {
	data []byte
	pos  int
}

func (r *byteReader) readBytes(n int) ([]byte, error) {
	if r.pos+n > len(r.data) {
		return nil, fmt.Errorf("unexpected end of data")
	}
	out := r.data[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

func (r *byteReader) readU32() (uint32, error) {
	b, err := r.readBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *byteReader) readString() (string, error) {
	n, err := r.readU32()
	if err != nil {
		return "", err
	}
	b, err := r.readBytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
