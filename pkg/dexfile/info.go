package dexfile

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/joshuapare/dexkit/internal/buf"
	"github.com/joshuapare/dexkit/internal/format"
)

// SectionInfo is one (size, offset) pair from the header.
type SectionInfo struct {
	Name   string `json:"name"`
	Size   uint32 `json:"size"`
	Offset uint32 `json:"offset"`
}

// MapEntry is one decoded map_list item.
type MapEntry struct {
	Type   string `json:"type"`
	Code   uint16 `json:"code"`
	Size   uint32 `json:"size"`
	Offset uint32 `json:"offset"`
}

// Info summarizes a dex header and map without verifying the file.
type Info struct {
	Magic             string        `json:"magic"`
	Version           int           `json:"version"`
	Compact           bool          `json:"compact"`
	Checksum          uint32        `json:"checksum"`
	ComputedChecksum  uint32        `json:"computed_checksum"`
	Signature         string        `json:"signature"`
	ComputedSignature string        `json:"computed_signature"`
	FileSize          uint32        `json:"file_size"`
	ActualSize        int           `json:"actual_size"`
	HeaderSize        uint32        `json:"header_size"`
	EndianTag         uint32        `json:"endian_tag"`
	MapOff            uint32        `json:"map_off"`
	Sections          []SectionInfo `json:"sections"`
	Map               []MapEntry    `json:"map,omitempty"`
	// MapError explains why Map is empty when the map_list is out of range.
	MapError string `json:"map_error,omitempty"`
}

// ChecksumOK reports whether the stored adler32 matches the contents.
func (i *Info) ChecksumOK() bool { return i.Checksum == i.ComputedChecksum }

// SignatureOK reports whether the stored SHA-1 matches the contents.
func (i *Info) SignatureOK() bool { return i.Signature == i.ComputedSignature }

// ReadInfo decodes the header of data and, if it is in range, the map list.
// Only the header has to be well formed; everything else is reported as found.
func ReadInfo(data []byte) (*Info, error) {
	hdr, err := format.ParseHeader(data)
	if err != nil {
		return nil, fmt.Errorf("dexfile: %w", err)
	}
	sig := format.ComputeSignature(data)

	info := &Info{
		Magic:             hdr.MagicString(),
		Version:           hdr.Version,
		Compact:           hdr.Compact,
		Checksum:          hdr.Checksum,
		ComputedChecksum:  format.ComputeChecksum(data),
		Signature:         hex.EncodeToString(hdr.Signature[:]),
		ComputedSignature: hex.EncodeToString(sig[:]),
		FileSize:          hdr.FileSize,
		ActualSize:        len(data),
		HeaderSize:        hdr.HeaderSize,
		EndianTag:         hdr.EndianTag,
		MapOff:            hdr.MapOff,
		Sections: []SectionInfo{
			{Name: "link", Size: hdr.Link.Size, Offset: hdr.Link.Offset},
			{Name: "string_ids", Size: hdr.StringIDs.Size, Offset: hdr.StringIDs.Offset},
			{Name: "type_ids", Size: hdr.TypeIDs.Size, Offset: hdr.TypeIDs.Offset},
			{Name: "proto_ids", Size: hdr.ProtoIDs.Size, Offset: hdr.ProtoIDs.Offset},
			{Name: "field_ids", Size: hdr.FieldIDs.Size, Offset: hdr.FieldIDs.Offset},
			{Name: "method_ids", Size: hdr.MethodIDs.Size, Offset: hdr.MethodIDs.Offset},
			{Name: "class_defs", Size: hdr.ClassDefs.Size, Offset: hdr.ClassDefs.Offset},
			{Name: "data", Size: hdr.Data.Size, Offset: hdr.Data.Offset},
		},
	}
	info.Map, err = readMap(data, hdr.MapOff)
	if err != nil {
		info.MapError = err.Error()
	}
	return info, nil
}

func readMap(data []byte, mapOff uint32) ([]MapEntry, error) {
	if mapOff == 0 {
		return nil, errors.New("no map_list")
	}
	if !buf.Has(data, int(mapOff), 4) {
		return nil, fmt.Errorf("map_list offset %#x out of range", mapOff)
	}
	count := buf.U32At(data, int(mapOff))
	itemsOff := int(mapOff) + 4
	if _, err := buf.CheckListBounds(len(data), itemsOff, int(count), format.MapItemSize); err != nil {
		return nil, fmt.Errorf("map_list of %d items at %#x out of range: %w", count, mapOff, err)
	}

	entries := make([]MapEntry, 0, count)
	for i := range int(count) {
		item := format.ReadMapItem(data, itemsOff+i*format.MapItemSize)
		entries = append(entries, MapEntry{
			Type:   item.Type.String(),
			Code:   uint16(item.Type),
			Size:   item.Size,
			Offset: item.Offset,
		})
	}
	return entries, nil
}
