package protocol

import (
	"fmt"

	"github.com/wavebase/client-go/bsatn"
	"github.com/wavebase/client-go/compression"
)

// RowSizeHint tells the reader how to split a BsatnRowList's flat byte
// buffer back into individual rows, without re-parsing row contents.
type RowSizeHint struct {
	// Tag 0: every row is FixedSize bytes long.
	FixedSize *uint16
	// Tag 1: RowOffsets[i] is the start offset of row i; the buffer's
	// length is the implicit end offset of the last row.
	RowOffsets []uint64
}

func (h RowSizeHint) EncodeATN(e *bsatn.Encoder) error {
	switch {
	case h.FixedSize != nil:
		e.WriteVariantTag(0)
		e.WriteU16(*h.FixedSize)
		return nil
	case h.RowOffsets != nil:
		e.WriteVariantTag(1)
		return bsatn.EncodeSlice(e, h.RowOffsets, func(e *bsatn.Encoder, v uint64) { e.WriteU64(v) })
	default:
		return fmt.Errorf("protocol: RowSizeHint has neither FixedSize nor RowOffsets set")
	}
}

func DecodeRowSizeHint(d *bsatn.Decoder) (RowSizeHint, error) {
	tag, err := d.ReadVariantTag()
	if err != nil {
		return RowSizeHint{}, err
	}
	switch tag {
	case 0:
		v, err := d.ReadU16()
		if err != nil {
			return RowSizeHint{}, err
		}
		return RowSizeHint{FixedSize: &v}, nil
	case 1:
		offsets, err := bsatn.DecodeSlice(d, func(d *bsatn.Decoder) (uint64, error) { return d.ReadU64() })
		if err != nil {
			return RowSizeHint{}, err
		}
		return RowSizeHint{RowOffsets: offsets}, nil
	default:
		return RowSizeHint{}, fmt.Errorf("%w: RowSizeHint tag %d", bsatn.ErrInvalidEnumTag, tag)
	}
}

// Rows splits the flat buffer into individual row byte slices per the
// hint. Each returned slice is a view into buf.
func (h RowSizeHint) Rows(buf []byte) ([][]byte, error) {
	switch {
	case h.FixedSize != nil:
		size := int(*h.FixedSize)
		if size == 0 {
			if len(buf) == 0 {
				return nil, nil
			}
			return nil, fmt.Errorf("protocol: zero FixedSize with non-empty buffer")
		}
		if len(buf)%size != 0 {
			return nil, fmt.Errorf("protocol: buffer length %d is not a multiple of fixed row size %d", len(buf), size)
		}
		n := len(buf) / size
		rows := make([][]byte, n)
		for i := 0; i < n; i++ {
			rows[i] = buf[i*size : (i+1)*size]
		}
		return rows, nil
	case h.RowOffsets != nil:
		n := len(h.RowOffsets)
		rows := make([][]byte, n)
		for i := 0; i < n; i++ {
			start := h.RowOffsets[i]
			var end uint64
			if i+1 < n {
				end = h.RowOffsets[i+1]
			} else {
				end = uint64(len(buf))
			}
			if end > uint64(len(buf)) || start > end {
				return nil, fmt.Errorf("protocol: row offset %d..%d out of range for buffer of length %d", start, end, len(buf))
			}
			rows[i] = buf[start:end]
		}
		return rows, nil
	default:
		return nil, nil
	}
}

// BsatnRowList is [RowSizeHint][u32 bytes-length][bytes] on the wire.
type BsatnRowList struct {
	Hint RowSizeHint
	Buf  []byte
}

func (l BsatnRowList) EncodeATN(e *bsatn.Encoder) error {
	if err := l.Hint.EncodeATN(e); err != nil {
		return err
	}
	return e.WriteBytes(l.Buf)
}

func DecodeBsatnRowList(d *bsatn.Decoder) (BsatnRowList, error) {
	hint, err := DecodeRowSizeHint(d)
	if err != nil {
		return BsatnRowList{}, err
	}
	buf, err := d.ReadBytes()
	if err != nil {
		return BsatnRowList{}, err
	}
	if len(buf) == 0 {
		buf = nil
	}
	return BsatnRowList{Hint: hint, Buf: buf}, nil
}

func (l BsatnRowList) Rows() ([][]byte, error) {
	return l.Hint.Rows(l.Buf)
}

// QueryUpdate is one query's row delta: rows removed, then rows added.
type QueryUpdate struct {
	Deletes BsatnRowList
	Inserts BsatnRowList
}

func (u QueryUpdate) EncodeATN(e *bsatn.Encoder) error {
	if err := u.Deletes.EncodeATN(e); err != nil {
		return err
	}
	return u.Inserts.EncodeATN(e)
}

func DecodeQueryUpdate(d *bsatn.Decoder) (QueryUpdate, error) {
	deletes, err := DecodeBsatnRowList(d)
	if err != nil {
		return QueryUpdate{}, err
	}
	inserts, err := DecodeBsatnRowList(d)
	if err != nil {
		return QueryUpdate{}, err
	}
	return QueryUpdate{Deletes: deletes, Inserts: inserts}, nil
}

// DeleteRows and InsertRows split both row lists into individual rows.
// A QueryUpdate carried compressed must first be obtained through
// CompressableQueryUpdate.Resolve; these methods do no decompression.
func (u QueryUpdate) DeleteRows() ([][]byte, error) { return u.Deletes.Rows() }
func (u QueryUpdate) InsertRows() ([][]byte, error) { return u.Inserts.Rows() }

// CompressableQueryUpdate is a closed sum: Uncompressed(QueryUpdate),
// Brotli(bytes), Gzip(bytes). The compressed variants carry an
// ATN-encoded QueryUpdate as their decompressed payload.
type CompressableQueryUpdate struct {
	Uncompressed *QueryUpdate
	Brotli       []byte
	Gzip         []byte
}

const (
	queryUpdateTagUncompressed = 0
	queryUpdateTagBrotli       = 1
	queryUpdateTagGzip         = 2
)

func (u CompressableQueryUpdate) EncodeATN(e *bsatn.Encoder) error {
	switch {
	case u.Uncompressed != nil:
		e.WriteVariantTag(queryUpdateTagUncompressed)
		return u.Uncompressed.EncodeATN(e)
	case u.Brotli != nil:
		e.WriteVariantTag(queryUpdateTagBrotli)
		return e.WriteBytes(u.Brotli)
	case u.Gzip != nil:
		e.WriteVariantTag(queryUpdateTagGzip)
		return e.WriteBytes(u.Gzip)
	default:
		return fmt.Errorf("protocol: CompressableQueryUpdate has no variant set")
	}
}

func DecodeCompressableQueryUpdate(d *bsatn.Decoder) (CompressableQueryUpdate, error) {
	tag, err := d.ReadVariantTag()
	if err != nil {
		return CompressableQueryUpdate{}, err
	}
	switch tag {
	case queryUpdateTagUncompressed:
		qu, err := DecodeQueryUpdate(d)
		if err != nil {
			return CompressableQueryUpdate{}, err
		}
		return CompressableQueryUpdate{Uncompressed: &qu}, nil
	case queryUpdateTagBrotli:
		b, err := d.ReadBytes()
		if err != nil {
			return CompressableQueryUpdate{}, err
		}
		return CompressableQueryUpdate{Brotli: b}, nil
	case queryUpdateTagGzip:
		b, err := d.ReadBytes()
		if err != nil {
			return CompressableQueryUpdate{}, err
		}
		return CompressableQueryUpdate{Gzip: b}, nil
	default:
		return CompressableQueryUpdate{}, fmt.Errorf("%w: CompressableQueryUpdate tag %d", bsatn.ErrInvalidEnumTag, tag)
	}
}

// Resolve decompresses a Brotli/Gzip variant and decodes the resulting
// ATN QueryUpdate, or returns the Uncompressed one directly.
func (u CompressableQueryUpdate) Resolve() (QueryUpdate, error) {
	switch {
	case u.Uncompressed != nil:
		return *u.Uncompressed, nil
	case u.Brotli != nil:
		raw, err := compression.DecompressBrotli(u.Brotli)
		if err != nil {
			return QueryUpdate{}, err
		}
		return DecodeQueryUpdate(bsatn.NewDecoder(raw))
	case u.Gzip != nil:
		raw, err := compression.DecompressGzip(u.Gzip)
		if err != nil {
			return QueryUpdate{}, err
		}
		return DecodeQueryUpdate(bsatn.NewDecoder(raw))
	default:
		return QueryUpdate{}, fmt.Errorf("protocol: CompressableQueryUpdate has no variant set")
	}
}

// TableUpdate carries zero or more row deltas for one table, normally
// one per subscribed query that touches it.
type TableUpdate struct {
	TableID     uint32
	TableName   string
	NumRowsHint uint64
	Updates     []CompressableQueryUpdate
}

func (u TableUpdate) EncodeATN(e *bsatn.Encoder) error {
	e.WriteU32(u.TableID)
	if err := e.WriteString(u.TableName); err != nil {
		return err
	}
	e.WriteU64(u.NumRowsHint)
	return bsatn.EncodeSliceErr(e, u.Updates, func(e *bsatn.Encoder, v CompressableQueryUpdate) error { return v.EncodeATN(e) })
}

func DecodeTableUpdate(d *bsatn.Decoder) (TableUpdate, error) {
	tableID, err := d.ReadU32()
	if err != nil {
		return TableUpdate{}, err
	}
	name, err := d.ReadString()
	if err != nil {
		return TableUpdate{}, err
	}
	numRows, err := d.ReadU64()
	if err != nil {
		return TableUpdate{}, err
	}
	updates, err := bsatn.DecodeSlice(d, DecodeCompressableQueryUpdate)
	if err != nil {
		return TableUpdate{}, err
	}
	return TableUpdate{TableID: tableID, TableName: name, NumRowsHint: numRows, Updates: updates}, nil
}

// DatabaseUpdate is an ordered sequence of TableUpdates, applied
// atomically from the cache's perspective.
type DatabaseUpdate struct {
	Tables []TableUpdate
}

func (u DatabaseUpdate) EncodeATN(e *bsatn.Encoder) error {
	return bsatn.EncodeSliceErr(e, u.Tables, func(e *bsatn.Encoder, v TableUpdate) error { return v.EncodeATN(e) })
}

func DecodeDatabaseUpdate(d *bsatn.Decoder) (DatabaseUpdate, error) {
	tables, err := bsatn.DecodeSlice(d, DecodeTableUpdate)
	if err != nil {
		return DatabaseUpdate{}, err
	}
	return DatabaseUpdate{Tables: tables}, nil
}
