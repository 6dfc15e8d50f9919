package pgstest

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"math"
)

// EbmlElement encodes an element with an 8 byte size field.
func EbmlElement(id uint32, children ...[]byte) []byte {
	var body []byte
	for _, child := range children {
		body = append(body, child...)
	}

	var out []byte
	switch {
	case id > 0xFFFFFF:
		out = binary.BigEndian.AppendUint32(out, id)
	case id > 0xFFFF:
		out = append(out, byte(id>>16), byte(id>>8), byte(id))
	case id > 0xFF:
		out = binary.BigEndian.AppendUint16(out, uint16(id))
	default:
		out = append(out, byte(id))
	}

	size := make([]byte, 8)
	binary.BigEndian.PutUint64(size, uint64(len(body)))
	size[0] = 0x01

	return append(append(out, size...), body...)
}

func EbmlUInt(id uint32, value uint64) []byte {
	return EbmlElement(id, binary.BigEndian.AppendUint64(nil, value))
}

func EbmlFloat(id uint32, value float64) []byte {
	return EbmlElement(id, binary.BigEndian.AppendUint64(nil, math.Float64bits(value)))
}

func EbmlString(id uint32, value string) []byte {
	return EbmlElement(id, []byte(value))
}

type MkvTrack struct {
	CodecId string
	Forced  bool
	//HeaderStripping removes this prefix from every block
	HeaderStripping []byte
	Language        string
	Name            string
	Number          int
	//Type is 1 for video, 2 for audio and 17 for subtitles
	Type   int
	Width  int
	Height int
	Zlib   bool
}

type MkvBlock struct {
	Data []byte
	//Duration in timecode ticks, written as a BlockGroup when positive
	Duration uint64
	Timecode int16
	Track    int
}

type MkvCluster struct {
	Blocks   []MkvBlock
	Timecode uint64
}

type Mkv struct {
	Clusters []MkvCluster
	//Duration in timecode ticks
	Duration      float64
	TimecodeScale uint64
	Tracks        []MkvTrack
}

// Bytes encodes the file. Block data of compressed tracks is compressed here.
func (m Mkv) Bytes() []byte {
	header := EbmlElement(0x1A45DFA3, EbmlString(0x4282, "matroska"))

	var info [][]byte
	if m.TimecodeScale > 0 {
		info = append(info, EbmlUInt(0x2AD7B1, m.TimecodeScale))
	}
	if m.Duration > 0 {
		info = append(info, EbmlFloat(0x4489, m.Duration))
	}

	var entries [][]byte
	tracks := make(map[int]MkvTrack)
	for _, track := range m.Tracks {
		tracks[track.Number] = track
		entries = append(entries, track.entry())
	}

	segment := [][]byte{EbmlElement(0x1549A966, info...), EbmlElement(0x1654AE6B, entries...)}
	for _, cluster := range m.Clusters {
		children := [][]byte{EbmlUInt(0xE7, cluster.Timecode)}
		for _, block := range cluster.Blocks {
			children = append(children, block.encode(tracks[block.Track]))
		}
		segment = append(segment, EbmlElement(0x1F43B675, children...))
	}

	return append(header, EbmlElement(0x18538067, segment...)...)
}

func (t MkvTrack) entry() []byte {
	children := [][]byte{
		EbmlUInt(0xD7, uint64(t.Number)),
		EbmlUInt(0x73C5, uint64(t.Number)*1000),
		EbmlUInt(0x83, uint64(t.Type)),
		EbmlString(0x86, t.CodecId),
	}
	if t.Language != "" {
		children = append(children, EbmlString(0x22B59C, t.Language))
	}
	if t.Name != "" {
		children = append(children, EbmlString(0x536E, t.Name))
	}
	if t.Forced {
		children = append(children, EbmlUInt(0x55AA, 1))
	}
	if t.Width > 0 {
		children = append(children, EbmlElement(0xE0, EbmlUInt(0xB0, uint64(t.Width)), EbmlUInt(0xBA, uint64(t.Height))))
	}

	var compression []byte
	switch {
	case t.Zlib:
		compression = EbmlElement(0x5034, EbmlUInt(0x4254, 0))
	case len(t.HeaderStripping) > 0:
		compression = EbmlElement(0x5034, EbmlUInt(0x4254, 3), EbmlElement(0x4255, t.HeaderStripping))
	}
	if compression != nil {
		encoding := EbmlElement(0x6240, EbmlUInt(0x5031, 0), EbmlUInt(0x5032, 1), EbmlUInt(0x5033, 0), compression)
		children = append(children, EbmlElement(0x6D80, encoding))
	}

	return EbmlElement(0xAE, children...)
}

func (b MkvBlock) encode(track MkvTrack) []byte {
	data := b.Data
	switch {
	case track.Zlib:
		var compressed bytes.Buffer
		writer := zlib.NewWriter(&compressed)
		writer.Write(data)
		writer.Close()
		data = compressed.Bytes()
	case len(track.HeaderStripping) > 0:
		data = bytes.TrimPrefix(data, track.HeaderStripping)
	}

	body := []byte{0x80 | byte(b.Track)}
	body = binary.BigEndian.AppendUint16(body, uint16(b.Timecode))
	body = append(body, 0x80)
	body = append(body, data...)

	if b.Duration == 0 {
		return EbmlElement(0xA3, body)
	}

	return EbmlElement(0xA0, EbmlElement(0xA1, body), EbmlUInt(0x9B, b.Duration))
}
