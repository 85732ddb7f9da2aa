package protocol

import (
	"errors"
	"fmt"
	"io"
)

// Source feeds the packet decoders. BufferSource reports ErrTruncated when it
// runs dry, StreamSource reports ErrStream when its reader fails. The parsing
// code is the same for both.
type Source interface {
	ReadByte() (byte, error)
	ReadFull(n int) ([]byte, error)
}

// BufferSource reads from an in-memory packet buffer. It never reads past data.
type BufferSource struct {
	data []byte
	off  int
}

func NewBufferSource(data []byte) *BufferSource {
	return &BufferSource{data: data}
}

func (s *BufferSource) ReadByte() (byte, error) {
	if s.off >= len(s.data) {
		return 0, ErrTruncated
	}
	b := s.data[s.off]
	s.off++
	return b, nil
}

// ReadFull returns the next n bytes. The result aliases the underlying buffer.
func (s *BufferSource) ReadFull(n int) ([]byte, error) {
	if n < 0 || n > s.Remaining() {
		return nil, ErrTruncated
	}
	b := s.data[s.off : s.off+n]
	s.off += n
	return b, nil
}

// Consumed returns how many bytes have been read so far.
func (s *BufferSource) Consumed() int {
	return s.off
}

func (s *BufferSource) Remaining() int {
	return len(s.data) - s.off
}

// StreamSource pulls exactly the requested bytes from a blocking reader, one
// read per field. It does no buffering of its own.
type StreamSource struct {
	r io.Reader
	n int // bytes read for the current packet
}

func NewStreamSource(r io.Reader) *StreamSource {
	return &StreamSource{r: r}
}

func (s *StreamSource) ReadByte() (byte, error) {
	var b [1]byte
	if _, err := s.read(b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (s *StreamSource) ReadFull(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative length %d", ErrStream, n)
	}
	buf := make([]byte, n)
	if n == 0 {
		return buf, nil
	}
	if _, err := s.read(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (s *StreamSource) read(buf []byte) (int, error) {
	n, err := io.ReadFull(s.r, buf)
	s.n += n
	if err != nil {
		// EOF after part of a packet is never a clean close
		if errors.Is(err, io.EOF) && s.n > 0 {
			err = io.ErrUnexpectedEOF
		}
		return n, fmt.Errorf("%w: %w", ErrStream, err)
	}
	return n, nil
}

// ReadCard reads a 5-byte card from src.
func ReadCard(src Source) (Card, error) {
	b, err := src.ReadFull(CardSize)
	if err != nil {
		return Card{}, err
	}
	card, _, err := UnmarshalCard(b)
	return card, err
}

// ReadInt32 reads a big-endian signed 32-bit integer from src.
func ReadInt32(src Source) (int32, error) {
	b, err := src.ReadFull(4)
	if err != nil {
		return 0, err
	}
	return int32(be.Uint32(b)), nil
}

// ReadName reads a length-prefixed name and decodes it leniently.
func ReadName(src Source) (string, error) {
	length, err := src.ReadByte()
	if err != nil {
		return "", err
	}
	b, err := src.ReadFull(int(length))
	if err != nil {
		return "", err
	}
	return DecodeName(b), nil
}

// ReadRoster reads a count-prefixed list of names. Nothing is returned unless
// every declared entry was read.
func ReadRoster(src Source) ([]string, error) {
	count, err := src.ReadByte()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, count)
	for i := 0; i < int(count); i++ {
		name, err := ReadName(src)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

// AppendInt32 appends v in big-endian order.
func AppendInt32(buf []byte, v int32) []byte {
	return be.AppendUint32(buf, uint32(v))
}

// AppendName appends the length-prefixed form of name.
func AppendName(buf []byte, name string) ([]byte, error) {
	if len(name) > MaxNameLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrNameTooLong, len(name))
	}
	buf = append(buf, byte(len(name)))
	return append(buf, name...), nil
}

// AppendRoster appends the count-prefixed form of names, keeping their order.
func AppendRoster(buf []byte, names []string) ([]byte, error) {
	if len(names) > MaxRosterLen {
		return nil, fmt.Errorf("%w: %d names", ErrRosterTooLarge, len(names))
	}
	buf = append(buf, byte(len(names)))

	var err error
	for _, name := range names {
		buf, err = AppendName(buf, name)
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// RosterSize is the encoded length of names.
func RosterSize(names []string) int {
	n := 1
	for _, name := range names {
		n += 1 + len(name)
	}
	return n
}
