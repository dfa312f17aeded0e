package chainsnap

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// Snapshot file layout: a 5-byte header ("CSNP" + version), a uvarint pair
// count, then each pair as uvarint-length-prefixed key and value bytes. The
// whole stream may additionally be wrapped in a single zstd frame, detected
// on read by the frame magic.

var (
	snapshotMagic = []byte("CSNP")
	zstdMagic     = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

const (
	snapshotVersion byte = 1

	// maxChunkSize bounds a single key or value length so a corrupt header
	// cannot drive a huge allocation before the read fails.
	maxChunkSize = 1 << 30
)

// EncodeSnapshot writes pairs to w in snapshot format.
func EncodeSnapshot(w io.Writer, pairs []Pair) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(snapshotMagic); err != nil {
		return err
	}
	if err := bw.WriteByte(snapshotVersion); err != nil {
		return err
	}

	var scratch [binary.MaxVarintLen64]byte
	writeUvarint := func(v uint64) error {
		n := binary.PutUvarint(scratch[:], v)
		_, err := bw.Write(scratch[:n])
		return err
	}

	if err := writeUvarint(uint64(len(pairs))); err != nil {
		return err
	}
	for _, p := range pairs {
		if err := writeUvarint(uint64(len(p.Key))); err != nil {
			return err
		}
		if _, err := bw.Write(p.Key); err != nil {
			return err
		}
		if err := writeUvarint(uint64(len(p.Value))); err != nil {
			return err
		}
		if _, err := bw.Write(p.Value); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// DecodeSnapshot reads exactly one snapshot from r and returns its pairs in
// encoded order. Truncated or malformed input, including trailing bytes
// after the last pair, fails with ErrDecode.
func DecodeSnapshot(r io.Reader) ([]Pair, error) {
	br := bufio.NewReader(r)

	header := make([]byte, len(snapshotMagic)+1)
	if _, err := io.ReadFull(br, header); err != nil {
		return nil, fmt.Errorf("%w: short header: %v", ErrDecode, err)
	}
	if !bytes.Equal(header[:len(snapshotMagic)], snapshotMagic) {
		return nil, fmt.Errorf("%w: bad magic", ErrDecode)
	}
	if v := header[len(snapshotMagic)]; v != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrDecode, v)
	}

	count, err := binary.ReadUvarint(br)
	if err != nil {
		return nil, fmt.Errorf("%w: pair count: %v", ErrDecode, err)
	}

	// The declared count is not trusted for preallocation.
	pairs := make([]Pair, 0, min(count, 1024))
	for i := uint64(0); i < count; i++ {
		key, err := readChunk(br)
		if err != nil {
			return nil, fmt.Errorf("%w: pair %d key: %v", ErrDecode, i, err)
		}
		value, err := readChunk(br)
		if err != nil {
			return nil, fmt.Errorf("%w: pair %d value: %v", ErrDecode, i, err)
		}
		pairs = append(pairs, Pair{Key: key, Value: value})
	}

	if _, err := br.ReadByte(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing bytes after %d pairs", ErrDecode, count)
	}
	return pairs, nil
}

func readChunk(br *bufio.Reader) ([]byte, error) {
	n, err := binary.ReadUvarint(br)
	if err != nil {
		return nil, err
	}
	if n > maxChunkSize {
		return nil, fmt.Errorf("chunk length %d exceeds limit", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(br, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteSnapshot encodes pairs to a temp file in the target directory and
// renames it into place, so path never holds a partial snapshot. A crash
// mid-write can leave a stale *.tmp-* file behind in the directory.
func WriteSnapshot(path string, pairs []Pair, compress bool) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: create temp: %w", ErrSnapshotIO, err)
	}
	tmpName := tmp.Name()

	err = encodeTo(tmp, pairs, compress)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmpName, path)
	}
	if err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: write %s: %w", ErrSnapshotIO, path, err)
	}
	return nil
}

func encodeTo(w io.Writer, pairs []Pair, compress bool) error {
	if !compress {
		return EncodeSnapshot(w, pairs)
	}
	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	if err := EncodeSnapshot(zw, pairs); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// ReadSnapshot loads pairs from path. A missing or unreadable file is an
// I/O failure, never an empty state. Compression is detected from the file
// contents.
func ReadSnapshot(path string) ([]Pair, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrSnapshotIO, path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	head, err := br.Peek(len(zstdMagic))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: short file", ErrDecode, path)
	}

	var src io.Reader = br
	if bytes.Equal(head, zstdMagic) {
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
		}
		defer zr.Close()
		src = zr
	}

	pairs, err := DecodeSnapshot(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pairs, nil
}
