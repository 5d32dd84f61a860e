// Package dictbytes loads the on-disk dictionary artifacts into memory,
// preferring zero-copy mmap over a read-then-copy path, and wraps the
// gob-encoded artifacts (char_def.bin, unk.bin) in a small self-
// describing header so a corrupt or foreign file is rejected before it
// ever reaches gob.Decode.
package dictbytes

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/edsrzf/mmap-go"
)

// EnvDictDir overrides the dictionary directory kotoba.New looks in.
const EnvDictDir = "KOTOBA_DICT_DIR"

// File names of the on-disk artifacts, relative to a dictionary
// directory: five required ones plus the optional dict.words /
// dict.wordsidx word-detail pair.
const (
	FileFST      = "dict.fst"
	FileVals     = "dict.vals"
	FileMatrix   = "matrix.mtx"
	FileCharDef  = "char_def.bin"
	FileUnkDef   = "unk.bin"
	FileWords    = "dict.words"
	FileWordsIdx = "dict.wordsidx"
)

// ResolveDir returns dir unchanged if non-empty, else the value of
// EnvDictDir, else an error: construction must be told where to find
// its artifacts one way or another.
func ResolveDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	if env := os.Getenv(EnvDictDir); env != "" {
		return env, nil
	}
	return "", fmt.Errorf("dictbytes: no dictionary directory given and %s is unset", EnvDictDir)
}

// Mapping is a loaded artifact: either an mmap'd view of the file (the
// common case) or, when mmap is unavailable for that filesystem, a
// plain in-memory copy. Either way Bytes is a read-only []byte valid
// until Close.
type Mapping struct {
	data []byte
	m    mmap.MMap // nil when loaded via ReadFile fallback
	f    *os.File
}

// Bytes returns the mapped contents.
func (mp *Mapping) Bytes() []byte { return mp.data }

// Close releases the mapping's resources.
func (mp *Mapping) Close() error {
	var err error
	if mp.m != nil {
		err = mp.m.Unmap()
	}
	if mp.f != nil {
		if cerr := mp.f.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Load maps path into memory read-only. If mmap.Map fails (e.g. the
// path is on a filesystem that does not support it), it falls back to a
// plain os.ReadFile so construction can still succeed, just without the
// zero-copy benefit. An empty file yields a Mapping with no bytes,
// without being mapped or read.
func Load(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.Size() == 0 {
		f.Close()
		return &Mapping{data: nil}, nil
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		data, rerr := os.ReadFile(path)
		if rerr != nil {
			return nil, rerr
		}
		return &Mapping{data: data}, nil
	}
	return &Mapping{data: []byte(m), m: m, f: f}, nil
}

// LoadFile joins dir and name and Loads the result.
func LoadFile(dir, name string) (*Mapping, error) {
	return Load(filepath.Join(dir, name))
}

const (
	magic        = uint32(0x6B6F7462) // "kotb"
	headerLayout = uint16(1)
	headerLen    = 4 + 2 + 2 + 8 // magic + layout version + reserved + checksum
)

// WrapPayload prefixes payload with a magic/version/checksum header, for
// artifacts (char_def.bin, unk.bin) that have no fixed binary layout of
// their own and so need one imposed to catch truncation or foreign
// files before gob ever sees them.
func WrapPayload(payload []byte) []byte {
	out := make([]byte, headerLen+len(payload))
	binary.LittleEndian.PutUint32(out[0:4], magic)
	binary.LittleEndian.PutUint16(out[4:6], headerLayout)
	binary.LittleEndian.PutUint64(out[8:16], xxhash.Sum64(payload))
	copy(out[headerLen:], payload)
	return out
}

// UnwrapPayload validates data's header and returns the payload that
// follows it, or an error describing which check failed.
func UnwrapPayload(data []byte) (payload []byte, malformed bool, versionMismatch bool, err error) {
	if len(data) < headerLen {
		return nil, true, false, fmt.Errorf("dictbytes: artifact too small for header (%d bytes)", len(data))
	}
	if binary.LittleEndian.Uint32(data[0:4]) != magic {
		return nil, true, false, fmt.Errorf("dictbytes: bad magic")
	}
	if v := binary.LittleEndian.Uint16(data[4:6]); v != headerLayout {
		return nil, false, true, fmt.Errorf("dictbytes: unsupported layout version %d", v)
	}
	wantSum := binary.LittleEndian.Uint64(data[8:16])
	payload = data[headerLen:]
	if got := xxhash.Sum64(payload); got != wantSum {
		return nil, true, false, fmt.Errorf("dictbytes: checksum mismatch (got %x, want %x)", got, wantSum)
	}
	return payload, false, false, nil
}
