package client

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/multierr"
)

// TranscriptEntry 一行收发记录
type TranscriptEntry struct {
	TS   time.Time `json:"ts"`
	Dir  string    `json:"dir"` // "in" / "out"
	Line string    `json:"line"`
}

// Transcript 将本次会话收发的每一行以 JSONL 写入 zstd 压缩文件，用于排查与服务端不同步的问题
type Transcript struct {
	path string

	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

// TranscriptPath 会话记录文件路径
func TranscriptPath(dir, session string) string {
	return filepath.Join(dir, fmt.Sprintf("session-%s.jsonl.zst", session))
}

// OpenTranscript 在 dir 下创建会话记录文件
func OpenTranscript(dir, session string) (*Transcript, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := TranscriptPath(dir, session)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Transcript{
		path: path,
		f:    f,
		enc:  enc,
		w:    bufio.NewWriterSize(enc, 64*1024),
	}, nil
}

// Path 文件路径
func (t *Transcript) Path() string { return t.path }

// Record 追加一条记录
func (t *Transcript) Record(dir, line string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.w == nil {
		return os.ErrClosed
	}
	b, err := json.Marshal(TranscriptEntry{TS: time.Now().UTC(), Dir: dir, Line: line})
	if err != nil {
		return err
	}
	if _, err := t.w.Write(b); err != nil {
		return err
	}
	return t.w.WriteByte('\n')
}

// Close 刷新缓冲并关闭文件
func (t *Transcript) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	var err error
	if t.w != nil {
		err = multierr.Append(err, t.w.Flush())
		t.w = nil
	}
	if t.enc != nil {
		err = multierr.Append(err, t.enc.Close())
		t.enc = nil
	}
	if t.f != nil {
		err = multierr.Append(err, t.f.Close())
		t.f = nil
	}
	return err
}

// ReadTranscript 解压并读出全部记录
func ReadTranscript(path string) ([]TranscriptEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var out []TranscriptEntry
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		var e TranscriptEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return out, err
		}
		out = append(out, e)
	}
	return out, sc.Err()
}
