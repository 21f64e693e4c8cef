// Package qrccodec implements the non-standard 3DES+zlib codec used to decrypt
// and re-encrypt QQ-Music-style encrypted karaoke lyric payloads.
package qrccodec

import (
	"bytes"
	"compress/zlib"
	"encoding/hex"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/apoint123/lyricsforge/errs"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type tripleSchedule [3]roundKeys

var (
	scheduleOnce      sync.Once
	encryptSchedule   tripleSchedule
	decryptSchedule   tripleSchedule
)

func buildSchedules() {
	// Encrypt flow: E(K1) -> D(K2) -> E(K3).
	encryptSchedule[0] = keySchedule(key1, modeEncrypt)
	encryptSchedule[1] = keySchedule(key2, modeDecrypt)
	encryptSchedule[2] = keySchedule(key3, modeEncrypt)

	// Decrypt flow: D(K3) -> E(K2) -> D(K1).
	decryptSchedule[0] = keySchedule(key3, modeDecrypt)
	decryptSchedule[1] = keySchedule(key2, modeEncrypt)
	decryptSchedule[2] = keySchedule(key1, modeDecrypt)
}

func schedules() (enc, dec *tripleSchedule) {
	scheduleOnce.Do(buildSchedules)
	return &encryptSchedule, &decryptSchedule
}

func tripleCrypt(input [8]byte, sched *tripleSchedule) [8]byte {
	t1 := desCrypt(input, sched[0])
	t2 := desCrypt(t1, sched[1])
	return desCrypt(t2, sched[2])
}

// DecryptQRC decrypts a hex-encoded, 3DES+zlib-compressed QRC payload into
// its plaintext XML body. Block-level decryption is split across up to
// 16 goroutines; the blocks are independent ECB-mode operations so
// ordering is irrelevant to correctness.
func DecryptQRC(encryptedHex string) (string, error) {
	encrypted, err := hex.DecodeString(encryptedHex)
	if err != nil {
		return "", errs.Wrap(errs.Decryption, err, "invalid hex string")
	}
	if len(encrypted)%desBlockSiz != 0 {
		return "", errs.New(errs.Decryption, "encrypted data length is not a multiple of 8")
	}

	_, dec := schedules()
	decrypted, err := cryptBlocks(encrypted, dec)
	if err != nil {
		return "", errs.Wrap(errs.Decryption, err, "block decryption failed")
	}

	plain, err := zlibDecompress(decrypted)
	if err != nil {
		return "", errs.Wrap(errs.Decryption, err, "zlib decompression failed")
	}
	plain = bytes.TrimPrefix(plain, utf8BOM)

	return string(plain), nil
}

// EncryptQRC is the exact inverse of DecryptQRC: zlib-deflate, zero-pad to
// 8 bytes, then the three-pass DES pipeline, hex-encoded.
func EncryptQRC(plaintext string) (string, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write([]byte(plaintext)); err != nil {
		return "", errs.Wrap(errs.Encryption, err, "zlib compression write failed")
	}
	if err := w.Close(); err != nil {
		return "", errs.Wrap(errs.Encryption, err, "zlib compression finish failed")
	}

	padded := zeroPad(buf.Bytes(), desBlockSiz)

	enc, _ := schedules()
	encrypted, err := cryptBlocks(padded, enc)
	if err != nil {
		return "", errs.Wrap(errs.Encryption, err, "block encryption failed")
	}

	return hex.EncodeToString(encrypted), nil
}

// cryptBlocks runs every independent 8-byte ECB block of data through the
// triple-DES schedule, in parallel.
func cryptBlocks(data []byte, sched *tripleSchedule) ([]byte, error) {
	out := make([]byte, len(data))
	numBlocks := len(data) / desBlockSiz
	if numBlocks == 0 {
		return out, nil
	}

	g := new(errgroup.Group)
	workers := numBlocks
	if workers > 16 {
		workers = 16
	}
	chunk := (numBlocks + workers - 1) / workers

	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > numBlocks {
			end = numBlocks
		}
		if start >= end {
			continue
		}
		g.Go(func() error {
			var block [8]byte
			for b := start; b < end; b++ {
				off := b * desBlockSiz
				copy(block[:], data[off:off+desBlockSiz])
				result := tripleCrypt(block, sched)
				copy(out[off:off+desBlockSiz], result[:])
			}
			return nil
		})
	}
	return out, g.Wait()
}

func zlibDecompress(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func zeroPad(data []byte, blockSize int) []byte {
	padLen := (blockSize - (len(data) % blockSize)) % blockSize
	if padLen == 0 {
		return data
	}
	out := make([]byte, len(data)+padLen)
	copy(out, data)
	return out
}
