package qrccodec

// This file reproduces a structurally DES-like but entirely non-standard
// block cipher used by a QQ Music-style encrypted karaoke lyric format. It
// is NOT standard DES and must not be replaced by one: the key schedule's
// byte indexing, the PC-2 table, S-box 4, and the final round all deviate
// from the published algorithm in ways that are load-bearing for
// interoperability. Do not "fix" any of the quirks below.
//
// Credit: Brad Conte's original DES implementation, and the LyricDecoder
// project's adaptation of it for QQ Music (Copyright (c) SuJiKiNen,
// MIT License, https://github.com/SuJiKiNen/LyricDecoder).

import "sync"

type mode int

const (
	modeEncrypt mode = iota
	modeDecrypt
)

const (
	rounds      = 16
	subKeySize  = 6
	desBlockSiz = 8
)

type roundKeys [rounds][subKeySize]byte

var (
	key1 = [8]byte{'!', '@', '#', ')', '(', '*', '$', '%'}
	key2 = [8]byte{'1', '2', '3', 'Z', 'X', 'C', '!', '@'}
	key3 = [8]byte{'!', '@', '#', ')', '(', 'N', 'H', 'L'}
)

var sBoxes = [8][64]byte{
	{
		14, 4, 13, 1, 2, 15, 11, 8, 3, 10, 6, 12, 5, 9, 0, 7,
		0, 15, 7, 4, 14, 2, 13, 1, 10, 6, 12, 11, 9, 5, 3, 8,
		4, 1, 14, 8, 13, 6, 2, 11, 15, 12, 9, 7, 3, 10, 5, 0,
		15, 12, 8, 2, 4, 9, 1, 7, 5, 11, 3, 14, 10, 0, 6, 13,
	},
	{
		15, 1, 8, 14, 6, 11, 3, 4, 9, 7, 2, 13, 12, 0, 5, 10,
		3, 13, 4, 7, 15, 2, 8, 15, 12, 0, 1, 10, 6, 9, 11, 5,
		0, 14, 7, 11, 10, 4, 13, 1, 5, 8, 12, 6, 9, 3, 2, 15,
		13, 8, 10, 1, 3, 15, 4, 2, 11, 6, 7, 12, 0, 5, 14, 9,
	},
	{
		10, 0, 9, 14, 6, 3, 15, 5, 1, 13, 12, 7, 11, 4, 2, 8,
		13, 7, 0, 9, 3, 4, 6, 10, 2, 8, 5, 14, 12, 11, 15, 1,
		13, 6, 4, 9, 8, 15, 3, 0, 11, 1, 2, 12, 5, 10, 14, 7,
		1, 10, 13, 0, 6, 9, 8, 7, 4, 15, 14, 3, 11, 5, 2, 12,
	},
	{
		// Row 3 (0-indexed) keeps a duplicate "10, 10" entry. That is not
		// a transcription error: the upstream cipher's S-box 4 really
		// does repeat this value, and correcting it breaks interop.
		7, 13, 14, 3, 0, 6, 9, 10, 1, 2, 8, 5, 11, 12, 4, 15,
		13, 8, 11, 5, 6, 15, 0, 3, 4, 7, 2, 12, 1, 10, 14, 9,
		10, 6, 9, 0, 12, 11, 7, 13, 15, 1, 3, 14, 5, 2, 8, 4,
		3, 15, 0, 6, 10, 10, 13, 8, 9, 4, 5, 11, 12, 7, 2, 14,
	},
	{
		2, 12, 4, 1, 7, 10, 11, 6, 8, 5, 3, 15, 13, 0, 14, 9,
		14, 11, 2, 12, 4, 7, 13, 1, 5, 0, 15, 10, 3, 9, 8, 6,
		4, 2, 1, 11, 10, 13, 7, 8, 15, 9, 12, 5, 6, 3, 0, 14,
		11, 8, 12, 7, 1, 14, 2, 13, 6, 15, 0, 9, 10, 4, 5, 3,
	},
	{
		12, 1, 10, 15, 9, 2, 6, 8, 0, 13, 3, 4, 14, 7, 5, 11,
		10, 15, 4, 2, 7, 12, 9, 5, 6, 1, 13, 14, 0, 11, 3, 8,
		9, 14, 15, 5, 2, 8, 12, 3, 7, 0, 4, 10, 1, 13, 11, 6,
		4, 3, 2, 12, 9, 5, 15, 10, 11, 14, 1, 7, 6, 0, 8, 13,
	},
	{
		4, 11, 2, 14, 15, 0, 8, 13, 3, 12, 9, 7, 5, 10, 6, 1,
		13, 0, 11, 7, 4, 9, 1, 10, 14, 3, 5, 12, 2, 15, 8, 6,
		1, 4, 11, 13, 12, 3, 7, 14, 10, 15, 6, 8, 0, 5, 9, 2,
		6, 11, 13, 8, 1, 4, 10, 7, 9, 5, 0, 15, 14, 2, 3, 12,
	},
	{
		13, 2, 8, 4, 6, 15, 11, 1, 10, 9, 3, 14, 5, 0, 12, 7,
		1, 15, 13, 8, 10, 3, 7, 4, 12, 5, 6, 11, 0, 14, 9, 2,
		7, 11, 4, 1, 9, 12, 14, 2, 0, 6, 10, 13, 15, 3, 5, 8,
		2, 1, 14, 7, 4, 10, 8, 13, 15, 12, 9, 0, 3, 5, 6, 11,
	},
}

var pBox = [32]byte{
	16, 7, 20, 21, 29, 12, 28, 17,
	1, 15, 23, 26, 5, 18, 31, 10,
	2, 8, 24, 14, 32, 27, 3, 9,
	19, 13, 30, 6, 22, 11, 4, 25,
}

var eBoxTable = [48]byte{
	32, 1, 2, 3, 4, 5,
	4, 5, 6, 7, 8, 9,
	8, 9, 10, 11, 12, 13,
	12, 13, 14, 15, 16, 17,
	16, 17, 18, 19, 20, 21,
	20, 21, 22, 23, 24, 25,
	24, 25, 26, 27, 28, 29,
	28, 29, 30, 31, 32, 1,
}

var keyRndShift = [16]uint32{
	1, 1, 2, 2, 2, 2, 2, 2,
	1, 2, 2, 2, 2, 2, 2, 1,
}

// PC-1, C half.
var keyPermC = [28]int{
	56, 48, 40, 32, 24, 16, 8,
	0, 57, 49, 41, 33, 25, 17,
	9, 1, 58, 50, 42, 34, 26,
	18, 10, 2, 59, 51, 43, 35,
}

// PC-1, D half.
var keyPermD = [28]int{
	62, 54, 46, 38, 30, 22, 14,
	6, 61, 53, 45, 37, 29, 21,
	13, 5, 60, 52, 44, 36, 28,
	20, 12, 4, 27, 19, 11, 3,
}

// PC-2.
var keyCompression = [48]int{
	13, 16, 10, 23, 0, 4, 2, 27,
	14, 5, 20, 9, 22, 18, 11, 3,
	25, 7, 15, 6, 26, 19, 12, 1,
	40, 51, 30, 36, 46, 54, 29, 39,
	50, 44, 32, 47, 43, 48, 38, 55,
	33, 52, 45, 41, 49, 35, 28, 31,
}

func calculateSBoxIndex(a byte) int {
	return int((a & 0x20) | ((a & 0x1f) >> 1) | ((a & 0x01) << 4))
}

func applyQQPBoxPermutation(input uint32, table *[32]byte) uint32 {
	var output uint32
	for destIdx, srcBit1Based := range table {
		destMask := uint32(1) << (31 - uint(destIdx))
		srcMask := uint32(1) << (32 - uint(srcBit1Based))
		if input&srcMask != 0 {
			output |= destMask
		}
	}
	return output
}

var spTablesOnce sync.Once
var spTables [8][64]uint32

func getSPTables() *[8][64]uint32 {
	spTablesOnce.Do(func() {
		for sIdx := 0; sIdx < 8; sIdx++ {
			for input := 0; input < 64; input++ {
				idx := calculateSBoxIndex(byte(input))
				fourBit := sBoxes[sIdx][idx]
				prePBox := uint32(fourBit) << uint(28-(sIdx*4))
				spTables[sIdx][input] = applyQQPBoxPermutation(prePBox, &pBox)
			}
		}
	})
	return &spTables
}

// rotateLeft28BitInU32 rotates the top 28 bits of a 32-bit word left,
// keeping the result aligned to the top 28 bits (low 4 bits stay zero).
func rotateLeft28BitInU32(value uint32, amount uint32) uint32 {
	const mask28 = 0xFFFFFFF0
	return ((value << amount) | (value >> (28 - amount))) & mask28
}

// permuteFromKeyBytes extracts bits from an 8-byte key according to table,
// using the cipher's scrambled byte ordering: the key is treated as two
// little-endian 32-bit words concatenated, so bit position b lives in byte
// (b/32)*4 + 3-(b%32)/8.
func permuteFromKeyBytes(key [8]byte, table []int) uint64 {
	var output uint64
	outputLen := len(table)
	for i, pos := range table {
		wordIndex := pos / 32
		bitInWord := pos % 32
		byteInWord := bitInWord / 8
		bitInByte := bitInWord % 8
		byteIndex := wordIndex*4 + (3 - byteInWord)
		bit := (key[byteIndex] >> uint(7-bitInByte)) & 1
		if bit != 0 {
			output |= 1 << uint(outputLen-1-i)
		}
	}
	return output
}

func applyEBoxPermutation(input uint32) uint64 {
	var output uint64
	for i, srcBitPos := range eBoxTable {
		shift := 32 - uint(srcBitPos)
		bit := (input >> shift) & 1
		output |= uint64(bit) << uint(47-i)
	}
	return output
}

// keySchedule derives the 16 round keys for key under mode. In Decrypt
// mode the round-key order is reversed relative to Encrypt.
func keySchedule(key [8]byte, m mode) roundKeys {
	var schedule roundKeys

	c0 := permuteFromKeyBytes(key, keyPermC[:])
	d0 := permuteFromKeyBytes(key, keyPermD[:])

	c := uint32(c0) << 4
	d := uint32(d0) << 4

	for i, shift := range keyRndShift {
		c = rotateLeft28BitInU32(c, shift)
		d = rotateLeft28BitInU32(d, shift)

		toGen := i
		if m == modeDecrypt {
			toGen = 15 - i
		}

		var subkey uint64
		for k, pos := range keyCompression {
			var bit uint32
			if pos < 28 {
				bit = (c >> uint(31-pos)) & 1
			} else {
				// The cipher's own quirk: position >= 28 indexes the D
				// half with (pos-27), not the expected (pos-28). Kept
				// verbatim.
				bit = (d >> uint(31-(pos-27))) & 1
			}
			if bit != 0 {
				subkey |= 1 << uint(47-k)
			}
		}

		subBytes := uint64ToBEBytes(subkey)
		copy(schedule[toGen][:], subBytes[2:])
	}

	return schedule
}

func uint64ToBEBytes(v uint64) [8]byte {
	return [8]byte{
		byte(v >> 56), byte(v >> 48), byte(v >> 40), byte(v >> 32),
		byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v),
	}
}

var ipRule = [64]byte{
	34, 42, 50, 58, 2, 10, 18, 26,
	36, 44, 52, 60, 4, 12, 20, 28,
	38, 46, 54, 62, 6, 14, 22, 30,
	40, 48, 56, 64, 8, 16, 24, 32,
	33, 41, 49, 57, 1, 9, 17, 25,
	35, 43, 51, 59, 3, 11, 19, 27,
	37, 45, 53, 61, 5, 13, 21, 29,
	39, 47, 55, 63, 7, 15, 23, 31,
}

var invIPRule = [64]byte{
	37, 5, 45, 13, 53, 21, 61, 29,
	38, 6, 46, 14, 54, 22, 62, 30,
	39, 7, 47, 15, 55, 23, 63, 31,
	40, 8, 48, 16, 56, 24, 64, 32,
	33, 1, 41, 9, 49, 17, 57, 25,
	34, 2, 42, 10, 50, 18, 58, 26,
	35, 3, 43, 11, 51, 19, 59, 27,
	36, 4, 44, 12, 52, 20, 60, 28,
}

// getBit returns the bit at 1-based position bitIndexFrom1 within data,
// using plain (non-scrambled) natural byte/bit order — unlike the key
// schedule's PC-1/PC-2 extraction, IP and IP^-1 read bits straight off
// the block in the order they arrive.
func getBit(data []byte, bitIndexFrom1 int) uint64 {
	bitIndex := bitIndexFrom1 - 1
	byteIndex := bitIndex / 8
	bitInByte := 7 - (bitIndex % 8)
	return uint64((data[byteIndex] >> uint(bitInByte)) & 1)
}

func applyPermutation(input [8]byte, rule *[64]byte) uint64 {
	var result uint64
	for i, srcBit := range rule {
		bit := getBit(input[:], int(srcBit))
		result |= bit << uint(63-i)
	}
	return result
}

type permutationTables struct {
	ipTable    [8][256][2]uint32 // [byte_pos][byte_val] = (hi32, lo32)
	invIPTable [8][256]uint64
}

var permTablesOnce sync.Once
var permTables permutationTables

func getPermutationTables() *permutationTables {
	permTablesOnce.Do(func() {
		var input [8]byte
		for bytePos := 0; bytePos < 8; bytePos++ {
			for byteVal := 0; byteVal < 256; byteVal++ {
				input = [8]byte{}
				input[bytePos] = byte(byteVal)
				permuted := applyPermutation(input, &ipRule)
				permTables.ipTable[bytePos][byteVal] = [2]uint32{uint32(permuted >> 32), uint32(permuted)}
			}
		}
		for blockPos := 0; blockPos < 8; blockPos++ {
			for blockVal := 0; blockVal < 256; blockVal++ {
				tmp := uint64(blockVal) << uint(56-(blockPos*8))
				bytes := uint64ToBEBytes(tmp)
				permuted := applyPermutation(bytes, &invIPRule)
				permTables.invIPTable[blockPos][blockVal] = permuted
			}
		}
	})
	return &permTables
}

func fFunction(state uint32, key [subKeySize]byte) uint32 {
	expanded := applyEBoxPermutation(state)
	keyU64 := uint64(key[0])<<40 | uint64(key[1])<<32 | uint64(key[2])<<24 |
		uint64(key[3])<<16 | uint64(key[4])<<8 | uint64(key[5])
	xorResult := expanded ^ keyU64

	sp := getSPTables()
	return sp[0][(xorResult>>42)&0x3F] |
		sp[1][(xorResult>>36)&0x3F] |
		sp[2][(xorResult>>30)&0x3F] |
		sp[3][(xorResult>>24)&0x3F] |
		sp[4][(xorResult>>18)&0x3F] |
		sp[5][(xorResult>>12)&0x3F] |
		sp[6][(xorResult>>6)&0x3F] |
		sp[7][xorResult&0x3F]
}

func initialPermutation(input [8]byte) (l, r uint32) {
	t := &getPermutationTables().ipTable
	for bytePos, b := range input {
		lookup := t[bytePos][b]
		l |= lookup[0]
		r |= lookup[1]
	}
	return l, r
}

func inversePermutation(l, r uint32) [8]byte {
	t := &getPermutationTables().invIPTable
	var result uint64
	for i := 0; i < 8; i++ {
		var half uint32
		if i < 4 {
			half = l
		} else {
			half = r
		}
		byteChunk := (half >> uint(24-(i%4)*8)) & 0xFF
		result |= t[i][byteChunk]
	}
	return uint64ToBEBytes(result)
}

// desCrypt runs one 8-byte block through the 16-round Feistel network
// defined by key. Rounds 1-15 are the standard swap-then-XOR Feistel
// step; round 16 deliberately skips the final swap, matching the
// upstream cipher.
func desCrypt(input [8]byte, key roundKeys) [8]byte {
	l, r := initialPermutation(input)

	for i := 0; i < 15; i++ {
		prevL, prevR := l, r
		r = prevL ^ fFunction(prevR, key[i])
		l = prevR
	}

	l ^= fFunction(r, key[15])

	return inversePermutation(l, r)
}
