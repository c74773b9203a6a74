package util

import (
	"errors"
	"math/big"
)

const b58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

var b58Index [128]int8

func init() {
	for i := range b58Index {
		b58Index[i] = -1
	}
	for i, c := range b58Alphabet {
		b58Index[c] = int8(i)
	}
}

// EncodeBase58 returns base58 representation of input data bytes.
func EncodeBase58(data []byte) string {
	x := new(big.Int).SetBytes(data)
	base := big.NewInt(58)
	mod := new(big.Int)

	encoded := []byte{}
	for x.Sign() > 0 {
		x.DivMod(x, base, mod)
		encoded = append([]byte{b58Alphabet[mod.Int64()]}, encoded...)
	}

	for _, b := range data {
		if b != 0x00 {
			break
		}
		encoded = append([]byte{b58Alphabet[0]}, encoded...)
	}

	return string(encoded)
}

// DecodeBase58 returns bytes of the given base58 string.
func DecodeBase58(str string) ([]byte, error) {
	x := big.NewInt(0)
	base := big.NewInt(58)

	for _, c := range str {
		if c >= 128 || b58Index[c] == -1 {
			return nil, errors.New("invalid base58 character: " + string(c))
		}
		x.Mul(x, base)
		x.Add(x, big.NewInt(int64(b58Index[c])))
	}

	decoded := x.Bytes()

	leadingZeros := 0
	for _, c := range str {
		if byte(c) != b58Alphabet[0] {
			break
		}
		leadingZeros++
	}

	return append(make([]byte, leadingZeros), decoded...), nil
}
