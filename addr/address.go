package addr

import (
	"bytes"
	"vaultd/util"
)

// version is the leading byte of every vault account address.
const version = 0x35

// checksumLen is the number of trailing checksum bytes.
const checksumLen = 4

// payloadLen is the length of the account payload between version and checksum.
const payloadLen = 20

// FromPayload returns the base58 encoded account address of a 20-byte payload.
func FromPayload(payload []byte) string {
	if len(payload) != payloadLen {
		panic("account payload must be 20 bytes")
	}

	data := append([]byte{version}, payload...)
	data = append(data, util.Hash256(data)[:checksumLen]...)
	return util.EncodeBase58(data)
}

// Valid checks if an account address is well formed: base58, version
// byte, payload length and double-sha256 checksum.
func Valid(address string) bool {
	if len(address) == 0 {
		return false
	}

	buffer, err := util.DecodeBase58(address)
	if err != nil {
		return false
	}

	if len(buffer) != 1+payloadLen+checksumLen {
		return false
	}

	if buffer[0] != version {
		return false
	}

	checksum := util.Hash256(buffer[:len(buffer)-checksumLen])
	return bytes.Equal(buffer[len(buffer)-checksumLen:], checksum[:checksumLen])
}
