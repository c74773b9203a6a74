package addr

import (
	"bytes"
	"testing"
)

func TestAddressRoundTrip(t *testing.T) {
	payloads := [][]byte{
		bytes.Repeat([]byte{0x00}, 20),
		bytes.Repeat([]byte{0xff}, 20),
		{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a,
			0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10, 0x11, 0x12, 0x13, 0x14},
	}

	for _, payload := range payloads {
		address := FromPayload(payload)

		if !Valid(address) {
			t.Errorf("generated address should be valid: %s", address)
		}
	}
}

func TestInvalidAddresses(t *testing.T) {
	if Valid("") {
		t.Error("empty address should be invalid")
	}

	if Valid("0OIl") {
		t.Error("address with non-base58 characters should be invalid")
	}

	if Valid("abc") {
		t.Error("too short address should be invalid")
	}
}

func TestTamperedChecksum(t *testing.T) {
	address := FromPayload(bytes.Repeat([]byte{0x42}, 20))

	// Changing the last character changes the encoded checksum bytes.
	last := address[len(address)-1]
	replacement := byte('1')
	if last == replacement {
		replacement = '2'
	}
	tampered := address[:len(address)-1] + string(replacement)

	if Valid(tampered) {
		t.Errorf("tampered address should be invalid: %s", tampered)
	}
}
