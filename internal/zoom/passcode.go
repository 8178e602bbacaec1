package zoom

import "math/rand"

// Zoom accepts alphanumerics plus a small symbol set in meeting passcodes.
const passcodeAlphabet = "abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789@-_*"

const (
	passcodeMinLen = 6
	passcodeMaxLen = 10
)

// GeneratePasscode returns a random passcode whose length is uniform in
// [6,10].
func GeneratePasscode() string {
	length := passcodeMinLen + rand.Intn(passcodeMaxLen-passcodeMinLen+1)
	out := make([]byte, length)
	for i := range out {
		out[i] = passcodeAlphabet[rand.Intn(len(passcodeAlphabet))]
	}
	return string(out)
}
