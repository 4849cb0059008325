package qr

import qrcode "github.com/skip2/go-qrcode"

// RenderPNG turns an encoded payload string into a scannable PNG. Purely
// presentational; the signed content is what matters at the gate.
func RenderPNG(encoded string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	return qrcode.Encode(encoded, qrcode.Medium, size)
}
