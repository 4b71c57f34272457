package service

// QRCodeService renders a payload as a PNG QR code.
type QRCodeService interface {
	// GeneratePNG encodes the content and returns PNG bytes.
	GeneratePNG(content string) ([]byte, error)
}
