package types

// PaymentStatus is the ledger state of a payment reference. The only allowed
// transition is verified -> consumed.
type PaymentStatus string

const (
	PaymentStatusVerified PaymentStatus = "verified"
	PaymentStatusConsumed PaymentStatus = "consumed"
)

// ImageExtension is a lower-cased file extension without the leading dot.
type ImageExtension string

const (
	ImageExtensionJPG  ImageExtension = "jpg"
	ImageExtensionJPEG ImageExtension = "jpeg"
	ImageExtensionPNG  ImageExtension = "png"
)

var allowedImageExtensions = map[ImageExtension]struct{}{
	ImageExtensionJPG:  {},
	ImageExtensionJPEG: {},
	ImageExtensionPNG:  {},
}

func (e ImageExtension) Allowed() bool {
	_, ok := allowedImageExtensions[e]
	return ok
}

func (e ImageExtension) IsJPEG() bool {
	return e == ImageExtensionJPG || e == ImageExtensionJPEG
}

// EventKind identifies the request an audit event was written for.
type EventKind string

const (
	EventKindVerify EventKind = "verify_payment"
	EventKindUpload EventKind = "upload"
)
