package params

const (
	// BytesScalar is the size of a canonical big-endian secp256k1 scalar.
	BytesScalar = 32
	// BytesPoint is the size of a compressed secp256k1 point.
	BytesPoint = 33
	// BytesCoordinates is the size of an uncompressed point without its format byte,
	// the x and y coordinates concatenated.
	BytesCoordinates = 64
	// BytesUncompressedPoint is BytesCoordinates plus the 0x04 format byte.
	BytesUncompressedPoint = BytesCoordinates + 1

	// BytesDigest is the output size of keccak-256.
	BytesDigest = 32
	// BytesAddress is the size of an Ethereum address.
	BytesAddress = 20
	// BytesSignature is r ∥ s ∥ v.
	BytesSignature = 2*BytesScalar + 1
)
