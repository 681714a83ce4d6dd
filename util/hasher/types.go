package hasher

type HashType byte

const (
	SHA1 HashType = 0x10
)

// HashLen is the digest size of the default hash.
const HashLen = 20
