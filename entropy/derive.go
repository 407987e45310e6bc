package entropy

import (
	"crypto/sha256"
	"encoding/binary"
	"strconv"
	"strings"
)

// DeriveSeed32 folds identifying parts (VIN, ECU serial, level) into
// a stable nonzero seed for units with fixed challenges.
func DeriveSeed32(parts ...string) (seed uint32) {
	joined := strings.Join(parts, "|")

	sum := sha256.Sum256([]byte(joined))
	seed = binary.BigEndian.Uint32(sum[:4])

	for round := 0; seed == 0; round++ {
		sum = sha256.Sum256([]byte(joined + "|" + strconv.Itoa(round)))
		seed = binary.BigEndian.Uint32(sum[:4])
	}

	return
}
