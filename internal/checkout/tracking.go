package checkout

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/parkyoungho/marushop-backend/pkg/enums"
)

// GenerateTracking issues a placeholder tracking number: the carrier's
// two-letter code, the last eight digits of the unix-millisecond clock, and a
// zero-padded three-digit serial. Thirteen characters total.
func GenerateTracking(now time.Time) (enums.Carrier, string) {
	carrier := enums.Carriers[rand.Intn(len(enums.Carriers))]
	stamp := now.UnixMilli() % 100_000_000
	serial := rand.Intn(1000)
	return carrier, fmt.Sprintf("%s%08d%03d", carrier, stamp, serial)
}
