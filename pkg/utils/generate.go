package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v3"
)

// ==================== BOOKING REFERENCE ====================

const bookingReferencePrefix = "SN"

// GenerateBookingReference returns SN<unix-millis><6 random chars>, e.g. SN1718000000000K7QXZ2.
func GenerateBookingReference(now time.Time) string {
	suffix := strings.ToUpper(shortuuid.New()[:6])
	return fmt.Sprintf("%s%d%s", bookingReferencePrefix, now.UnixMilli(), suffix)
}
