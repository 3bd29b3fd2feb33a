package businessflow

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/amirphl/Maskan/app/dto"
)

const (
	// VisitorBucket is the width of the time bucket mixed into visitor hashes
	VisitorBucket = 10 * time.Minute

	unknownIP         = "unknown"
	visitorHashLength = 32
)

// ClientIP picks the first non-empty X-Forwarded-For hop, then X-Real-IP
func ClientIP(headers dto.ClickHeaders) string {
	for _, hop := range strings.Split(headers.ForwardedFor, ",") {
		if hop = strings.TrimSpace(hop); hop != "" {
			return hop
		}
	}
	if ip := strings.TrimSpace(headers.RealIP); ip != "" {
		return ip
	}
	return unknownIP
}

// VisitorHash digests ip, user agent and the current bucket. The same
// visitor gets a new hash every bucket; raw values never leave this function.
func VisitorHash(ip, userAgent string, at time.Time) string {
	bucket := at.Unix() / int64(VisitorBucket/time.Second)
	sum := sha256.Sum256([]byte(ip + ":" + userAgent + ":" + strconv.FormatInt(bucket, 10)))
	return hex.EncodeToString(sum[:])[:visitorHashLength]
}
