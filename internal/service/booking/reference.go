package booking

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const (
	referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	referenceLength   = 8
)

// NewReference draws a booking reference uniformly from referenceAlphabet.
func NewReference() (string, error) {
	var sb strings.Builder
	sb.Grow(referenceLength)
	max := big.NewInt(int64(len(referenceAlphabet)))
	for i := 0; i < referenceLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(referenceAlphabet[n.Int64()])
	}
	return sb.String(), nil
}

// ETicket formats the e-ticket number handed out with a new booking.
func ETicket(bookingID string, issuedAt time.Time) string {
	prefix := bookingID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return "ET-" + strings.ToUpper(prefix) + "-" + strings.ToUpper(strconv.FormatInt(issuedAt.UnixMilli(), 36))
}
