package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

const sequencePrefix = "seq"

// EncodeSequenceToken creates an opaque token pointing after seq in a list
// ordered by a strictly monotonic sequence, such as operation numbers.
func EncodeSequenceToken(seq int64) string {
	tokenStr := fmt.Sprintf("%s|%d", sequencePrefix, seq)
	return base64.URLEncoding.EncodeToString([]byte(tokenStr))
}

// DecodeSequenceToken parses a token created by EncodeSequenceToken.
func DecodeSequenceToken(token string) (int64, error) {
	decodedBytes, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return 0, fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}
	parts := strings.SplitN(string(decodedBytes), "|", 2)
	if len(parts) != 2 || parts[0] != sequencePrefix {
		return 0, fmt.Errorf("invalid pagination token format (split)")
	}
	seq, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid pagination token format (sequence parse): %w", err)
	}
	return seq, nil
}
